package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/obs"
	"trip-route-service/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	historyCollection   = "route_history"
	statsCollection     = "route_stats"
	bookmarksCollection = "route_bookmarks"
)

// MongoDB-backed implementation of the RouteRepository port.
type MongoRouteRepository struct {
	db *mongo.Database
}

type mongoStop struct {
	ID        string  `bson:"id"`
	Name      string  `bson:"name"`
	Direction string  `bson:"direction,omitempty"`
	Lat       float64 `bson:"lat"`
	Lng       float64 `bson:"lng"`
}

type mongoVisitedStop struct {
	Index int       `bson:"index"`
	Stop  mongoStop `bson:"stop"`
}

type mongoHistory struct {
	ID              string             `bson:"_id"`
	CompletedAt     time.Time          `bson:"completed_at"`
	DistanceKm      float64            `bson:"distance_km"`
	DurationSeconds float64            `bson:"duration_seconds"`
	Stops           []mongoVisitedStop `bson:"stops"`
}

type mongoStats struct {
	Date             string  `bson:"_id"`
	TotalDistanceKm  float64 `bson:"total_distance_km"`
	TotalTimeSeconds float64 `bson:"total_time_seconds"`
	RoutesCompleted  int     `bson:"routes_completed"`
}

type mongoBookmark struct {
	Name      string      `bson:"_id"`
	Stops     []mongoStop `bson:"stops"`
	CreatedAt time.Time   `bson:"created_at"`
}

// Connect to MongoDB, verify the connection and ensure indexes.
func OpenMongo(ctx context.Context, uri, database string) (*mongo.Client, *MongoRouteRepository, error) {
	clientOptions := options.Client().ApplyURI(uri).
		SetMaxPoolSize(50).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("open mongo: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("open mongo: ping: %w", err)
	}

	repo := NewMongoRouteRepository(client.Database(database))
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	log.Printf("mongo: connected database=%s", database)
	return client, repo, nil
}

func NewMongoRouteRepository(db *mongo.Database) *MongoRouteRepository {
	return &MongoRouteRepository{db: db}
}

func (m *MongoRouteRepository) EnsureIndexes(ctx context.Context) error {
	_, err := m.db.Collection(historyCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "completed_at", Value: -1}},
		Options: options.Index().SetName("completed_at_idx"),
	})
	if err != nil {
		return fmt.Errorf("ensure indexes: %s: %w", historyCollection, err)
	}
	return nil
}

func (m *MongoRouteRepository) AppendHistory(ctx context.Context, entry domain.RouteHistoryEntry) (err error) {
	defer obs.Time(ctx, "history.mongo.Append")(&err)

	doc := mongoHistory{
		ID:              entry.ID,
		CompletedAt:     entry.CompletedAt.UTC(),
		DistanceKm:      entry.DistanceKm,
		DurationSeconds: entry.DurationSeconds,
		Stops:           make([]mongoVisitedStop, 0, len(entry.Stops)),
	}
	for _, v := range entry.Stops {
		doc.Stops = append(doc.Stops, mongoVisitedStop{Index: v.Index, Stop: toMongoStop(v.Stop)})
	}

	if _, err := m.db.Collection(historyCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("append history id=%q: %w", entry.ID, err)
	}
	return nil
}

func (m *MongoRouteRepository) ListHistory(ctx context.Context, limit int) ([]domain.RouteHistoryEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "completed_at", Value: -1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.db.Collection(historyCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list history: find: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoHistory
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list history: decode: %w", err)
	}

	out := make([]domain.RouteHistoryEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (m *MongoRouteRepository) GetHistory(ctx context.Context, id string) (domain.RouteHistoryEntry, error) {
	var doc mongoHistory
	err := m.db.Collection(historyCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.RouteHistoryEntry{}, fmt.Errorf("get history id=%q: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return domain.RouteHistoryEntry{}, fmt.Errorf("get history id=%q: %w", id, err)
	}
	return doc.toDomain(), nil
}

func (m *MongoRouteRepository) RecordDailyStats(ctx context.Context, date string, distanceKm, durationSeconds float64) error {
	update := bson.M{
		"$inc": bson.M{
			"total_distance_km":  distanceKm,
			"total_time_seconds": durationSeconds,
			"routes_completed":   1,
		},
	}
	_, err := m.db.Collection(statsCollection).UpdateByID(ctx, date, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("record stats date=%s: %w", date, err)
	}
	return nil
}

func (m *MongoRouteRepository) GetStats(ctx context.Context, date string) (domain.RouteStats, error) {
	var doc mongoStats
	err := m.db.Collection(statsCollection).FindOne(ctx, bson.M{"_id": date}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.RouteStats{}, fmt.Errorf("get stats date=%s: %w", date, ports.ErrNotFound)
	}
	if err != nil {
		return domain.RouteStats{}, fmt.Errorf("get stats date=%s: %w", date, err)
	}
	return domain.RouteStats(doc), nil
}

func (m *MongoRouteRepository) ListStats(ctx context.Context) ([]domain.RouteStats, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cursor, err := m.db.Collection(statsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list stats: find: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoStats
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list stats: decode: %w", err)
	}

	out := make([]domain.RouteStats, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.RouteStats(d))
	}
	return out, nil
}

func (m *MongoRouteRepository) SaveBookmark(ctx context.Context, b domain.RouteBookmark) error {
	doc := mongoBookmark{Name: b.Name, CreatedAt: b.CreatedAt.UTC(), Stops: make([]mongoStop, 0, len(b.Stops))}
	for _, s := range b.Stops {
		doc.Stops = append(doc.Stops, toMongoStop(s))
	}

	_, err := m.db.Collection(bookmarksCollection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("save bookmark name=%q: %w", b.Name, ports.ErrBookmarkExists)
	}
	if err != nil {
		return fmt.Errorf("save bookmark name=%q: %w", b.Name, err)
	}
	return nil
}

func (m *MongoRouteRepository) ListBookmarks(ctx context.Context) ([]domain.RouteBookmark, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.db.Collection(bookmarksCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: find: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoBookmark
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list bookmarks: decode: %w", err)
	}

	out := make([]domain.RouteBookmark, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (m *MongoRouteRepository) GetBookmark(ctx context.Context, name string) (domain.RouteBookmark, error) {
	var doc mongoBookmark
	err := m.db.Collection(bookmarksCollection).FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.RouteBookmark{}, fmt.Errorf("get bookmark name=%q: %w", name, ports.ErrNotFound)
	}
	if err != nil {
		return domain.RouteBookmark{}, fmt.Errorf("get bookmark name=%q: %w", name, err)
	}
	return doc.toDomain(), nil
}

func (m *MongoRouteRepository) DeleteBookmark(ctx context.Context, name string) error {
	res, err := m.db.Collection(bookmarksCollection).DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return fmt.Errorf("delete bookmark name=%q: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete bookmark name=%q: %w", name, ports.ErrNotFound)
	}
	return nil
}

func toMongoStop(s domain.Stop) mongoStop {
	return mongoStop{ID: s.ID, Name: s.Name, Direction: s.Direction, Lat: s.Coords.Lat, Lng: s.Coords.Lng}
}

func (s mongoStop) toDomain() domain.Stop {
	return domain.Stop{ID: s.ID, Name: s.Name, Direction: s.Direction, Coords: domain.Coordinates{Lat: s.Lat, Lng: s.Lng}}
}

func (d mongoHistory) toDomain() domain.RouteHistoryEntry {
	e := domain.RouteHistoryEntry{
		ID:              d.ID,
		CompletedAt:     d.CompletedAt.UTC(),
		DistanceKm:      d.DistanceKm,
		DurationSeconds: d.DurationSeconds,
		Stops:           make([]domain.VisitedStop, 0, len(d.Stops)),
	}
	for _, v := range d.Stops {
		e.Stops = append(e.Stops, domain.VisitedStop{Index: v.Index, Stop: v.Stop.toDomain()})
	}
	return e
}

func (d mongoBookmark) toDomain() domain.RouteBookmark {
	b := domain.RouteBookmark{Name: d.Name, CreatedAt: d.CreatedAt.UTC(), Stops: make([]domain.Stop, 0, len(d.Stops))}
	for _, s := range d.Stops {
		b.Stops = append(b.Stops, s.toDomain())
	}
	return b
}
