package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
		origin TEXT NOT NULL,
		destination TEXT NOT NULL,
		mode TEXT NOT NULL,
		distance_meters REAL NOT NULL,
		duration_seconds REAL NOT NULL,
		cached_at INTEGER NOT NULL,
		PRIMARY KEY (origin, destination, mode)
	);
	`

	createHistoryQuery := `
	CREATE TABLE IF NOT EXISTS route_history (
		id TEXT PRIMARY KEY,
		completed_at INTEGER NOT NULL,
		distance_km REAL NOT NULL,
		duration_seconds REAL NOT NULL,
		stops_json TEXT NOT NULL
	);
	`

	createHistoryIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_route_history_completed_at
	ON route_history(completed_at);
	`

	createStatsQuery := `
	CREATE TABLE IF NOT EXISTS route_stats (
		date TEXT PRIMARY KEY,
		total_distance_km REAL NOT NULL DEFAULT 0,
		total_time_seconds REAL NOT NULL DEFAULT 0,
		routes_completed INTEGER NOT NULL DEFAULT 0
	);
	`

	createBookmarksQuery := `
	CREATE TABLE IF NOT EXISTS route_bookmarks (
		name TEXT PRIMARY KEY,
		stops_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`

	statements := []string{
		createDistanceCacheQuery,
		createHistoryQuery,
		createHistoryIndexQuery,
		createStatsQuery,
		createBookmarksQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type BookmarkSeed struct {
	Name  string     `json:"name"`
	Stops []StopSeed `json:"stops"`
}

type StopSeed struct {
	Name      string  `json:"name"`
	Direction string  `json:"direction"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// Populate the bookmarks table from a JSON file.
// Bookmarks whose name already exists are left untouched.
func SeedBookmarksFromJSON(ctx context.Context, repo ports.BookmarkRepository, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed bookmarks: read %q: %w", jsonPath, err)
	}

	var data []BookmarkSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed bookmarks: parse json: %w", err)
	}

	bookmarks := make([]domain.RouteBookmark, 0, len(data))
	for i, item := range data {
		name, err := domain.NormalizeBookmarkName(item.Name)
		if err != nil {
			return 0, fmt.Errorf("seed bookmarks: item at index %d: %w", i+1, err)
		}
		if len(item.Stops) == 0 {
			return 0, fmt.Errorf("seed bookmarks: item %q: stops cannot be empty", name)
		}

		stops := make([]domain.Stop, 0, len(item.Stops))
		for j, s := range item.Stops {
			coords := domain.Coordinates{Lat: s.Lat, Lng: s.Lng}
			if s.Name == "" || !coords.Valid() {
				return 0, fmt.Errorf("seed bookmarks: item %q: invalid stop at index %d", name, j+1)
			}
			stops = append(stops, domain.NewStop(s.Name, s.Direction, coords))
		}
		bookmarks = append(bookmarks, domain.RouteBookmark{Name: name, Stops: stops, CreatedAt: time.Now().UTC()})
	}

	inserted := 0
	for _, b := range bookmarks {
		err := repo.SaveBookmark(ctx, b)
		if errors.Is(err, ports.ErrBookmarkExists) {
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("seed bookmarks: insert name=%q: %w", b.Name, err)
		}
		inserted++
	}

	return inserted, nil
}
