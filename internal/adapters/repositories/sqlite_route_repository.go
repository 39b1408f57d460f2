package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/obs"
	"trip-route-service/internal/ports"
)

// SQLite-backed implementation of the RouteRepository port.
type SqliteRouteRepository struct{ DB *sql.DB }

func NewSqliteRouteRepository(db *sql.DB) *SqliteRouteRepository {
	return &SqliteRouteRepository{DB: db}
}

func (s *SqliteRouteRepository) AppendHistory(ctx context.Context, entry domain.RouteHistoryEntry) (err error) {
	defer obs.Time(ctx, "history.sqlite.Append")(&err)

	if s.DB == nil {
		return errors.New("sqlite route repository: DB is nil")
	}

	stops, err := json.Marshal(entry.Stops)
	if err != nil {
		return fmt.Errorf("append history: encode stops: %w", err)
	}

	query := `
	INSERT INTO route_history (
		id,
		completed_at,
		distance_km,
		duration_seconds,
		stops_json
	)
	VALUES (?, ?, ?, ?, ?);
	`
	if _, err := s.DB.ExecContext(ctx, query,
		entry.ID,
		entry.CompletedAt.UnixMilli(),
		entry.DistanceKm,
		entry.DurationSeconds,
		string(stops),
	); err != nil {
		return fmt.Errorf("append history id=%q: %w", entry.ID, err)
	}
	return nil
}

func (s *SqliteRouteRepository) ListHistory(ctx context.Context, limit int) ([]domain.RouteHistoryEntry, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite route repository: DB is nil")
	}

	query := `
	SELECT
		id,
		completed_at,
		distance_km,
		duration_seconds,
		stops_json
	FROM route_history
	ORDER BY completed_at DESC, id
	LIMIT ?;
	`
	// SQLite treats a negative LIMIT as no limit.
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: query route_history table: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.RouteHistoryEntry, 0, 16)
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("list history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: row iteration: %w", err)
	}

	return entries, nil
}

func (s *SqliteRouteRepository) GetHistory(ctx context.Context, id string) (domain.RouteHistoryEntry, error) {
	if s.DB == nil {
		return domain.RouteHistoryEntry{}, errors.New("sqlite route repository: DB is nil")
	}

	query := `
	SELECT
		id,
		completed_at,
		distance_km,
		duration_seconds,
		stops_json
	FROM route_history
	WHERE id = ?;
	`
	e, err := scanHistory(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RouteHistoryEntry{}, fmt.Errorf("get history id=%q: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return domain.RouteHistoryEntry{}, fmt.Errorf("get history id=%q: %w", id, err)
	}
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistory(row rowScanner) (domain.RouteHistoryEntry, error) {
	var e domain.RouteHistoryEntry
	var completedAt int64
	var stops string
	if err := row.Scan(&e.ID, &completedAt, &e.DistanceKm, &e.DurationSeconds, &stops); err != nil {
		return domain.RouteHistoryEntry{}, err
	}
	if err := json.Unmarshal([]byte(stops), &e.Stops); err != nil {
		return domain.RouteHistoryEntry{}, fmt.Errorf("decode stops of %q: %w", e.ID, err)
	}
	e.CompletedAt = time.UnixMilli(completedAt).UTC()
	return e, nil
}

func (s *SqliteRouteRepository) RecordDailyStats(ctx context.Context, date string, distanceKm, durationSeconds float64) error {
	if s.DB == nil {
		return errors.New("sqlite route repository: DB is nil")
	}

	query := `
	INSERT INTO route_stats (
		date,
		total_distance_km,
		total_time_seconds,
		routes_completed
	)
	VALUES (?, ?, ?, 1)
	ON CONFLICT(date) DO UPDATE SET
		total_distance_km = total_distance_km + excluded.total_distance_km,
		total_time_seconds = total_time_seconds + excluded.total_time_seconds,
		routes_completed = routes_completed + 1;
	`
	if _, err := s.DB.ExecContext(ctx, query, date, distanceKm, durationSeconds); err != nil {
		return fmt.Errorf("record stats date=%s: %w", date, err)
	}
	return nil
}

func (s *SqliteRouteRepository) GetStats(ctx context.Context, date string) (domain.RouteStats, error) {
	if s.DB == nil {
		return domain.RouteStats{}, errors.New("sqlite route repository: DB is nil")
	}

	query := `
	SELECT
		date,
		total_distance_km,
		total_time_seconds,
		routes_completed
	FROM route_stats
	WHERE date = ?;
	`
	var st domain.RouteStats
	err := s.DB.QueryRowContext(ctx, query, date).Scan(&st.Date, &st.TotalDistanceKm, &st.TotalTimeSeconds, &st.RoutesCompleted)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RouteStats{}, fmt.Errorf("get stats date=%s: %w", date, ports.ErrNotFound)
	}
	if err != nil {
		return domain.RouteStats{}, fmt.Errorf("get stats date=%s: %w", date, err)
	}
	return st, nil
}

func (s *SqliteRouteRepository) ListStats(ctx context.Context) ([]domain.RouteStats, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite route repository: DB is nil")
	}

	query := `
	SELECT
		date,
		total_distance_km,
		total_time_seconds,
		routes_completed
	FROM route_stats
	ORDER BY date DESC;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stats: query route_stats table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.RouteStats, 0, 32)
	for rows.Next() {
		var st domain.RouteStats
		if err := rows.Scan(&st.Date, &st.TotalDistanceKm, &st.TotalTimeSeconds, &st.RoutesCompleted); err != nil {
			return nil, fmt.Errorf("list stats: scan row: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stats: row iteration: %w", err)
	}
	return out, nil
}

func (s *SqliteRouteRepository) SaveBookmark(ctx context.Context, b domain.RouteBookmark) error {
	if s.DB == nil {
		return errors.New("sqlite route repository: DB is nil")
	}

	stops, err := json.Marshal(b.Stops)
	if err != nil {
		return fmt.Errorf("save bookmark: encode stops: %w", err)
	}

	query := `
	INSERT INTO route_bookmarks (
		name,
		stops_json,
		created_at
	)
	VALUES (?, ?, ?)
	ON CONFLICT(name) DO NOTHING;
	`
	res, err := s.DB.ExecContext(ctx, query, b.Name, string(stops), b.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save bookmark name=%q: %w", b.Name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save bookmark name=%q: rows affected: %w", b.Name, err)
	}
	if n == 0 {
		return fmt.Errorf("save bookmark name=%q: %w", b.Name, ports.ErrBookmarkExists)
	}
	return nil
}

func (s *SqliteRouteRepository) ListBookmarks(ctx context.Context) ([]domain.RouteBookmark, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite route repository: DB is nil")
	}

	query := `
	SELECT
		name,
		stops_json,
		created_at
	FROM route_bookmarks
	ORDER BY name;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: query route_bookmarks table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.RouteBookmark, 0, 16)
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("list bookmarks: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookmarks: row iteration: %w", err)
	}
	return out, nil
}

func (s *SqliteRouteRepository) GetBookmark(ctx context.Context, name string) (domain.RouteBookmark, error) {
	if s.DB == nil {
		return domain.RouteBookmark{}, errors.New("sqlite route repository: DB is nil")
	}

	query := `
	SELECT
		name,
		stops_json,
		created_at
	FROM route_bookmarks
	WHERE name = ?;
	`
	b, err := scanBookmark(s.DB.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RouteBookmark{}, fmt.Errorf("get bookmark name=%q: %w", name, ports.ErrNotFound)
	}
	if err != nil {
		return domain.RouteBookmark{}, fmt.Errorf("get bookmark name=%q: %w", name, err)
	}
	return b, nil
}

func (s *SqliteRouteRepository) DeleteBookmark(ctx context.Context, name string) error {
	if s.DB == nil {
		return errors.New("sqlite route repository: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM route_bookmarks WHERE name = ?;`, name)
	if err != nil {
		return fmt.Errorf("delete bookmark name=%q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bookmark name=%q: rows affected: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete bookmark name=%q: %w", name, ports.ErrNotFound)
	}
	return nil
}

func scanBookmark(row rowScanner) (domain.RouteBookmark, error) {
	var b domain.RouteBookmark
	var stops string
	var createdAt int64
	if err := row.Scan(&b.Name, &stops, &createdAt); err != nil {
		return domain.RouteBookmark{}, err
	}
	if err := json.Unmarshal([]byte(stops), &b.Stops); err != nil {
		return domain.RouteBookmark{}, fmt.Errorf("decode stops of %q: %w", b.Name, err)
	}
	b.CreatedAt = time.UnixMilli(createdAt).UTC()
	return b, nil
}
