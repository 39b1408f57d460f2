package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/obs"
	"trip-route-service/internal/ports"
)

// SQLite backed cache for origin->destination routing results.
// The distance_cache table is created by repositories.InitSchema.
type SqliteDistanceCache struct {
	DB     *sql.DB
	MaxAge time.Duration
	now    func() time.Time
}

func NewSqliteDistanceCache(db *sql.DB, maxAge time.Duration) *SqliteDistanceCache {
	return &SqliteDistanceCache{DB: db, MaxAge: maxAge, now: time.Now}
}

// Fetch cached distances for one origin and multiple destinations.
func (s *SqliteDistanceCache) GetMany(
	ctx context.Context,
	origin domain.Coordinates,
	mode domain.TransportMode,
	destinations []domain.Coordinates,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("distance cache: db is nil")
	}

	keys := uniqueKeys(destinations)
	if len(keys) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	ph := make([]string, 0, len(keys))
	args := make([]any, 0, 3+len(keys))
	args = append(args, origin.Key(), string(mode))
	for _, k := range keys {
		ph = append(ph, "?")
		args = append(args, k)
	}

	var minCachedAt int64
	if s.MaxAge > 0 {
		minCachedAt = s.now().Add(-s.MaxAge).Unix()
	}
	args = append(args, minCachedAt)

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT
		destination,
		distance_meters,
		duration_seconds
	FROM distance_cache
	WHERE origin = ?
		AND mode = ?
		AND destination IN (%s)
		AND cached_at >= ?;
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get distance cache: query distance_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]ports.DistanceResult, len(keys))
	for rows.Next() {
		var dest string
		var r ports.DistanceResult
		if err := rows.Scan(&dest, &r.DistanceMeters, &r.DurationSeconds); err != nil {
			return nil, fmt.Errorf("get distance cache: scan rows: %w", err)
		}
		out[dest] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get distance cache: row iteration: %w", err)
	}

	return out, nil
}

// Store many cached distance results for a single origin and mode.
func (s *SqliteDistanceCache) PutMany(
	ctx context.Context,
	origin domain.Coordinates,
	mode domain.TransportMode,
	results map[string]ports.DistanceResult,
) error {
	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert distance cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO distance_cache (
		origin,
		destination,
		mode,
		distance_meters,
		duration_seconds,
		cached_at
	)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("insert distance cache: db prepare: %w", err)
	}
	defer stmt.Close()

	cachedAt := s.now().Unix()
	for dest, r := range results {
		if dest == "" {
			return fmt.Errorf("insert distance cache: empty destination key")
		}

		if _, err := stmt.ExecContext(ctx, origin.Key(), dest, string(mode), r.DistanceMeters, r.DurationSeconds, cachedAt); err != nil {
			return fmt.Errorf("insert distance cache dest=%q: %w", dest, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert distance cache commit: %w", err)
	}

	return nil
}
