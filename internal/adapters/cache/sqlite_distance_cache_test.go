package cache

import (
	"context"
	"database/sql"
	"testing"
	"time"
	"trip-route-service/internal/adapters/repositories"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSqliteDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, repositories.InitSchema(db))
	return db
}

func TestSqliteDistanceCacheRoundTrip(t *testing.T) {
	c := NewSqliteDistanceCache(newSqliteDB(t), 0)
	ctx := context.Background()

	require.NoError(t, c.PutMany(ctx, origin, domain.ModeBicycling, map[string]ports.DistanceResult{
		louvre.Key(): {DistanceMeters: 1300.5, DurationSeconds: 320.25},
		eiffel.Key(): {DistanceMeters: 4200, DurationSeconds: 1000},
	}))

	got, err := c.GetMany(ctx, origin, domain.ModeBicycling, []domain.Coordinates{louvre, eiffel})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 1300.5, got[louvre.Key()].DistanceMeters)
	assert.Equal(t, 320.25, got[louvre.Key()].DurationSeconds)

	reverse, err := c.GetMany(ctx, louvre, domain.ModeBicycling, []domain.Coordinates{origin})
	require.NoError(t, err)
	assert.Empty(t, reverse)
}

func TestSqliteDistanceCacheReplacesAndAges(t *testing.T) {
	c := NewSqliteDistanceCache(newSqliteDB(t), time.Hour)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.PutMany(ctx, origin, domain.ModeDriving, map[string]ports.DistanceResult{
		louvre.Key(): {DistanceMeters: 1, DurationSeconds: 1},
	}))
	require.NoError(t, c.PutMany(ctx, origin, domain.ModeDriving, map[string]ports.DistanceResult{
		louvre.Key(): {DistanceMeters: 2, DurationSeconds: 2},
	}))

	got, err := c.GetMany(ctx, origin, domain.ModeDriving, []domain.Coordinates{louvre})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got[louvre.Key()].DistanceMeters)

	now = now.Add(2 * time.Hour)
	got, err = c.GetMany(ctx, origin, domain.ModeDriving, []domain.Coordinates{louvre})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSqliteDistanceCacheEmptyInput(t *testing.T) {
	c := NewSqliteDistanceCache(newSqliteDB(t), 0)

	got, err := c.GetMany(context.Background(), origin, domain.ModeWalking, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, c.PutMany(context.Background(), origin, domain.ModeWalking, nil))
}
