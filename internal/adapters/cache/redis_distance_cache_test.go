package cache

import (
	"context"
	"testing"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	origin = domain.Coordinates{Lat: 48.8566, Lng: 2.3522}
	louvre = domain.Coordinates{Lat: 48.8606, Lng: 2.3376}
	eiffel = domain.Coordinates{Lat: 48.8584, Lng: 2.2945}
)

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisDistanceCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisDistanceCache(client, ttl), mr
}

func TestRedisDistanceCacheRoundTrip(t *testing.T) {
	c, _ := newRedisCache(t, time.Hour)
	ctx := context.Background()

	err := c.PutMany(ctx, origin, domain.ModeWalking, map[string]ports.DistanceResult{
		louvre.Key(): {DistanceMeters: 1200, DurationSeconds: 900},
	})
	require.NoError(t, err)

	got, err := c.GetMany(ctx, origin, domain.ModeWalking, []domain.Coordinates{louvre, eiffel, louvre})
	require.NoError(t, err)

	assert.Len(t, got, 1)
	assert.Equal(t, 1200.0, got[louvre.Key()].DistanceMeters)
	assert.Equal(t, 900.0, got[louvre.Key()].DurationSeconds)

	other, err := c.GetMany(ctx, origin, domain.ModeDriving, []domain.Coordinates{louvre})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRedisDistanceCacheExpires(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.PutMany(ctx, origin, domain.ModeDriving, map[string]ports.DistanceResult{
		eiffel.Key(): {DistanceMeters: 5000, DurationSeconds: 600},
	}))

	mr.FastForward(2 * time.Minute)

	got, err := c.GetMany(ctx, origin, domain.ModeDriving, []domain.Coordinates{eiffel})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisDistanceCacheSkipsCorruptEntries(t *testing.T) {
	c, mr := newRedisCache(t, 0)
	ctx := context.Background()

	require.NoError(t, mr.Set(c.key(origin, domain.ModeTransit, louvre.Key()), "not json"))

	got, err := c.GetMany(ctx, origin, domain.ModeTransit, []domain.Coordinates{louvre})
	require.NoError(t, err)
	assert.Empty(t, got)
}
