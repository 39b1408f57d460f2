package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/obs"
	"trip-route-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

// RedisDistanceCache shares routing results between server instances.
// Entries expire after TTL; a TTL of 0 keeps them until evicted.
type RedisDistanceCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisDistanceCache(client *redis.Client, ttl time.Duration) *RedisDistanceCache {
	return &RedisDistanceCache{client: client, prefix: "trip:dist:", ttl: ttl}
}

// Connect to Redis and verify the connection.
func OpenRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

func (c *RedisDistanceCache) key(origin domain.Coordinates, mode domain.TransportMode, dest string) string {
	return fmt.Sprintf("%s%s:%s->%s", c.prefix, mode, origin.Key(), dest)
}

type redisEntry struct {
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationSeconds float64 `json:"durationSeconds"`
}

func (c *RedisDistanceCache) GetMany(
	ctx context.Context,
	origin domain.Coordinates,
	mode domain.TransportMode,
	destinations []domain.Coordinates,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.redis.GetMany")(&err)

	dests := uniqueKeys(destinations)
	if len(dests) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	keys := make([]string, 0, len(dests))
	for _, d := range dests {
		keys = append(keys, c.key(origin, mode, d))
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get redis distance cache: %w", err)
	}

	out := make(map[string]ports.DistanceResult, len(dests))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var e redisEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			log.Printf("redis distance cache: drop corrupt entry key=%s err=%v", keys[i], err)
			continue
		}
		out[dests[i]] = ports.DistanceResult{DistanceMeters: e.DistanceMeters, DurationSeconds: e.DurationSeconds}
	}
	return out, nil
}

func (c *RedisDistanceCache) PutMany(
	ctx context.Context,
	origin domain.Coordinates,
	mode domain.TransportMode,
	results map[string]ports.DistanceResult,
) error {
	if len(results) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for dest, r := range results {
		if dest == "" {
			return fmt.Errorf("insert redis distance cache: empty destination key")
		}
		b, err := json.Marshal(redisEntry{DistanceMeters: r.DistanceMeters, DurationSeconds: r.DurationSeconds})
		if err != nil {
			return fmt.Errorf("insert redis distance cache dest=%q: %w", dest, err)
		}
		pipe.Set(ctx, c.key(origin, mode, dest), b, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert redis distance cache: %w", err)
	}
	return nil
}
