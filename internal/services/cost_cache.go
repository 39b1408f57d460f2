package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// CostCache memoizes successful estimates of a TravelCostProvider.
//
// Keys are directional and include the transport preference and the
// optimization mode, since a shuffle result depends on both. Failures are
// never stored. Identical concurrent misses share one upstream call.
type CostCache struct {
	inner ports.TravelCostProvider
	items *cache.Cache
	group singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// A ttl <= 0 keeps entries until the next Reset.
func NewCostCache(inner ports.TravelCostProvider, ttl time.Duration) *CostCache {
	items := cache.New(cache.NoExpiration, 0)
	if ttl > 0 {
		items = cache.New(ttl, 2*ttl)
	}
	return &CostCache{inner: inner, items: items}
}

func costKey(
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TransportMode,
	optimizeFor domain.OptimizationMode,
) string {
	return fmt.Sprintf("%s->%s|%s|%s", origin.Key(), destination.Key(), mode.Effective(), optimizeFor)
}

func (c *CostCache) Estimate(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TransportMode,
	optimizeFor domain.OptimizationMode,
) (domain.TravelCost, error) {
	key := costKey(origin, destination, mode, optimizeFor)

	if v, ok := c.items.Get(key); ok {
		c.hits.Add(1)
		return v.(domain.TravelCost), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.misses.Add(1)
		cost, err := c.inner.Estimate(ctx, origin, destination, mode, optimizeFor)
		if err != nil {
			return nil, err
		}
		c.items.SetDefault(key, cost)
		return cost, nil
	})
	if err != nil {
		return domain.TravelCost{}, err
	}

	return v.(domain.TravelCost), nil
}

// Reset drops every entry. Called at the start of each optimization run.
func (c *CostCache) Reset() {
	c.items.Flush()
}

func (c *CostCache) Len() int {
	return c.items.ItemCount()
}

// Stats returns the hit and miss counters since construction.
func (c *CostCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
