package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"trip-route-service/internal/domain"
)

func TestCostCacheMemoizesSuccess(t *testing.T) {
	var calls atomic.Int32
	inner := costFunc(func(ctx context.Context, o, d domain.Coordinates, m domain.TransportMode, opt domain.OptimizationMode) (domain.TravelCost, error) {
		calls.Add(1)
		return domain.TravelCost{DistanceMeters: 10, DurationSeconds: 5, ModeUsed: domain.ModeWalking}, nil
	})
	c := NewCostCache(inner, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Estimate(ctx, origin, dest, domain.ModeShuffle, domain.ByTime); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("inner calls = %d, want 1", calls.Load())
	}

	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Fatalf("hits=%d misses=%d, want 2/1", hits, misses)
	}
}

func TestCostCacheKeySeparatesDirectionModeAndMetric(t *testing.T) {
	var calls atomic.Int32
	inner := costFunc(func(ctx context.Context, o, d domain.Coordinates, m domain.TransportMode, opt domain.OptimizationMode) (domain.TravelCost, error) {
		calls.Add(1)
		return domain.TravelCost{DistanceMeters: 10}, nil
	})
	c := NewCostCache(inner, time.Minute)
	ctx := context.Background()

	c.Estimate(ctx, origin, dest, domain.ModeShuffle, domain.ByTime)
	c.Estimate(ctx, dest, origin, domain.ModeShuffle, domain.ByTime)
	c.Estimate(ctx, origin, dest, domain.ModeShuffle, domain.ByDistance)
	c.Estimate(ctx, origin, dest, domain.ModeDriving, domain.ByTime)
	// The leg-0 sentinel shares the shuffle entry.
	c.Estimate(ctx, origin, dest, domain.ModeNone, domain.ByTime)

	if calls.Load() != 4 {
		t.Fatalf("inner calls = %d, want 4", calls.Load())
	}
	if c.Len() != 4 {
		t.Fatalf("entries = %d, want 4", c.Len())
	}
}

func TestCostCacheDoesNotStoreFailures(t *testing.T) {
	var calls atomic.Int32
	inner := costFunc(func(ctx context.Context, o, d domain.Coordinates, m domain.TransportMode, opt domain.OptimizationMode) (domain.TravelCost, error) {
		if calls.Add(1) == 1 {
			return domain.TravelCost{}, ErrCostUnavailable
		}
		return domain.TravelCost{DistanceMeters: 42}, nil
	})
	c := NewCostCache(inner, 0)
	ctx := context.Background()

	if _, err := c.Estimate(ctx, origin, dest, domain.ModeDriving, domain.ByTime); !errors.Is(err, ErrCostUnavailable) {
		t.Fatalf("err = %v, want ErrCostUnavailable", err)
	}
	cost, err := c.Estimate(ctx, origin, dest, domain.ModeDriving, domain.ByTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost.DistanceMeters != 42 {
		t.Fatalf("distance = %v, want 42", cost.DistanceMeters)
	}
}

func TestCostCacheReset(t *testing.T) {
	inner := costFunc(func(ctx context.Context, o, d domain.Coordinates, m domain.TransportMode, opt domain.OptimizationMode) (domain.TravelCost, error) {
		return domain.TravelCost{DistanceMeters: 1}, nil
	})
	c := NewCostCache(inner, 0)
	c.Estimate(context.Background(), origin, dest, domain.ModeDriving, domain.ByTime)

	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("entries after reset = %d, want 0", c.Len())
	}
}

func TestCostCacheCollapsesConcurrentMisses(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	inner := costFunc(func(ctx context.Context, o, d domain.Coordinates, m domain.TransportMode, opt domain.OptimizationMode) (domain.TravelCost, error) {
		calls.Add(1)
		<-release
		return domain.TravelCost{DistanceMeters: 7}, nil
	})
	c := NewCostCache(inner, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Estimate(context.Background(), origin, dest, domain.ModeDriving, domain.ByTime)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("inner calls = %d, want 1", calls.Load())
	}
}
