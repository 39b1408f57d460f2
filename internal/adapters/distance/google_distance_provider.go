package distance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/obs"
	"trip-route-service/internal/ports"
)

// Google accepts at most 25 destinations per request.
const maxDestinationsPerRequest = 25

// GoogleDistanceProvider implements DistanceProvider using the Google Distance
// Matrix API.
//
// It coordinates:
//   - Coordinate normalization for cache keys
//   - An optional persistent distance cache
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type GoogleDistanceProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	cache   ports.DistanceCache
}

type GoogleOption func(*GoogleDistanceProvider)

func WithBaseURL(u string) GoogleOption {
	return func(g *GoogleDistanceProvider) { g.baseURL = u }
}

func WithHTTPClient(c *http.Client) GoogleOption {
	return func(g *GoogleDistanceProvider) { g.session = c }
}

// cache may be nil.
func NewGoogleDistanceProvider(apiKey string, cache ports.DistanceCache, opts ...GoogleOption) (*GoogleDistanceProvider, error) {
	if apiKey == "" {
		return nil, errors.New("google maps api key is empty")
	}

	g := &GoogleDistanceProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://maps.googleapis.com",
		cache:   cache,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Delegate to batched path to reuse caching and matrix logic.
func (g *GoogleDistanceProvider) GetDistance(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TransportMode,
) (ports.DistanceResult, error) {
	results, err := g.GetDistances(ctx, origin, []domain.Coordinates{destination}, mode)
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("get distance %s -> %s: %w", origin, destination, err)
	}

	result, ok := results[destination.Key()]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("%s -> %s mode=%s: %w", origin, destination, mode, ports.ErrNoRoute)
	}
	return result, nil
}

// GetDistances computes distances from a single origin to many destinations
// for one concrete mode. Destinations without a route are absent from the
// result, which is keyed by Coordinates.Key().
func (g *GoogleDistanceProvider) GetDistances(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
	mode domain.TransportMode,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "google.GetDistances")(&err)

	if !mode.IsConcrete() {
		return nil, fmt.Errorf("google distance: mode %q is not a concrete transport mode", mode)
	}
	if !origin.Valid() {
		return nil, fmt.Errorf("google distance: invalid origin %s", origin)
	}

	out := make(map[string]ports.DistanceResult, len(destinations))

	seen := make(map[string]struct{}, len(destinations))
	destList := make([]domain.Coordinates, 0, len(destinations))
	for _, d := range destinations {
		if !d.Valid() {
			return nil, fmt.Errorf("google distance: invalid destination %s", d)
		}
		k := d.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}

		if k == origin.Key() {
			out[k] = ports.DistanceResult{}
			continue
		}
		destList = append(destList, d)
	}

	if len(destList) == 0 {
		return out, nil
	}

	// Check persistent distance cache before issuing external API calls.
	if g.cache != nil {
		hits, err := g.cache.GetMany(ctx, origin, mode, destList)
		if err != nil {
			log.Printf("distance cache read failed: %v", err)
		}
		for k, v := range hits {
			out[k] = v
		}
	}

	misses := make([]domain.Coordinates, 0, len(destList))
	for _, d := range destList {
		if _, ok := out[d.Key()]; !ok {
			misses = append(misses, d)
		}
	}

	if len(misses) == 0 {
		return out, nil
	}

	fetched := make(map[string]ports.DistanceResult, len(misses))
	for start := 0; start < len(misses); start += maxDestinationsPerRequest {
		end := min(start+maxDestinationsPerRequest, len(misses))

		row, err := g.fetchMatrixRow(ctx, origin, misses[start:end], mode)
		if err != nil {
			return nil, fmt.Errorf("fetching matrix row: %w", err)
		}
		for k, v := range row {
			fetched[k] = v
		}
	}

	if g.cache != nil && len(fetched) > 0 {
		if err := g.cache.PutMany(ctx, origin, mode, fetched); err != nil {
			log.Printf("distance cache write failed: %v", err)
		}
	}

	for k, v := range fetched {
		out[k] = v
	}
	return out, nil
}
