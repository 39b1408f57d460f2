package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
)

type costFunc func(ctx context.Context, origin, destination domain.Coordinates, mode domain.TransportMode, optimizeFor domain.OptimizationMode) (domain.TravelCost, error)

func (f costFunc) Estimate(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TransportMode,
	optimizeFor domain.OptimizationMode,
) (domain.TravelCost, error) {
	return f(ctx, origin, destination, mode, optimizeFor)
}

type plannerFunc func(ctx context.Context, stops []domain.Stop, mode domain.TransportMode, optimizeFor domain.OptimizationMode) (*domain.RoutePlan, error)

func (f plannerFunc) Plan(
	ctx context.Context,
	stops []domain.Stop,
	mode domain.TransportMode,
	optimizeFor domain.OptimizationMode,
) (*domain.RoutePlan, error) {
	return f(ctx, stops, mode, optimizeFor)
}

// stopAt places a stop on a north-south line; one unit of lat is 1000 m in lineCosts.
func stopAt(name string, lat float64) domain.Stop {
	return domain.NewStop(name, "", domain.Coordinates{Lat: lat, Lng: 0})
}

// lineCosts prices a leg by the latitude difference, 1000 m and 100 s per unit.
func lineCosts() costFunc {
	return func(ctx context.Context, o, d domain.Coordinates, mode domain.TransportMode, _ domain.OptimizationMode) (domain.TravelCost, error) {
		if err := ctx.Err(); err != nil {
			return domain.TravelCost{}, err
		}
		diff := math.Abs(o.Lat - d.Lat)
		m := domain.ModeDriving
		if mode.IsConcrete() {
			m = mode
		}
		return domain.TravelCost{DistanceMeters: diff * 1000, DurationSeconds: diff * 100, ModeUsed: m}, nil
	}
}

// tableCosts answers from directed legs keyed by stop coordinates.
type tableCosts struct {
	mu    sync.Mutex
	legs  map[string]domain.TravelCost
	calls int
}

func newTableCosts() *tableCosts {
	return &tableCosts{legs: make(map[string]domain.TravelCost)}
}

func (t *tableCosts) set(from, to domain.Stop, meters, seconds float64) {
	t.legs[from.Coords.Key()+"->"+to.Coords.Key()] = domain.TravelCost{
		DistanceMeters:  meters,
		DurationSeconds: seconds,
		ModeUsed:        domain.ModeDriving,
	}
}

func (t *tableCosts) both(a, b domain.Stop, meters, seconds float64) {
	t.set(a, b, meters, seconds)
	t.set(b, a, meters, seconds)
}

func (t *tableCosts) Estimate(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	_ domain.TransportMode,
	_ domain.OptimizationMode,
) (domain.TravelCost, error) {
	if err := ctx.Err(); err != nil {
		return domain.TravelCost{}, err
	}

	t.mu.Lock()
	t.calls++
	c, ok := t.legs[origin.Key()+"->"+destination.Key()]
	t.mu.Unlock()

	if !ok {
		return domain.TravelCost{}, fmt.Errorf("%s -> %s: %w", origin, destination, ErrCostUnavailable)
	}
	return c, nil
}

func newTestState(costs ports.TravelCostProvider) *RouteState {
	return NewRouteState(RouteStateConfig{
		Costs:         costs,
		Parallelism:   4,
		AnnealingOpts: AnnealingOptions{Seed: 7},
	})
}

// fixedPlanner returns stops in their input order with driving legs of 100 m.
func fixedPlanner() plannerFunc {
	return func(ctx context.Context, stops []domain.Stop, _ domain.TransportMode, _ domain.OptimizationMode) (*domain.RoutePlan, error) {
		plan := &domain.RoutePlan{Order: append([]domain.Stop(nil), stops...)}
		for i := range stops {
			if i == 0 {
				plan.LegModes = append(plan.LegModes, domain.ModeNone)
				continue
			}
			plan.LegModes = append(plan.LegModes, domain.ModeDriving)
			plan.TotalDistanceMeters += 100
			plan.TotalDurationSeconds += 10
		}
		return plan, nil
	}
}

func ids(stops []domain.Stop) []string {
	out := make([]string, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.ID)
	}
	return out
}

func names(stops []domain.Stop) []string {
	out := make([]string, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.Name)
	}
	return out
}

func isPermutation(a, b []domain.Stop) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := ids(a), ids(b)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// In-memory ports.RouteRepository.
type memoryRepo struct {
	mu        sync.Mutex
	history   []domain.RouteHistoryEntry
	stats     map[string]domain.RouteStats
	bookmarks map[string]domain.RouteBookmark
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		stats:     make(map[string]domain.RouteStats),
		bookmarks: make(map[string]domain.RouteBookmark),
	}
}

func (r *memoryRepo) AppendHistory(_ context.Context, e domain.RouteHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, e)
	return nil
}

func (r *memoryRepo) ListHistory(_ context.Context, limit int) ([]domain.RouteHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.RouteHistoryEntry, 0, len(r.history))
	for i := len(r.history) - 1; i >= 0; i-- {
		out = append(out, r.history[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryRepo) GetHistory(_ context.Context, id string) (domain.RouteHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.history {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.RouteHistoryEntry{}, ports.ErrNotFound
}

func (r *memoryRepo) RecordDailyStats(_ context.Context, date string, km, secs float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats[date]
	s.Date = date
	s.TotalDistanceKm += km
	s.TotalTimeSeconds += secs
	s.RoutesCompleted++
	r.stats[date] = s
	return nil
}

func (r *memoryRepo) GetStats(_ context.Context, date string) (domain.RouteStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stats[date]
	if !ok {
		return domain.RouteStats{}, ports.ErrNotFound
	}
	return s, nil
}

func (r *memoryRepo) ListStats(_ context.Context) ([]domain.RouteStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.RouteStats, 0, len(r.stats))
	for _, s := range r.stats {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *memoryRepo) SaveBookmark(_ context.Context, b domain.RouteBookmark) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookmarks[b.Name]; ok {
		return ports.ErrBookmarkExists
	}
	r.bookmarks[b.Name] = b
	return nil
}

func (r *memoryRepo) ListBookmarks(_ context.Context) ([]domain.RouteBookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.RouteBookmark, 0, len(r.bookmarks))
	for _, b := range r.bookmarks {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRepo) GetBookmark(_ context.Context, name string) (domain.RouteBookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookmarks[name]
	if !ok {
		return domain.RouteBookmark{}, ports.ErrNotFound
	}
	return b, nil
}

func (r *memoryRepo) DeleteBookmark(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookmarks[name]; !ok {
		return ports.ErrNotFound
	}
	delete(r.bookmarks, name)
	return nil
}

var testDay = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
