package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/obs"
	"trip-route-service/internal/ports"
)

type EventType string

const (
	EventStopsChanged EventType = "stops_changed"
	EventOptimized    EventType = "optimized"
	EventStarted      EventType = "started"
	EventAdvanced     EventType = "advanced"
	EventCompleted    EventType = "completed"
	EventCleared      EventType = "cleared"
	EventRestored     EventType = "restored"
)

// RouteEvent describes a change of a RouteState, as seen right after it happened.
type RouteEvent struct {
	Type         EventType
	Snapshot     domain.RouteSnapshot
	CurrentIndex int
	Active       bool
	At           time.Time
}

type RouteStateConfig struct {
	// Uncached estimator; RouteState wraps it in its own CostCache.
	Costs         ports.TravelCostProvider
	CostCacheTTL  time.Duration
	Parallelism   int
	AnnealingOpts AnnealingOptions
}

// RouteState owns the stops of one trip, its optimized order and the
// traveler's progress along it.
//
// All methods are safe for concurrent use. Every change of the route bumps an
// internal version; an optimization started against an older version is
// discarded instead of applied. Subscribers are called after the state lock
// has been released, in subscription order.
type RouteState struct {
	mu sync.Mutex

	pending       []domain.Stop
	order         []domain.Stop
	legModes      []domain.TransportMode
	totalDistance float64
	totalDuration float64
	currentIndex  int
	optimizeFor   domain.OptimizationMode
	preference    domain.TransportMode
	active        bool

	version    uint64
	optimizing bool

	cache     *CostCache
	nearest   RoutePlanner
	annealing RoutePlanner

	subsMu  sync.Mutex
	subs    map[int]func(RouteEvent)
	nextSub int

	now func() time.Time
}

func NewRouteState(cfg RouteStateConfig) *RouteState {
	costCache := NewCostCache(cfg.Costs, cfg.CostCacheTTL)

	return &RouteState{
		currentIndex: 1,
		optimizeFor:  domain.ByTime,
		preference:   domain.ModeShuffle,
		cache:        costCache,
		nearest:      NewNearestNeighborPlanner(costCache, cfg.Parallelism),
		annealing:    NewSimulatedAnnealingPlanner(costCache, cfg.AnnealingOpts),
		subs:         make(map[int]func(RouteEvent)),
		now:          time.Now,
	}
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it.
func (s *RouteState) Subscribe(fn func(RouteEvent)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *RouteState) publish(ev RouteEvent) {
	s.subsMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	s.subsMu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		s.subsMu.Lock()
		fn, ok := s.subs[id]
		s.subsMu.Unlock()
		if ok {
			fn(ev)
		}
	}
}

// Must hold s.mu.
func (s *RouteState) eventLocked(t EventType) RouteEvent {
	return RouteEvent{
		Type:         t,
		Snapshot:     s.snapshotLocked(),
		CurrentIndex: s.currentIndex,
		Active:       s.active,
		At:           s.now(),
	}
}

// Must hold s.mu. Drops the optimized route after the pending stops changed.
func (s *RouteState) invalidateRouteLocked() {
	s.order = nil
	s.legModes = nil
	s.totalDistance = 0
	s.totalDuration = 0
	s.currentIndex = 1
	s.active = false
	s.version++
}

// AddStop appends a stop to the pending list. Duplicates are allowed.
func (s *RouteState) AddStop(stop domain.Stop) {
	s.mu.Lock()
	s.pending = append(s.pending, stop)
	s.invalidateRouteLocked()
	ev := s.eventLocked(EventStopsChanged)
	s.mu.Unlock()

	s.publish(ev)
}

// RemoveStop removes the pending stop at index. Out-of-range indexes leave the
// list untouched.
func (s *RouteState) RemoveStop(index int) (domain.Stop, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.pending) {
		n := len(s.pending)
		s.mu.Unlock()
		return domain.Stop{}, fmt.Errorf("remove stop %d of %d: %w", index, n, ErrStopIndexOutOfRange)
	}
	removed, ev := s.removeAtLocked(index)
	s.mu.Unlock()

	s.publish(ev)
	return removed, nil
}

func (s *RouteState) RemoveStopByID(id string) (domain.Stop, error) {
	s.mu.Lock()
	index := slices.IndexFunc(s.pending, func(st domain.Stop) bool { return st.ID == id })
	if index == -1 {
		s.mu.Unlock()
		return domain.Stop{}, fmt.Errorf("remove stop id=%q: %w", id, ErrStopNotFound)
	}
	removed, ev := s.removeAtLocked(index)
	s.mu.Unlock()

	s.publish(ev)
	return removed, nil
}

// Must hold s.mu.
func (s *RouteState) removeAtLocked(index int) (domain.Stop, RouteEvent) {
	removed := s.pending[index]
	s.pending = slices.Delete(slices.Clone(s.pending), index, index+1)
	s.invalidateRouteLocked()
	return removed, s.eventLocked(EventStopsChanged)
}

type StopMatch struct {
	Index int
	Stop  domain.Stop
}

// FindStops returns every pending stop whose name contains query,
// case-insensitively. Callers decide between several matches.
func (s *RouteState) FindStops(query string) []StopMatch {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []StopMatch
	for i, st := range s.pending {
		if strings.Contains(strings.ToLower(st.Name), q) {
			out = append(out, StopMatch{Index: i, Stop: st})
		}
	}
	return out
}

// ReplaceStops swaps in a new pending list, e.g. from a bookmark.
func (s *RouteState) ReplaceStops(stops []domain.Stop) {
	s.mu.Lock()
	s.pending = append([]domain.Stop(nil), stops...)
	s.invalidateRouteLocked()
	ev := s.eventLocked(EventStopsChanged)
	s.mu.Unlock()

	s.publish(ev)
}

// Clear resets the state to its initial values, including the preferences,
// and invalidates any optimization in flight.
func (s *RouteState) Clear() {
	s.mu.Lock()
	s.pending = nil
	s.invalidateRouteLocked()
	s.optimizeFor = domain.ByTime
	s.preference = domain.ModeShuffle
	ev := s.eventLocked(EventCleared)
	s.mu.Unlock()

	s.cache.Reset()
	s.publish(ev)
}

func (s *RouteState) SetOptimizationMode(m domain.OptimizationMode) error {
	if m != domain.ByTime && m != domain.ByDistance {
		return fmt.Errorf("set optimization mode %q: unknown mode", m)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.optimizeFor != m {
		s.optimizeFor = m
		s.version++
	}
	return nil
}

func (s *RouteState) SetTransportPreference(m domain.TransportMode) error {
	if !m.IsConcrete() && m != domain.ModeShuffle {
		return fmt.Errorf("set transport preference %q: %w", m, ErrInvalidTransport)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preference != m {
		s.preference = m
		s.version++
	}
	return nil
}

// Optimize orders the pending stops.
//
// With fewer than two stops it does nothing and returns (nil, nil). A route
// starting at the traveler's current location is planned with the
// nearest-neighbour heuristic and any other route with simulated annealing.
// Plans that are partial or degraded are returned together with
// ErrDegenerateTour or ErrRouteUnavailable and are not applied.
func (s *RouteState) Optimize(ctx context.Context) (_ *domain.RoutePlan, err error) {
	defer obs.Time(ctx, "route.optimize")(&err)

	s.mu.Lock()
	if s.optimizing {
		s.mu.Unlock()
		return nil, ErrOptimizationInProgress
	}
	if len(s.pending) < 2 {
		s.mu.Unlock()
		return nil, nil
	}

	stops := append([]domain.Stop(nil), s.pending...)
	mode := s.preference
	optimizeFor := s.optimizeFor
	planner := s.annealing
	if stops[0].IsCurrentLocation() {
		planner = s.nearest
	}
	tag := s.version
	s.optimizing = true
	s.mu.Unlock()

	s.cache.Reset()
	plan, planErr := planner.Plan(ctx, stops, mode, optimizeFor)

	s.mu.Lock()
	s.optimizing = false
	switch {
	case planErr != nil:
		s.mu.Unlock()
		return nil, fmt.Errorf("optimize route: %w", planErr)
	case s.version != tag:
		s.mu.Unlock()
		return nil, ErrOptimizationDiscarded
	case plan.Partial:
		s.mu.Unlock()
		return plan, fmt.Errorf("optimize route: %d of %d stops unreachable: %w", len(plan.Unvisited), len(stops), ErrDegenerateTour)
	case plan.Degraded:
		s.mu.Unlock()
		return plan, fmt.Errorf("optimize route: %w", ErrRouteUnavailable)
	}

	s.pending = append([]domain.Stop(nil), plan.Order...)
	s.order = append([]domain.Stop(nil), plan.Order...)
	s.legModes = append([]domain.TransportMode(nil), plan.LegModes...)
	s.totalDistance = plan.TotalDistanceMeters
	s.totalDuration = plan.TotalDurationSeconds
	s.currentIndex = 1
	s.active = false
	s.version++
	ev := s.eventLocked(EventOptimized)
	s.mu.Unlock()

	s.publish(ev)
	return plan, nil
}

// Start marks the optimized route as being travelled. Starting a finished
// route starts it over.
func (s *RouteState) Start() error {
	s.mu.Lock()
	if s.optimizing {
		s.mu.Unlock()
		return ErrOptimizationInProgress
	}
	if len(s.order) < 2 {
		s.mu.Unlock()
		return ErrNoOptimizedRoute
	}
	if s.currentIndex >= len(s.order) {
		s.currentIndex = 1
	}
	s.active = true
	s.version++
	ev := s.eventLocked(EventStarted)
	s.mu.Unlock()

	s.publish(ev)
	return nil
}

// Target is the next stop of an active route, with the state version it was
// read at.
type Target struct {
	Version uint64
	Index   int
	Stop    domain.Stop
	Mode    domain.TransportMode
}

// NextTarget reports the stop the traveler is heading to. ok is false when the
// route is not active, already finished, or being re-optimized.
func (s *RouteState) NextTarget() (Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || s.optimizing || s.currentIndex >= len(s.order) {
		return Target{}, false
	}

	return Target{
		Version: s.version,
		Index:   s.currentIndex,
		Stop:    s.order[s.currentIndex],
		Mode:    s.legModes[s.currentIndex],
	}, true
}

// AdvanceFrom moves to the next stop only if the state is still exactly as it
// was when t was read. Reaching the end deactivates the route and emits a
// single completed event.
func (s *RouteState) AdvanceFrom(t Target) (advanced bool, completed bool) {
	s.mu.Lock()
	if s.version != t.Version || s.currentIndex != t.Index || !s.active || s.optimizing {
		s.mu.Unlock()
		return false, false
	}

	s.currentIndex++
	s.version++
	evType := EventAdvanced
	if s.currentIndex >= len(s.order) {
		s.active = false
		evType = EventCompleted
	}
	ev := s.eventLocked(evType)
	s.mu.Unlock()

	s.publish(ev)
	return true, evType == EventCompleted
}

// Must hold s.mu.
func (s *RouteState) snapshotLocked() domain.RouteSnapshot {
	return domain.RouteSnapshot{
		OptimizedOrder:       append([]domain.Stop(nil), s.order...),
		LegTransportModes:    append([]domain.TransportMode(nil), s.legModes...),
		TotalDistanceMeters:  s.totalDistance,
		TotalDurationSeconds: s.totalDuration,
		OptimizationMode:     s.optimizeFor,
		TransportPreference:  s.preference,
	}
}

func (s *RouteState) Snapshot() domain.RouteSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Restore replaces the route with a previously exported snapshot. The pending
// list becomes the snapshot order and progress restarts at the first leg.
func (s *RouteState) Restore(snap domain.RouteSnapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}

	s.mu.Lock()
	s.pending = append([]domain.Stop(nil), snap.OptimizedOrder...)
	s.order = append([]domain.Stop(nil), snap.OptimizedOrder...)
	s.legModes = append([]domain.TransportMode(nil), snap.LegTransportModes...)
	s.totalDistance = snap.TotalDistanceMeters
	s.totalDuration = snap.TotalDurationSeconds
	s.optimizeFor = snap.OptimizationMode
	s.preference = snap.TransportPreference
	s.currentIndex = 1
	s.active = false
	s.version++
	ev := s.eventLocked(EventRestored)
	s.mu.Unlock()

	s.publish(ev)
	return nil
}

func validateSnapshot(snap domain.RouteSnapshot) error {
	if len(snap.OptimizedOrder) != len(snap.LegTransportModes) {
		return fmt.Errorf("%w: %d stops but %d leg modes", ErrInvalidSnapshot, len(snap.OptimizedOrder), len(snap.LegTransportModes))
	}
	seen := make(map[string]struct{}, len(snap.OptimizedOrder))
	for i, st := range snap.OptimizedOrder {
		if st.ID == "" {
			return fmt.Errorf("%w: stop %d has no id", ErrInvalidSnapshot, i)
		}
		if _, dup := seen[st.ID]; dup {
			return fmt.Errorf("%w: duplicate stop id %q", ErrInvalidSnapshot, st.ID)
		}
		seen[st.ID] = struct{}{}
		if !st.Coords.Valid() {
			return fmt.Errorf("%w: stop %d has invalid coordinates %s", ErrInvalidSnapshot, i, st.Coords)
		}
	}
	if len(snap.LegTransportModes) > 0 && snap.LegTransportModes[0] != domain.ModeNone {
		return fmt.Errorf("%w: first leg mode must be %q", ErrInvalidSnapshot, domain.ModeNone)
	}
	for i, m := range snap.LegTransportModes {
		if i > 0 && !m.IsConcrete() && m != domain.ModeShuffle {
			return fmt.Errorf("%w: leg %d has mode %q", ErrInvalidSnapshot, i, m)
		}
	}
	if snap.OptimizationMode != domain.ByTime && snap.OptimizationMode != domain.ByDistance {
		return fmt.Errorf("%w: optimization mode %q", ErrInvalidSnapshot, snap.OptimizationMode)
	}
	if !snap.TransportPreference.IsConcrete() && snap.TransportPreference != domain.ModeShuffle {
		return fmt.Errorf("%w: transport preference %q", ErrInvalidSnapshot, snap.TransportPreference)
	}
	return nil
}

// RouteView is a consistent copy of everything a client needs to render the trip.
type RouteView struct {
	PendingStops []domain.Stop
	Snapshot     domain.RouteSnapshot
	CurrentIndex int
	Active       bool
	Optimizing   bool
}

func (s *RouteState) View() RouteView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return RouteView{
		PendingStops: append([]domain.Stop(nil), s.pending...),
		Snapshot:     s.snapshotLocked(),
		CurrentIndex: s.currentIndex,
		Active:       s.active,
		Optimizing:   s.optimizing,
	}
}
