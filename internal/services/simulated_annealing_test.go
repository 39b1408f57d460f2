package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"trip-route-service/internal/domain"
)

func lineStops() []domain.Stop {
	return []domain.Stop{
		stopAt("P0", 0),
		stopAt("P3", 3),
		stopAt("P1", 1),
		stopAt("P4", 4),
		stopAt("P2", 2),
	}
}

func TestSimulatedAnnealingImprovesOnInputOrder(t *testing.T) {
	stops := lineStops()
	costs := lineCosts()

	naive := 0.0
	for i := 1; i < len(stops); i++ {
		naive += math.Abs(stops[i].Coords.Lat-stops[i-1].Coords.Lat) * 100
	}

	planner := NewSimulatedAnnealingPlanner(costs, AnnealingOptions{Seed: 42})
	plan, err := planner.Plan(context.Background(), stops, domain.ModeDriving, domain.ByTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !isPermutation(plan.Order, stops) {
		t.Fatalf("order %v is not a permutation of the input", names(plan.Order))
	}
	if len(plan.LegModes) != len(plan.Order) || plan.LegModes[0] != domain.ModeNone {
		t.Fatalf("leg modes = %v", plan.LegModes)
	}
	if plan.TotalDurationSeconds > naive {
		t.Fatalf("duration = %v, worse than input order %v", plan.TotalDurationSeconds, naive)
	}
	// Monotone order along the line is optimal: 4 units.
	if plan.TotalDurationSeconds != 400 || plan.TotalDistanceMeters != 4000 {
		t.Fatalf("totals = %vs %vm, want 400s 4000m", plan.TotalDurationSeconds, plan.TotalDistanceMeters)
	}
	if plan.Degraded {
		t.Fatalf("plan unexpectedly degraded")
	}
}

func TestSimulatedAnnealingDeterministicWithSeed(t *testing.T) {
	stops := lineStops()
	a, err := NewSimulatedAnnealingPlanner(lineCosts(), AnnealingOptions{Seed: 9}).Plan(context.Background(), stops, domain.ModeWalking, domain.ByDistance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewSimulatedAnnealingPlanner(lineCosts(), AnnealingOptions{Seed: 9}).Plan(context.Background(), stops, domain.ModeWalking, domain.ByDistance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range a.Order {
		if a.Order[i].ID != b.Order[i].ID {
			t.Fatalf("runs differ: %v vs %v", names(a.Order), names(b.Order))
		}
	}
	for i := 1; i < len(a.LegModes); i++ {
		if a.LegModes[i] != domain.ModeWalking {
			t.Fatalf("leg %d mode = %s, want walking", i, a.LegModes[i])
		}
	}
}

func TestSimulatedAnnealingAvoidsUnreachableLeg(t *testing.T) {
	a := domain.NewStop("A", "", domain.Coordinates{Lat: 1, Lng: 1})
	b := domain.NewStop("B", "", domain.Coordinates{Lat: 2, Lng: 2})
	c := domain.NewStop("C", "", domain.Coordinates{Lat: 3, Lng: 3})

	costs := newTableCosts()
	costs.both(a, c, 10, 10)
	costs.both(b, c, 10, 10)

	plan, err := NewSimulatedAnnealingPlanner(costs, AnnealingOptions{Seed: 3}).Plan(context.Background(), []domain.Stop{a, b, c}, domain.ModeDriving, domain.ByTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Order[1].ID != c.ID {
		t.Fatalf("order = %v, want C in the middle", names(plan.Order))
	}
	if plan.TotalDurationSeconds != 20 {
		t.Fatalf("duration = %v, want 20", plan.TotalDurationSeconds)
	}
}

func TestSimulatedAnnealingDegradedWhenNothingReachable(t *testing.T) {
	stops := lineStops()
	costs := newTableCosts()

	plan, err := NewSimulatedAnnealingPlanner(costs, AnnealingOptions{Seed: 1}).Plan(context.Background(), stops, domain.ModeShuffle, domain.ByTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.Degraded {
		t.Fatalf("expected degraded plan")
	}
	for i := range stops {
		if plan.Order[i].ID != stops[i].ID {
			t.Fatalf("degraded order = %v, want input order", names(plan.Order))
		}
	}
	if plan.TotalDistanceMeters != 0 || plan.TotalDurationSeconds != 0 {
		t.Fatalf("degraded totals must be zero")
	}
	// Every directed pair is queried at most once per run.
	if costs.calls > len(stops)*(len(stops)-1) {
		t.Fatalf("unavailable legs re-queried: %d calls", costs.calls)
	}
}

func TestSimulatedAnnealingCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSimulatedAnnealingPlanner(lineCosts(), AnnealingOptions{Seed: 1}).Plan(ctx, lineStops(), domain.ModeDriving, domain.ByTime)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestAcceptMove(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		name      string
		cur, cand float64
		temp, r   float64
		want      bool
	}{
		{"better always", 10, 5, 1, 0.99, true},
		{"finite beats infinite", inf, 100, 1, 0.99, true},
		{"infinite never replaces infinite", inf, inf, 10000, 0, false},
		{"infinite candidate rejected", 10, inf, 10000, 0, false},
		{"worse accepted when hot", 10, 11, 10000, 0.5, true},
		{"worse rejected when cold", 10, 100, 1, 0.5, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := acceptMove(tc.cur, tc.cand, tc.temp, tc.r); got != tc.want {
				t.Fatalf("acceptMove(%v, %v, %v, %v) = %v, want %v", tc.cur, tc.cand, tc.temp, tc.r, got, tc.want)
			}
		})
	}
}

func TestSimulatedAnnealingReportsCostsSeenDuringSearch(t *testing.T) {
	stops := lineStops()
	line := lineCosts()

	// Only the legs of the input order are ever answered.
	calls := 0
	costs := costFunc(func(ctx context.Context, o, d domain.Coordinates, mode domain.TransportMode, opt domain.OptimizationMode) (domain.TravelCost, error) {
		calls++
		if calls >= len(stops) {
			return domain.TravelCost{}, ErrCostUnavailable
		}
		return line(ctx, o, d, mode, opt)
	})

	plan, err := NewSimulatedAnnealingPlanner(costs, AnnealingOptions{Seed: 5}).Plan(context.Background(), stops, domain.ModeDriving, domain.ByTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Degraded {
		t.Fatalf("plan unexpectedly degraded")
	}
	got, want := names(plan.Order), names(stops)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want input order %v", got, want)
		}
	}
	// Input order 0,3,1,4,2 spans 10 units.
	if plan.TotalDurationSeconds != 1000 || plan.TotalDistanceMeters != 10000 {
		t.Fatalf("totals = %vs %vm, want 1000s 10000m", plan.TotalDurationSeconds, plan.TotalDistanceMeters)
	}
	for i := 1; i < len(plan.LegModes); i++ {
		if plan.LegModes[i] != domain.ModeDriving {
			t.Fatalf("leg %d mode = %s, want driving", i, plan.LegModes[i])
		}
	}
}
