package services

import (
	"context"
	"errors"
	"testing"
	"trip-route-service/internal/domain"
)

func TestNearestNeighborPlan(t *testing.T) {
	a := domain.NewStop(domain.CurrentLocationName, "", domain.Coordinates{Lat: 1, Lng: 1})
	b := domain.NewStop("B", "", domain.Coordinates{Lat: 2, Lng: 2})
	c := domain.NewStop("C", "", domain.Coordinates{Lat: 3, Lng: 3})

	costs := newTableCosts()
	costs.both(a, b, 10, 10)
	costs.both(a, c, 5, 5)
	costs.both(c, b, 10, 10)

	planner := NewNearestNeighborPlanner(costs, 2)
	plan, err := planner.Plan(context.Background(), []domain.Stop{a, b, c}, domain.ModeDriving, domain.ByTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := names(plan.Order)
	want := []string{domain.CurrentLocationName, "C", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	if plan.TotalDurationSeconds != 15 {
		t.Fatalf("duration = %v, want 15", plan.TotalDurationSeconds)
	}
	if plan.TotalDistanceMeters != 15 {
		t.Fatalf("distance = %v, want 15", plan.TotalDistanceMeters)
	}
	if len(plan.LegModes) != 3 || plan.LegModes[0] != domain.ModeNone || plan.LegModes[1] != domain.ModeDriving {
		t.Fatalf("leg modes = %v", plan.LegModes)
	}
	if plan.Partial {
		t.Fatalf("plan unexpectedly partial")
	}
}

func TestNearestNeighborGreedyOrders(t *testing.T) {
	a := domain.NewStop(domain.CurrentLocationName, "", domain.Coordinates{Lat: 1, Lng: 1})
	b := domain.NewStop("B", "", domain.Coordinates{Lat: 2, Lng: 2})
	c := domain.NewStop("C", "", domain.Coordinates{Lat: 3, Lng: 3})

	tests := []struct {
		name      string
		ab, ac    float64
		bc        float64
		wantOrder []string
		wantTotal float64
	}{
		{"nearest first then remaining", 10, 50, 5, []string{domain.CurrentLocationName, "B", "C"}, 15},
		{"closer second stop wins", 50, 10, 5, []string{domain.CurrentLocationName, "C", "B"}, 15},
		{"greedy ignores a shorter full tour", 10, 12, 100, []string{domain.CurrentLocationName, "B", "C"}, 110},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			costs := newTableCosts()
			costs.both(a, b, tt.ab, tt.ab)
			costs.both(a, c, tt.ac, tt.ac)
			costs.both(b, c, tt.bc, tt.bc)

			plan, err := NewNearestNeighborPlanner(costs, 2).Plan(context.Background(), []domain.Stop{a, b, c}, domain.ModeDriving, domain.ByTime)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := names(plan.Order)
			for i := range tt.wantOrder {
				if got[i] != tt.wantOrder[i] {
					t.Fatalf("order = %v, want %v", got, tt.wantOrder)
				}
			}
			if plan.TotalDurationSeconds != tt.wantTotal || plan.TotalDistanceMeters != tt.wantTotal {
				t.Fatalf("totals = %v s / %v m, want %v", plan.TotalDurationSeconds, plan.TotalDistanceMeters, tt.wantTotal)
			}
			if plan.Partial {
				t.Fatalf("plan unexpectedly partial")
			}
		})
	}
}

func TestNearestNeighborTieGoesToFirstCandidate(t *testing.T) {
	a := domain.NewStop(domain.CurrentLocationName, "", domain.Coordinates{Lat: 1, Lng: 1})
	b := domain.NewStop("B", "", domain.Coordinates{Lat: 2, Lng: 2})
	c := domain.NewStop("C", "", domain.Coordinates{Lat: 3, Lng: 3})

	costs := newTableCosts()
	costs.both(a, b, 5, 5)
	costs.both(a, c, 5, 5)
	costs.both(b, c, 1, 1)

	plan, err := NewNearestNeighborPlanner(costs, 4).Plan(context.Background(), []domain.Stop{a, b, c}, domain.ModeDriving, domain.ByDistance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Order[1].Name != "B" {
		t.Fatalf("second stop = %s, want B", plan.Order[1].Name)
	}
}

func TestNearestNeighborPartialWhenUnreachable(t *testing.T) {
	a := domain.NewStop(domain.CurrentLocationName, "", domain.Coordinates{Lat: 1, Lng: 1})
	b := domain.NewStop("B", "", domain.Coordinates{Lat: 2, Lng: 2})
	c := domain.NewStop("Island", "", domain.Coordinates{Lat: 3, Lng: 3})

	costs := newTableCosts()
	costs.both(a, b, 5, 5)

	plan, err := NewNearestNeighborPlanner(costs, 4).Plan(context.Background(), []domain.Stop{a, b, c}, domain.ModeShuffle, domain.ByTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.Partial {
		t.Fatalf("expected partial plan")
	}
	if len(plan.Order) != 2 || len(plan.Unvisited) != 1 || plan.Unvisited[0].ID != c.ID {
		t.Fatalf("order=%v unvisited=%v", names(plan.Order), names(plan.Unvisited))
	}
	if len(plan.LegModes) != len(plan.Order) {
		t.Fatalf("leg modes %d for %d stops", len(plan.LegModes), len(plan.Order))
	}
}

func TestNearestNeighborCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stops := []domain.Stop{stopAt(domain.CurrentLocationName, 0), stopAt("B", 1), stopAt("C", 2)}
	_, err := NewNearestNeighborPlanner(lineCosts(), 2).Plan(ctx, stops, domain.ModeDriving, domain.ByTime)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestNearestNeighborSingleStop(t *testing.T) {
	plan, err := NewNearestNeighborPlanner(lineCosts(), 2).Plan(context.Background(), []domain.Stop{stopAt("A", 0)}, domain.ModeDriving, domain.ByTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Order) != 1 || plan.LegModes[0] != domain.ModeNone {
		t.Fatalf("plan = %+v", plan)
	}
}
