package services

import (
	"context"
	"fmt"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/obs"
	"trip-route-service/internal/ports"

	"golang.org/x/sync/errgroup"
)

const DefaultPlannerParallelism = 8

// NearestNeighborPlanner keeps the first stop fixed and repeatedly travels to
// the cheapest unvisited stop.
//
// Candidates of one round are estimated concurrently (bounded by parallelism)
// and the choice is made only once the whole round has answered. Ties go to the
// candidate that appears first in the input.
type NearestNeighborPlanner struct {
	costs       ports.TravelCostProvider
	parallelism int
}

func NewNearestNeighborPlanner(costs ports.TravelCostProvider, parallelism int) *NearestNeighborPlanner {
	if parallelism < 1 {
		parallelism = DefaultPlannerParallelism
	}
	return &NearestNeighborPlanner{costs: costs, parallelism: parallelism}
}

func (p *NearestNeighborPlanner) Plan(
	ctx context.Context,
	stops []domain.Stop,
	mode domain.TransportMode,
	optimizeFor domain.OptimizationMode,
) (_ *domain.RoutePlan, err error) {
	defer obs.Time(ctx, "planner.nearest_neighbor")(&err)

	if len(stops) < 2 {
		return trivialPlan(stops), nil
	}

	plan := &domain.RoutePlan{
		Order:    make([]domain.Stop, 0, len(stops)),
		LegModes: make([]domain.TransportMode, 0, len(stops)),
	}
	plan.Order = append(plan.Order, stops[0])
	plan.LegModes = append(plan.LegModes, domain.ModeNone)

	remaining := append([]domain.Stop(nil), stops[1:]...)
	current := stops[0]

	for len(remaining) > 0 {
		costs, err := p.round(ctx, current, remaining, mode, optimizeFor)
		if err != nil {
			return nil, fmt.Errorf("nearest neighbor: %w", err)
		}

		best := -1
		for i, c := range costs {
			if c == nil {
				continue
			}
			if best == -1 || c.Metric(optimizeFor) < costs[best].Metric(optimizeFor) {
				best = i
			}
		}

		if best == -1 {
			plan.Partial = true
			plan.Unvisited = remaining
			return plan, nil
		}

		next := remaining[best]
		plan.Order = append(plan.Order, next)
		plan.LegModes = append(plan.LegModes, costs[best].ModeUsed)
		plan.TotalDistanceMeters += costs[best].DistanceMeters
		plan.TotalDurationSeconds += costs[best].DurationSeconds

		remaining = append(remaining[:best], remaining[best+1:]...)
		current = next
	}

	return plan, nil
}

// round estimates current -> candidate for every candidate. A nil entry marks
// an unreachable candidate.
func (p *NearestNeighborPlanner) round(
	ctx context.Context,
	current domain.Stop,
	candidates []domain.Stop,
	mode domain.TransportMode,
	optimizeFor domain.OptimizationMode,
) ([]*domain.TravelCost, error) {
	out := make([]*domain.TravelCost, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)

	for i, cand := range candidates {
		g.Go(func() error {
			cost, err := p.costs.Estimate(gctx, current.Coords, cand.Coords, mode, optimizeFor)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return nil
			}
			out[i] = &cost
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
