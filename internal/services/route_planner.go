package services

import (
	"context"
	"math"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
)

// RoutePlanner orders a list of stops.
//
// Implementations return a plan whose Order is a permutation of stops and
// whose LegModes has the same length with LegModes[0] == ModeNone. Errors are
// reserved for cancellation; unreachable legs are reported through the
// Partial and Degraded flags of the plan.
type RoutePlanner interface {
	Plan(
		ctx context.Context,
		stops []domain.Stop,
		mode domain.TransportMode,
		optimizeFor domain.OptimizationMode,
	) (*domain.RoutePlan, error)
}

// Plans for zero or one stop need no travel data.
func trivialPlan(stops []domain.Stop) *domain.RoutePlan {
	plan := &domain.RoutePlan{
		Order:    append([]domain.Stop(nil), stops...),
		LegModes: make([]domain.TransportMode, len(stops)),
	}
	for i := range plan.LegModes {
		plan.LegModes[i] = domain.ModeNone
	}
	return plan
}

// legEvaluator estimates legs for a single planning run and remembers which
// legs were unavailable so they are not queried again within the run.
type legEvaluator struct {
	costs       ports.TravelCostProvider
	mode        domain.TransportMode
	optimizeFor domain.OptimizationMode
	unavailable map[string]struct{}
}

func newLegEvaluator(costs ports.TravelCostProvider, mode domain.TransportMode, optimizeFor domain.OptimizationMode) *legEvaluator {
	return &legEvaluator{
		costs:       costs,
		mode:        mode,
		optimizeFor: optimizeFor,
		unavailable: make(map[string]struct{}),
	}
}

// leg returns ok=false for an unreachable leg. err is only set on cancellation.
func (e *legEvaluator) leg(ctx context.Context, from, to domain.Stop) (domain.TravelCost, bool, error) {
	key := from.Coords.Key() + "->" + to.Coords.Key()
	if _, bad := e.unavailable[key]; bad {
		return domain.TravelCost{}, false, nil
	}

	cost, err := e.costs.Estimate(ctx, from.Coords, to.Coords, e.mode, e.optimizeFor)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.TravelCost{}, false, ctxErr
		}
		e.unavailable[key] = struct{}{}
		return domain.TravelCost{}, false, nil
	}
	return cost, true, nil
}

// tourMetric sums the optimized metric over consecutive legs; +Inf when any leg
// is unreachable. When legs is non-nil, legs[i] receives the cost of the leg
// ending at order[i].
func (e *legEvaluator) tourMetric(ctx context.Context, order []domain.Stop, legs []domain.TravelCost) (float64, error) {
	total := 0.0
	for i := 1; i < len(order); i++ {
		cost, ok, err := e.leg(ctx, order[i-1], order[i])
		if err != nil {
			return 0, err
		}
		if !ok {
			return math.Inf(1), nil
		}
		if legs != nil {
			legs[i] = cost
		}
		total += cost.Metric(e.optimizeFor)
	}
	return total, nil
}
