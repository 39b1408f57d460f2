package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/obs"
	"trip-route-service/internal/ports"
)

type AnnealingOptions struct {
	InitialTemperature float64
	CoolingRate        float64
	// Annealing stops once the temperature is no longer above this value.
	MinTemperature float64
	// Zero seeds from the clock.
	Seed int64
}

func DefaultAnnealingOptions() AnnealingOptions {
	return AnnealingOptions{
		InitialTemperature: 10000,
		CoolingRate:        0.003,
		MinTemperature:     1,
	}
}

// SimulatedAnnealingPlanner searches over full permutations of the stops,
// starting from the input order. A neighbour swaps two distinct positions
// chosen uniformly at random. Tours with an unreachable leg cost +Inf.
type SimulatedAnnealingPlanner struct {
	costs ports.TravelCostProvider
	opts  AnnealingOptions
}

func NewSimulatedAnnealingPlanner(costs ports.TravelCostProvider, opts AnnealingOptions) *SimulatedAnnealingPlanner {
	def := DefaultAnnealingOptions()
	if opts.InitialTemperature <= 0 {
		opts.InitialTemperature = def.InitialTemperature
	}
	if opts.CoolingRate <= 0 || opts.CoolingRate >= 1 {
		opts.CoolingRate = def.CoolingRate
	}
	if opts.MinTemperature <= 0 {
		opts.MinTemperature = def.MinTemperature
	}
	return &SimulatedAnnealingPlanner{costs: costs, opts: opts}
}

func (p *SimulatedAnnealingPlanner) Plan(
	ctx context.Context,
	stops []domain.Stop,
	mode domain.TransportMode,
	optimizeFor domain.OptimizationMode,
) (_ *domain.RoutePlan, err error) {
	defer obs.Time(ctx, "planner.simulated_annealing")(&err)

	if len(stops) < 2 {
		return trivialPlan(stops), nil
	}

	seed := p.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	eval := newLegEvaluator(p.costs, mode, optimizeFor)

	n := len(stops)
	current := append([]domain.Stop(nil), stops...)
	currentLegs := make([]domain.TravelCost, n)
	currentCost, err := eval.tourMetric(ctx, current, currentLegs)
	if err != nil {
		return nil, fmt.Errorf("simulated annealing: %w", err)
	}

	best := append([]domain.Stop(nil), current...)
	bestLegs := append([]domain.TravelCost(nil), currentLegs...)
	bestCost := currentCost

	candidate := make([]domain.Stop, n)
	candidateLegs := make([]domain.TravelCost, n)

	for temp := p.opts.InitialTemperature; temp > p.opts.MinTemperature; temp *= 1 - p.opts.CoolingRate {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulated annealing: %w", err)
		}

		i := rng.Intn(n)
		j := rng.Intn(n - 1)
		if j >= i {
			j++
		}

		copy(candidate, current)
		candidate[i], candidate[j] = candidate[j], candidate[i]

		candidateCost, err := eval.tourMetric(ctx, candidate, candidateLegs)
		if err != nil {
			return nil, fmt.Errorf("simulated annealing: %w", err)
		}

		if acceptMove(currentCost, candidateCost, temp, rng.Float64()) {
			copy(current, candidate)
			copy(currentLegs, candidateLegs)
			currentCost = candidateCost
		}

		if currentCost < bestCost {
			copy(best, current)
			copy(bestLegs, currentLegs)
			bestCost = currentCost
		}
	}

	if math.IsInf(bestCost, 1) {
		plan := trivialPlan(stops)
		for i := 1; i < len(plan.LegModes); i++ {
			plan.LegModes[i] = mode.Effective()
		}
		plan.Degraded = true
		return plan, nil
	}

	return describeTour(best, bestLegs), nil
}

// acceptMove applies the Metropolis criterion. An infinite current cost never
// accepts another infinite candidate.
func acceptMove(currentCost, candidateCost, temp, r float64) bool {
	if candidateCost < currentCost {
		return true
	}
	delta := currentCost - candidateCost
	if math.IsNaN(delta) {
		return false
	}
	return math.Exp(delta/temp) > r
}

// describeTour builds the plan from the leg costs recorded while searching,
// so the reported totals are exactly those of the accepted tour.
func describeTour(order []domain.Stop, legs []domain.TravelCost) *domain.RoutePlan {
	plan := &domain.RoutePlan{
		Order:    order,
		LegModes: make([]domain.TransportMode, len(order)),
	}
	plan.LegModes[0] = domain.ModeNone

	for i := 1; i < len(order); i++ {
		plan.LegModes[i] = legs[i].ModeUsed
		plan.TotalDistanceMeters += legs[i].DistanceMeters
		plan.TotalDurationSeconds += legs[i].DurationSeconds
	}
	return plan
}
