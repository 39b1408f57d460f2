package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
)

const DefaultCostQueryTimeout = 10 * time.Second

// TravelCostEstimator implements ports.TravelCostProvider on top of a
// single-mode DistanceProvider.
//
// In shuffle mode every concrete mode is queried in ConcreteModes order and the
// cheapest result under the requested metric wins; ties keep the earlier mode.
// Modes that fail or time out are skipped.
type TravelCostEstimator struct {
	provider ports.DistanceProvider
	timeout  time.Duration
}

func NewTravelCostEstimator(provider ports.DistanceProvider, perModeTimeout time.Duration) *TravelCostEstimator {
	if perModeTimeout <= 0 {
		perModeTimeout = DefaultCostQueryTimeout
	}
	return &TravelCostEstimator{provider: provider, timeout: perModeTimeout}
}

func (e *TravelCostEstimator) Estimate(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TransportMode,
	optimizeFor domain.OptimizationMode,
) (domain.TravelCost, error) {
	modes := []domain.TransportMode{mode}
	if mode.Effective() == domain.ModeShuffle {
		modes = domain.ConcreteModes
	}

	var (
		best  domain.TravelCost
		found bool
		errs  []error
	)

	for _, m := range modes {
		if err := ctx.Err(); err != nil {
			return domain.TravelCost{}, err
		}

		res, err := e.query(ctx, origin, destination, m)
		if err != nil {
			// Cancellation of the caller is not the same as an unreachable leg.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return domain.TravelCost{}, ctxErr
			}
			errs = append(errs, fmt.Errorf("%s: %w", m, err))
			continue
		}

		cost := domain.TravelCost{
			DistanceMeters:  res.DistanceMeters,
			DurationSeconds: res.DurationSeconds,
			ModeUsed:        m,
		}
		if !found || cost.Metric(optimizeFor) < best.Metric(optimizeFor) {
			best = cost
			found = true
		}
	}

	if !found {
		return domain.TravelCost{}, fmt.Errorf(
			"estimate %s -> %s mode=%s: %w",
			origin, destination, mode, errors.Join(append([]error{ErrCostUnavailable}, errs...)...),
		)
	}

	return best, nil
}

func (e *TravelCostEstimator) query(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TransportMode,
) (ports.DistanceResult, error) {
	qctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.provider.GetDistance(qctx, origin, destination, mode)
	if err != nil {
		return ports.DistanceResult{}, err
	}

	if invalidMeasure(res.DistanceMeters) || invalidMeasure(res.DurationSeconds) {
		return ports.DistanceResult{}, fmt.Errorf("invalid result distance=%v duration=%v", res.DistanceMeters, res.DurationSeconds)
	}
	return res, nil
}

func invalidMeasure(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}
