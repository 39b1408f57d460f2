package ports

import (
	"context"
	"trip-route-service/internal/domain"
)

// Estimates the cost of one directed leg under a transport preference.
// mode may be a concrete mode or ModeShuffle; optimizeFor selects which
// metric decides between modes when shuffling.
type TravelCostProvider interface {
	Estimate(
		ctx context.Context,
		origin domain.Coordinates,
		destination domain.Coordinates,
		mode domain.TransportMode,
		optimizeFor domain.OptimizationMode,
	) (domain.TravelCost, error)
}
