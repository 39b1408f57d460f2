package ports

import (
	"context"
	"trip-route-service/internal/domain"
)

// Persistent cache of routing results for one origin, keyed by destination
// Coordinates.Key().
type DistanceCache interface {
	GetMany(
		ctx context.Context,
		origin domain.Coordinates,
		mode domain.TransportMode,
		destinations []domain.Coordinates,
	) (map[string]DistanceResult, error)

	PutMany(
		ctx context.Context,
		origin domain.Coordinates,
		mode domain.TransportMode,
		results map[string]DistanceResult,
	) error
}
