package ports

import (
	"context"
	"errors"
	"trip-route-service/internal/domain"
)

// Returned when the routing backend has no route between two points for a mode.
var ErrNoRoute = errors.New("no route between locations")

// Distance and travel duration between two locations.
type DistanceResult struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Contract for retrieving travel distance and duration between locations.
type DistanceProvider interface {
	// Return travel distance and estimated duration for a single concrete mode.
	GetDistance(ctx context.Context, origin, destination domain.Coordinates, mode domain.TransportMode) (DistanceResult, error)
}
