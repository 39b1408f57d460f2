package services

import (
	"context"
	"fmt"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
)

const DefaultArrivalThresholdMeters = 75.0

// ProximityTracker advances an active route when the traveler gets close to
// the next stop.
type ProximityTracker struct {
	state     *RouteState
	costs     ports.TravelCostProvider
	threshold float64
}

func NewProximityTracker(state *RouteState, costs ports.TravelCostProvider, thresholdMeters float64) *ProximityTracker {
	if thresholdMeters <= 0 {
		thresholdMeters = DefaultArrivalThresholdMeters
	}
	return &ProximityTracker{state: state, costs: costs, threshold: thresholdMeters}
}

type PositionUpdate struct {
	// The update was ignored because no route is being travelled.
	Skipped        bool
	TargetIndex    int
	DistanceMeters float64
	Advanced       bool
	Completed      bool
}

// OnPositionUpdate checks the distance from position to the next stop,
// measured along the leg's recorded transport mode, and advances by at most
// one stop. A failed estimate leaves the state untouched.
func (t *ProximityTracker) OnPositionUpdate(ctx context.Context, position domain.Coordinates) (PositionUpdate, error) {
	target, ok := t.state.NextTarget()
	if !ok {
		return PositionUpdate{Skipped: true}, nil
	}

	cost, err := t.costs.Estimate(ctx, position, target.Stop.Coords, target.Mode.Effective(), domain.ByDistance)
	if err != nil {
		return PositionUpdate{TargetIndex: target.Index}, fmt.Errorf("position update: %w", err)
	}

	out := PositionUpdate{TargetIndex: target.Index, DistanceMeters: cost.DistanceMeters}
	if cost.DistanceMeters < t.threshold {
		out.Advanced, out.Completed = t.state.AdvanceFrom(target)
	}
	return out, nil
}
