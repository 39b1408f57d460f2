package services

import "errors"

var (
	// No transport mode produced a usable estimate for a leg.
	ErrCostUnavailable = errors.New("travel cost unavailable")

	// Nearest-neighbour planning stopped before visiting every stop.
	ErrDegenerateTour = errors.New("route could not reach every stop")
	// Annealing never found a tour whose legs are all reachable.
	ErrRouteUnavailable = errors.New("no fully reachable route")

	ErrOptimizationInProgress = errors.New("optimization already in progress")
	// The route changed while the optimization was running; its result was dropped.
	ErrOptimizationDiscarded = errors.New("optimization result discarded")

	ErrStopIndexOutOfRange = errors.New("stop index out of range")
	ErrStopNotFound        = errors.New("stop not found")
	ErrNoOptimizedRoute    = errors.New("route has not been optimized")
	ErrRouteNotActive      = errors.New("route is not active")
	ErrInvalidSnapshot     = errors.New("invalid route snapshot")
	ErrInvalidTransport    = errors.New("invalid transport preference")
	ErrInvalidBookmark     = errors.New("invalid bookmark")
	ErrSessionNotFound     = errors.New("session not found")
)
