package domain

import (
	"fmt"
	"strings"
)

// Means of travel for a single leg.
type TransportMode string

const (
	// Sentinel for leg 0, which has no inbound travel.
	ModeNone      TransportMode = "none"
	ModeDriving   TransportMode = "driving"
	ModeWalking   TransportMode = "walking"
	ModeBicycling TransportMode = "bicycling"
	ModeTransit   TransportMode = "transit"
	// Query every concrete mode and keep the best.
	ModeShuffle TransportMode = "shuffle"
)

// Concrete modes in the order they are queried when shuffling.
var ConcreteModes = []TransportMode{ModeDriving, ModeWalking, ModeBicycling, ModeTransit}

func (m TransportMode) IsConcrete() bool {
	switch m {
	case ModeDriving, ModeWalking, ModeBicycling, ModeTransit:
		return true
	}
	return false
}

// ParseTransportMode accepts a transport preference (a concrete mode or shuffle).
func ParseTransportMode(s string) (TransportMode, error) {
	m := TransportMode(strings.ToLower(strings.TrimSpace(s)))
	if m.IsConcrete() || m == ModeShuffle {
		return m, nil
	}
	return "", fmt.Errorf("parse transport mode: unknown mode %q", s)
}

// Metric minimized by the planners.
type OptimizationMode string

const (
	ByTime     OptimizationMode = "time"
	ByDistance OptimizationMode = "distance"
)

func ParseOptimizationMode(s string) (OptimizationMode, error) {
	switch m := OptimizationMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ByTime, ByDistance:
		return m, nil
	}
	return "", fmt.Errorf("parse optimization mode: unknown mode %q", s)
}

// Estimated cost of travelling one directed leg.
type TravelCost struct {
	DistanceMeters  float64
	DurationSeconds float64
	ModeUsed        TransportMode
}

// Metric returns the value minimized under the given optimization mode.
func (c TravelCost) Metric(opt OptimizationMode) float64 {
	if opt == ByDistance {
		return c.DistanceMeters
	}
	return c.DurationSeconds
}

// Effective maps the leg-0 sentinel and unset modes to ModeShuffle so that
// any stored leg can be re-estimated.
func (m TransportMode) Effective() TransportMode {
	if m.IsConcrete() {
		return m
	}
	return ModeShuffle
}
