package domain

// Represents the output of a planning run.
// Order is a permutation of the input stops; LegModes[i] is the mode used to
// reach Order[i] and LegModes[0] is always ModeNone.
//
// A Partial plan stopped early because no remaining stop was reachable;
// Unvisited lists the stops that were left out.
// A Degraded plan never found a fully reachable tour; Order is the input order
// and the totals are zero.
type RoutePlan struct {
	Order                []Stop
	LegModes             []TransportMode
	TotalDistanceMeters  float64
	TotalDurationSeconds float64
	Partial              bool
	Unvisited            []Stop
	Degraded             bool
}

// Serializable view of an optimized route.
type RouteSnapshot struct {
	OptimizedOrder       []Stop           `json:"optimizedOrder"`
	LegTransportModes    []TransportMode  `json:"legTransportModes"`
	TotalDistanceMeters  float64          `json:"totalDistanceMeters"`
	TotalDurationSeconds float64          `json:"totalDurationSeconds"`
	OptimizationMode     OptimizationMode `json:"optimizationMode"`
	TransportPreference  TransportMode    `json:"transportPreference"`
}
