package dto

import (
	"time"
	"trip-route-service/internal/domain"
)

type CreateSessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

type AddStopRequest struct {
	Name      string  `json:"name"`
	Direction string  `json:"direction"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

type StopResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Direction string  `json:"direction,omitempty"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

type StopMatchResponse struct {
	Index int          `json:"index"`
	Stop  StopResponse `json:"stop"`
}

type FindStopsResponse struct {
	Matches []StopMatchResponse `json:"matches"`
}

type PreferencesRequest struct {
	OptimizeFor *string `json:"optimize_for"`
	Transport   *string `json:"transport"`
}

type LegResponse struct {
	Stop StopResponse         `json:"stop"`
	Mode domain.TransportMode `json:"mode"`
}

type RouteResponse struct {
	SessionID            string                  `json:"session_id"`
	PendingStops         []StopResponse          `json:"pending_stops"`
	Legs                 []LegResponse           `json:"legs"`
	TotalDistanceMeters  float64                 `json:"total_distance_meters"`
	TotalDurationSeconds float64                 `json:"total_duration_seconds"`
	OptimizeFor          domain.OptimizationMode `json:"optimize_for"`
	Transport            domain.TransportMode    `json:"transport"`
	CurrentIndex         int                     `json:"current_index"`
	Active               bool                    `json:"active"`
	Optimizing           bool                    `json:"optimizing"`
}

type PlanResponse struct {
	Legs                 []LegResponse  `json:"legs"`
	TotalDistanceMeters  float64        `json:"total_distance_meters"`
	TotalDurationSeconds float64        `json:"total_duration_seconds"`
	Partial              bool           `json:"partial"`
	Degraded             bool           `json:"degraded"`
	Unvisited            []StopResponse `json:"unvisited,omitempty"`
	Applied              bool           `json:"applied"`
	Error                string         `json:"error,omitempty"`
}

type PositionRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PositionResponse struct {
	Skipped        bool    `json:"skipped"`
	TargetIndex    int     `json:"target_index"`
	DistanceMeters float64 `json:"distance_meters"`
	Advanced       bool    `json:"advanced"`
	Completed      bool    `json:"completed"`
}

// Pushed over the session websocket.
type EventMessage struct {
	Type         string            `json:"type"`
	At           time.Time         `json:"at"`
	CurrentIndex int               `json:"current_index"`
	Active       bool              `json:"active"`
	Route        *RouteResponse    `json:"route,omitempty"`
	Position     *PositionResponse `json:"position,omitempty"`
	Error        string            `json:"error,omitempty"`
}

func FromStop(s domain.Stop) StopResponse {
	return StopResponse{ID: s.ID, Name: s.Name, Direction: s.Direction, Lat: s.Coords.Lat, Lng: s.Coords.Lng}
}

func FromStops(stops []domain.Stop) []StopResponse {
	out := make([]StopResponse, 0, len(stops))
	for _, s := range stops {
		out = append(out, FromStop(s))
	}
	return out
}

func FromLegs(order []domain.Stop, modes []domain.TransportMode) []LegResponse {
	out := make([]LegResponse, 0, len(order))
	for i, s := range order {
		leg := LegResponse{Stop: FromStop(s), Mode: domain.ModeNone}
		if i < len(modes) {
			leg.Mode = modes[i]
		}
		out = append(out, leg)
	}
	return out
}

func FromPlan(p *domain.RoutePlan) PlanResponse {
	return PlanResponse{
		Legs:                 FromLegs(p.Order, p.LegModes),
		TotalDistanceMeters:  p.TotalDistanceMeters,
		TotalDurationSeconds: p.TotalDurationSeconds,
		Partial:              p.Partial,
		Degraded:             p.Degraded,
		Unvisited:            FromStops(p.Unvisited),
	}
}
