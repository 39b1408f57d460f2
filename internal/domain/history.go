package domain

import (
	"fmt"
	"strings"
	"time"
)

// Layout of RouteStats.Date.
const StatsDateLayout = "2006-01-02"

// Aggregated completions for a single calendar day.
type RouteStats struct {
	Date             string  `json:"date"`
	TotalDistanceKm  float64 `json:"totalDistanceKm"`
	TotalTimeSeconds float64 `json:"totalTimeSeconds"`
	RoutesCompleted  int     `json:"routesCompleted"`
}

// One stop of a completed route, with its position in the visiting order.
type VisitedStop struct {
	Index int  `json:"index"`
	Stop  Stop `json:"stop"`
}

// A completed route.
type RouteHistoryEntry struct {
	ID              string        `json:"id"`
	CompletedAt     time.Time     `json:"completedAt"`
	DistanceKm      float64       `json:"distanceKm"`
	DurationSeconds float64       `json:"durationSeconds"`
	Stops           []VisitedStop `json:"stops"`
}

// NewRouteHistoryEntry builds a history record from a completed snapshot.
func NewRouteHistoryEntry(id string, completedAt time.Time, snap RouteSnapshot) RouteHistoryEntry {
	stops := make([]VisitedStop, 0, len(snap.OptimizedOrder))
	for i, s := range snap.OptimizedOrder {
		stops = append(stops, VisitedStop{Index: i, Stop: s})
	}

	return RouteHistoryEntry{
		ID:              id,
		CompletedAt:     completedAt,
		DistanceKm:      snap.TotalDistanceMeters / 1000,
		DurationSeconds: snap.TotalDurationSeconds,
		Stops:           stops,
	}
}

const MaxBookmarkNameLen = 16

// A named, reusable list of stops.
type RouteBookmark struct {
	Name      string    `json:"name"`
	Stops     []Stop    `json:"stops"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeBookmarkName trims the name and enforces the 1..16 character limit.
func NormalizeBookmarkName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", fmt.Errorf("bookmark name must not be empty")
	}
	if len([]rune(n)) > MaxBookmarkNameLen {
		return "", fmt.Errorf("bookmark name must be at most %d characters", MaxBookmarkNameLen)
	}
	return n, nil
}
