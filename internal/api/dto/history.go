package dto

import (
	"time"
	"trip-route-service/internal/domain"
)

type SaveBookmarkRequest struct {
	Name      string `json:"name"`
	SessionID string `json:"session_id"`
}

type BookmarkResponse struct {
	Name      string         `json:"name"`
	Stops     []StopResponse `json:"stops"`
	CreatedAt time.Time      `json:"created_at"`
}

type ListBookmarksResponse struct {
	Bookmarks []BookmarkResponse `json:"bookmarks"`
}

type VisitedStopResponse struct {
	Index int          `json:"index"`
	Stop  StopResponse `json:"stop"`
}

type HistoryEntryResponse struct {
	ID              string                `json:"id"`
	CompletedAt     time.Time             `json:"completed_at"`
	DistanceKm      float64               `json:"distance_km"`
	DurationSeconds float64               `json:"duration_seconds"`
	Stops           []VisitedStopResponse `json:"stops"`
}

type ListHistoryResponse struct {
	Entries []HistoryEntryResponse `json:"entries"`
}

type StatsResponse struct {
	Date             string  `json:"date"`
	TotalDistanceKm  float64 `json:"total_distance_km"`
	TotalTimeSeconds float64 `json:"total_time_seconds"`
	RoutesCompleted  int     `json:"routes_completed"`
}

type ListStatsResponse struct {
	Days []StatsResponse `json:"days"`
}

func FromBookmark(b domain.RouteBookmark) BookmarkResponse {
	return BookmarkResponse{Name: b.Name, Stops: FromStops(b.Stops), CreatedAt: b.CreatedAt}
}

func FromHistoryEntry(e domain.RouteHistoryEntry) HistoryEntryResponse {
	stops := make([]VisitedStopResponse, 0, len(e.Stops))
	for _, v := range e.Stops {
		stops = append(stops, VisitedStopResponse{Index: v.Index, Stop: FromStop(v.Stop)})
	}
	return HistoryEntryResponse{
		ID:              e.ID,
		CompletedAt:     e.CompletedAt,
		DistanceKm:      e.DistanceKm,
		DurationSeconds: e.DurationSeconds,
		Stops:           stops,
	}
}

func FromStats(s domain.RouteStats) StatsResponse {
	return StatsResponse(s)
}
