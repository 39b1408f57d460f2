package ports

import (
	"context"
	"errors"
	"trip-route-service/internal/domain"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrBookmarkExists = errors.New("bookmark already exists")
)

// Port: storage for completed routes and their daily aggregates.
type RouteHistoryRepository interface {
	AppendHistory(ctx context.Context, entry domain.RouteHistoryEntry) error
	// Most recent first; limit <= 0 returns everything.
	ListHistory(ctx context.Context, limit int) ([]domain.RouteHistoryEntry, error)
	GetHistory(ctx context.Context, id string) (domain.RouteHistoryEntry, error)

	// Add one completed route to the totals of the given day, creating the day if needed.
	RecordDailyStats(ctx context.Context, date string, distanceKm, durationSeconds float64) error
	GetStats(ctx context.Context, date string) (domain.RouteStats, error)
	ListStats(ctx context.Context) ([]domain.RouteStats, error)
}

// Port: storage for named stop lists.
type BookmarkRepository interface {
	// Fails with ErrBookmarkExists when the name is taken.
	SaveBookmark(ctx context.Context, b domain.RouteBookmark) error
	ListBookmarks(ctx context.Context) ([]domain.RouteBookmark, error)
	GetBookmark(ctx context.Context, name string) (domain.RouteBookmark, error)
	DeleteBookmark(ctx context.Context, name string) error
}

// Both repositories, as provided by each store backend.
type RouteRepository interface {
	RouteHistoryRepository
	BookmarkRepository
}
