package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
)

// Bookmarks manages named stop lists.
type Bookmarks struct {
	repo ports.BookmarkRepository
	now  func() time.Time
}

func NewBookmarks(repo ports.BookmarkRepository) *Bookmarks {
	return &Bookmarks{repo: repo, now: time.Now}
}

// Save stores stops under name. Names are trimmed, 1..16 characters and unique.
func (b *Bookmarks) Save(ctx context.Context, name string, stops []domain.Stop) (domain.RouteBookmark, error) {
	n, err := domain.NormalizeBookmarkName(name)
	if err != nil {
		return domain.RouteBookmark{}, fmt.Errorf("save bookmark: %w: %v", ErrInvalidBookmark, err)
	}
	if len(stops) == 0 {
		return domain.RouteBookmark{}, fmt.Errorf("save bookmark %q: %w: no stops", n, ErrInvalidBookmark)
	}

	bm := domain.RouteBookmark{
		Name:      n,
		Stops:     append([]domain.Stop(nil), stops...),
		CreatedAt: b.now().UTC(),
	}
	if err := b.repo.SaveBookmark(ctx, bm); err != nil {
		return domain.RouteBookmark{}, fmt.Errorf("save bookmark %q: %w", n, err)
	}
	return bm, nil
}

func (b *Bookmarks) List(ctx context.Context) ([]domain.RouteBookmark, error) {
	out, err := b.repo.ListBookmarks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return out, nil
}

func (b *Bookmarks) Get(ctx context.Context, name string) (domain.RouteBookmark, error) {
	bm, err := b.repo.GetBookmark(ctx, name)
	if err != nil {
		return domain.RouteBookmark{}, fmt.Errorf("get bookmark %q: %w", name, err)
	}
	return bm, nil
}

func (b *Bookmarks) Delete(ctx context.Context, name string) error {
	if err := b.repo.DeleteBookmark(ctx, name); err != nil {
		return fmt.Errorf("delete bookmark %q: %w", name, err)
	}
	return nil
}

// Use replaces the pending stops of state with the bookmarked ones. Each
// loaded stop gets a fresh id.
func (b *Bookmarks) Use(ctx context.Context, name string, state *RouteState) (domain.RouteBookmark, error) {
	bm, err := b.Get(ctx, name)
	if err != nil {
		return domain.RouteBookmark{}, err
	}

	stops := make([]domain.Stop, 0, len(bm.Stops))
	for _, s := range bm.Stops {
		stops = append(stops, domain.NewStop(s.Name, s.Direction, s.Coords))
	}
	state.ReplaceStops(stops)
	return bm, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ports.ErrNotFound)
}
