package services

import (
	"context"
	"fmt"
	"log"
	"time"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/platform/obs"
	"trip-route-service/internal/ports"

	"github.com/google/uuid"
)

const recordTimeout = 10 * time.Second

// RouteHistory records completed routes and serves them back.
type RouteHistory struct {
	repo  ports.RouteHistoryRepository
	now   func() time.Time
	newID func() string
}

func NewRouteHistory(repo ports.RouteHistoryRepository) *RouteHistory {
	return &RouteHistory{
		repo:  repo,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Record stores one completed route and adds it to the totals of its day.
func (h *RouteHistory) Record(ctx context.Context, snap domain.RouteSnapshot, completedAt time.Time) (_ domain.RouteHistoryEntry, err error) {
	defer obs.Time(ctx, "history.Record")(&err)

	entry := domain.NewRouteHistoryEntry(h.newID(), completedAt, snap)
	if err := h.repo.AppendHistory(ctx, entry); err != nil {
		return domain.RouteHistoryEntry{}, fmt.Errorf("record route: %w", err)
	}

	date := completedAt.Format(domain.StatsDateLayout)
	if err := h.repo.RecordDailyStats(ctx, date, entry.DistanceKm, entry.DurationSeconds); err != nil {
		return domain.RouteHistoryEntry{}, fmt.Errorf("record route stats date=%s: %w", date, err)
	}

	return entry, nil
}

// Attach records every completion of state until the returned function is called.
func (h *RouteHistory) Attach(state *RouteState) (detach func()) {
	return state.Subscribe(func(ev RouteEvent) {
		if ev.Type != EventCompleted {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if _, err := h.Record(ctx, ev.Snapshot, ev.At); err != nil {
			log.Printf("route completion not recorded: %v", err)
		}
	})
}

func (h *RouteHistory) List(ctx context.Context, limit int) ([]domain.RouteHistoryEntry, error) {
	entries, err := h.repo.ListHistory(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

func (h *RouteHistory) Get(ctx context.Context, id string) (domain.RouteHistoryEntry, error) {
	entry, err := h.repo.GetHistory(ctx, id)
	if err != nil {
		return domain.RouteHistoryEntry{}, fmt.Errorf("get history id=%q: %w", id, err)
	}
	return entry, nil
}

// Today returns the stats of the current day, zero-valued when nothing was completed.
func (h *RouteHistory) Today(ctx context.Context) (domain.RouteStats, error) {
	return h.Stats(ctx, h.now().Format(domain.StatsDateLayout))
}

func (h *RouteHistory) Stats(ctx context.Context, date string) (domain.RouteStats, error) {
	stats, err := h.repo.GetStats(ctx, date)
	if err != nil {
		if isNotFound(err) {
			return domain.RouteStats{Date: date}, nil
		}
		return domain.RouteStats{}, fmt.Errorf("get stats date=%s: %w", date, err)
	}
	return stats, nil
}

func (h *RouteHistory) AllStats(ctx context.Context) ([]domain.RouteStats, error) {
	stats, err := h.repo.ListStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stats: %w", err)
	}
	return stats, nil
}

// Replay loads the stops of a completed route as the pending list of state,
// in their visiting order.
func (h *RouteHistory) Replay(ctx context.Context, id string, state *RouteState) error {
	entry, err := h.Get(ctx, id)
	if err != nil {
		return err
	}

	stops := make([]domain.Stop, 0, len(entry.Stops))
	for _, v := range entry.Stops {
		stops = append(stops, domain.NewStop(v.Stop.Name, v.Stop.Direction, v.Stop.Coords))
	}
	state.ReplaceStops(stops)
	return nil
}
