package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	"trip-route-service/internal/domain"
)

func TestSessionsCreateGetDelete(t *testing.T) {
	sessions := NewSessions(SessionConfig{State: RouteStateConfig{Costs: lineCosts()}})

	a := sessions.Create()
	b := sessions.Create()
	if a.ID == b.ID {
		t.Fatalf("duplicate session id %q", a.ID)
	}
	if sessions.Len() != 2 {
		t.Fatalf("len = %d, want 2", sessions.Len())
	}

	got, err := sessions.Get(a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != a {
		t.Fatalf("get returned a different session")
	}

	if err := sessions.Delete(a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := sessions.Get(a.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("get after delete err = %v, want ErrSessionNotFound", err)
	}
	if err := sessions.Delete(a.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second delete err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionsGetNeverRevivesDeletedSession(t *testing.T) {
	sessions := NewSessions(SessionConfig{State: RouteStateConfig{Costs: lineCosts()}})

	for i := 0; i < 200; i++ {
		sess := sessions.Create()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, err := sessions.Get(sess.ID); err != nil {
					return
				}
			}
		}()

		if err := sessions.Delete(sess.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		wg.Wait()

		if _, err := sessions.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("get after delete err = %v, want ErrSessionNotFound", err)
		}
	}
	if sessions.Len() != 0 {
		t.Fatalf("len = %d, want 0", sessions.Len())
	}
}

func TestSessionsGetExtendsIdleDeadline(t *testing.T) {
	sessions := NewSessions(SessionConfig{
		State:   RouteStateConfig{Costs: lineCosts()},
		IdleTTL: 80 * time.Millisecond,
	})

	sess := sessions.Create()
	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		if _, err := sessions.Get(sess.ID); err != nil {
			t.Fatalf("get after %d touches: %v", i, err)
		}
	}
}

func TestSessionsExpireWhenIdle(t *testing.T) {
	sessions := NewSessions(SessionConfig{
		State:   RouteStateConfig{Costs: lineCosts()},
		IdleTTL: 20 * time.Millisecond,
	})

	sess := sessions.Create()
	time.Sleep(40 * time.Millisecond)

	if _, err := sessions.Get(sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionRecordsCompletedRoute(t *testing.T) {
	repo := newMemoryRepo()
	sessions := NewSessions(SessionConfig{
		State:   RouteStateConfig{Costs: lineCosts(), Parallelism: 2},
		History: NewRouteHistory(repo),
	})
	sess := sessions.Create()
	ctx := context.Background()

	sess.State.AddStop(domain.NewStop(domain.CurrentLocationName, "", domain.Coordinates{Lat: 0}))
	sess.State.AddStop(stopAt("Bakery", 0.01))
	if _, err := sess.State.Optimize(ctx); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if err := sess.State.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	res, err := sess.Tracker.OnPositionUpdate(ctx, domain.Coordinates{Lat: 0.01})
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if !res.Completed {
		t.Fatalf("result = %+v, want completed", res)
	}

	entries, _ := repo.ListHistory(ctx, 0)
	if len(entries) != 1 {
		t.Fatalf("history entries = %d, want 1", len(entries))
	}
	if got := entries[0].Stops[1].Stop.Name; got != "Bakery" {
		t.Fatalf("last stop = %q, want Bakery", got)
	}

	// Deleted sessions stop recording.
	if err := sessions.Delete(sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := sess.State.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if _, err := sess.Tracker.OnPositionUpdate(ctx, domain.Coordinates{Lat: 0.01}); err != nil {
		t.Fatalf("position: %v", err)
	}
	entries, _ = repo.ListHistory(ctx, 0)
	if len(entries) != 1 {
		t.Fatalf("history entries after delete = %d, want 1", len(entries))
	}
}
