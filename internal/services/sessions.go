package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Session is one traveler's trip: its route state and the tracker that
// follows the traveler along it.
type Session struct {
	ID        string
	State     *RouteState
	Tracker   *ProximityTracker
	CreatedAt time.Time

	detach func()
}

type SessionConfig struct {
	State                  RouteStateConfig
	ArrivalThresholdMeters float64
	// Completed routes are recorded here when set.
	History *RouteHistory
	// Sessions untouched for IdleTTL are dropped.
	IdleTTL time.Duration
}

// Sessions is an in-memory registry of live sessions.
type Sessions struct {
	cfg   SessionConfig
	items *cache.Cache
	now   func() time.Time
}

func NewSessions(cfg SessionConfig) *Sessions {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	items := cache.New(ttl, time.Minute)
	items.OnEvicted(func(id string, v any) {
		if sess, ok := v.(*Session); ok && sess.detach != nil {
			sess.detach()
		}
		log.Printf("session closed id=%s", id)
	})

	cfg.IdleTTL = ttl
	return &Sessions{cfg: cfg, items: items, now: time.Now}
}

func (s *Sessions) Create() *Session {
	state := NewRouteState(s.cfg.State)
	sess := &Session{
		ID:        uuid.New().String(),
		State:     state,
		Tracker:   NewProximityTracker(state, s.cfg.State.Costs, s.cfg.ArrivalThresholdMeters),
		CreatedAt: s.now().UTC(),
	}
	if s.cfg.History != nil {
		sess.detach = s.cfg.History.Attach(state)
	}

	s.items.SetDefault(sess.ID, sess)
	log.Printf("session opened id=%s", sess.ID)
	return sess
}

// Get returns the session and extends its idle deadline.
func (s *Sessions) Get(id string) (*Session, error) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	// Replace only extends a session that still exists, so a concurrent
	// Delete or expiry is never undone.
	if err := s.items.Replace(id, v, cache.DefaultExpiration); err != nil {
		return nil, fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	return v.(*Session), nil
}

func (s *Sessions) Delete(id string) error {
	if _, ok := s.items.Get(id); !ok {
		return fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	s.items.Delete(id)
	return nil
}

func (s *Sessions) Len() int {
	return s.items.ItemCount()
}
