package distance

import (
	"context"
	"fmt"
	"sync"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
)

// MockLeg is one directed, single-mode entry of a MockDistanceProvider.
type MockLeg struct {
	From, To domain.Coordinates
	Mode     domain.TransportMode
	Meters   float64
	Seconds  float64
}

// MockDistanceProvider answers from a fixed table; unknown legs have no route.
type MockDistanceProvider struct {
	m map[string]ports.DistanceResult

	mu    sync.Mutex
	calls map[string]int
}

func NewMockDistanceProvider(legs []MockLeg) *MockDistanceProvider {
	m := make(map[string]ports.DistanceResult, len(legs))
	for _, l := range legs {
		m[mockKey(l.From, l.To, l.Mode)] = ports.DistanceResult{DistanceMeters: l.Meters, DurationSeconds: l.Seconds}
	}
	return &MockDistanceProvider{m: m, calls: make(map[string]int)}
}

func mockKey(from, to domain.Coordinates, mode domain.TransportMode) string {
	return from.Key() + "|" + to.Key() + "|" + string(mode)
}

func (p *MockDistanceProvider) GetDistance(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TransportMode,
) (ports.DistanceResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.DistanceResult{}, err
	}

	key := mockKey(origin, destination, mode)

	p.mu.Lock()
	p.calls[key]++
	p.mu.Unlock()

	r, ok := p.m[key]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("mock %s -> %s mode=%s: %w", origin, destination, mode, ports.ErrNoRoute)
	}
	return r, nil
}

// Calls returns how often a leg was requested.
func (p *MockDistanceProvider) Calls(from, to domain.Coordinates, mode domain.TransportMode) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[mockKey(from, to, mode)]
}

func (p *MockDistanceProvider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}
