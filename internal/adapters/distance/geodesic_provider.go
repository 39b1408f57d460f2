package distance

import (
	"context"
	"fmt"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Profile of one transport mode for the offline estimator.
type GeodesicProfile struct {
	SpeedMetersPerSecond float64
	// Ratio of road distance to great-circle distance.
	DetourFactor float64
	// Legs longer than this have no route; 0 means unlimited.
	MaxMeters float64
}

func DefaultGeodesicProfiles() map[domain.TransportMode]GeodesicProfile {
	return map[domain.TransportMode]GeodesicProfile{
		domain.ModeDriving:   {SpeedMetersPerSecond: 11.1, DetourFactor: 1.3},
		domain.ModeWalking:   {SpeedMetersPerSecond: 1.4, DetourFactor: 1.2, MaxMeters: 50_000},
		domain.ModeBicycling: {SpeedMetersPerSecond: 4.2, DetourFactor: 1.25, MaxMeters: 150_000},
		domain.ModeTransit:   {SpeedMetersPerSecond: 6.9, DetourFactor: 1.4, MaxMeters: 300_000},
	}
}

// GeodesicProvider estimates legs from the haversine distance, without any
// network access.
type GeodesicProvider struct {
	profiles map[domain.TransportMode]GeodesicProfile
}

// A nil profiles map uses DefaultGeodesicProfiles.
func NewGeodesicProvider(profiles map[domain.TransportMode]GeodesicProfile) *GeodesicProvider {
	if profiles == nil {
		profiles = DefaultGeodesicProfiles()
	}
	return &GeodesicProvider{profiles: profiles}
}

func (p *GeodesicProvider) GetDistance(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
	mode domain.TransportMode,
) (ports.DistanceResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.DistanceResult{}, err
	}
	if !origin.Valid() || !destination.Valid() {
		return ports.DistanceResult{}, fmt.Errorf("geodesic distance: invalid coordinates %s -> %s", origin, destination)
	}

	prof, ok := p.profiles[mode]
	if !ok || prof.SpeedMetersPerSecond <= 0 {
		return ports.DistanceResult{}, fmt.Errorf("geodesic distance mode=%s: %w", mode, ports.ErrNoRoute)
	}

	detour := prof.DetourFactor
	if detour < 1 {
		detour = 1
	}

	meters := geo.DistanceHaversine(
		orb.Point{origin.Lng, origin.Lat},
		orb.Point{destination.Lng, destination.Lat},
	) * detour

	if prof.MaxMeters > 0 && meters > prof.MaxMeters {
		return ports.DistanceResult{}, fmt.Errorf("geodesic distance mode=%s %.0fm: %w", mode, meters, ports.ErrNoRoute)
	}

	return ports.DistanceResult{
		DistanceMeters:  meters,
		DurationSeconds: meters / prof.SpeedMetersPerSecond,
	}, nil
}
