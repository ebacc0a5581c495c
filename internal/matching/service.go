package matching

import (
	"context"

	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/internal/geo"
)

// DefaultRadiusKm and DefaultLimit implement match.radius_km / match.limit (§4.6).
const (
	DefaultRadiusKm = geo.DefaultRadiusKm
	DefaultLimit    = geo.DefaultLimit
)

// Service is the Matching Service (C8).
type Service struct {
	geoIndex GeoIndex
}

func NewService(geoIndex GeoIndex) *Service {
	return &Service{geoIndex: geoIndex}
}

// FindNearby implements find_nearby: an ordered list of (driver_id,
// distance_km) within DefaultRadiusKm of (lat, lon), nearest first, capped
// at DefaultLimit. tier is accepted for future fare-tier-aware filtering
// (not exercised by the dispatch core's default radius/limit policy) and is
// currently unused.
func (s *Service) FindNearby(ctx context.Context, lat, lon float64, tier *domain.Tier) ([]geo.Candidate, error) {
	return s.geoIndex.SearchNearby(ctx, lat, lon, DefaultRadiusKm, DefaultLimit)
}
