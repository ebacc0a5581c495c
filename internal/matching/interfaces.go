package matching

import (
	"context"

	"github.com/pijushrbiswas/dispatch-core/internal/geo"
)

// GeoIndex is the subset of geo.Index the matching service depends on.
type GeoIndex interface {
	SearchNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]geo.Candidate, error)
}
