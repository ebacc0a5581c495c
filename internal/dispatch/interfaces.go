package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/internal/geo"
)

// RideQueue is the persistence contract for the batch of MATCHING rides the
// worker polls each iteration, and the EXPIRED transition it may write.
type RideQueue interface {
	PollMatching(ctx context.Context, maxAge time.Duration, limit int) ([]*domain.Ride, error)
	Expire(ctx context.Context, rideID uuid.UUID) error
}

// Matcher is the subset of matching.Service the worker depends on.
type Matcher interface {
	FindNearby(ctx context.Context, lat, lon float64, tier *domain.Tier) ([]geo.Candidate, error)
}

// Assigner is the subset of assignment.Service the worker depends on.
type Assigner interface {
	Assign(ctx context.Context, rideID, driverID uuid.UUID) (*domain.Ride, error)
}
