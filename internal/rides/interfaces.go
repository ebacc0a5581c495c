// Package rides implements Ride Intake (C6): validates and persists a new
// ride request and hands the caller an advisory list of nearby drivers.
// Actual assignment is owned by the Dispatch Worker and Assignment Service;
// this package never writes DRIVER_ASSIGNED.
package rides

import (
	"context"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/internal/geo"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
)

// Store is the persistence contract the Ride Intake service depends on,
// satisfied by *Repository and by test mocks.
type Store interface {
	CreateRide(ctx context.Context, ride *domain.Ride) error
	GetRideByID(ctx context.Context, id uuid.UUID) (*domain.Ride, error)
	ListRides(ctx context.Context, status *domain.RideStatus, limit int) ([]*domain.Ride, error)
}

var _ Store = (*Repository)(nil)

// Matcher is the subset of matching.Service the service depends on to
// compute the advisory candidate list returned alongside a new ride.
type Matcher interface {
	FindNearby(ctx context.Context, lat, lon float64, tier *domain.Tier) ([]geo.Candidate, error)
}

// Publisher is the subset of eventbus.Bus the service depends on.
type Publisher interface {
	Publish(ctx context.Context, eventType eventbus.EventType, payload interface{}) error
}

var _ Publisher = (*eventbus.Bus)(nil)
