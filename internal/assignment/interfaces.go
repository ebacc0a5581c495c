package assignment

import (
	"context"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
)

// Store is the persistence contract the Assignment Service depends on,
// satisfied by *Repository and by test mocks.
type Store interface {
	Assign(ctx context.Context, rideID, driverID uuid.UUID) (*domain.Ride, error)
	InitializeTrip(ctx context.Context, rideID, driverID uuid.UUID) (*domain.Trip, error)
}

var _ Store = (*Repository)(nil)

// GeoIndex is the subset of geo.Index the service depends on to evict a
// driver the moment it stops being AVAILABLE.
type GeoIndex interface {
	Remove(ctx context.Context, driverID uuid.UUID) error
}

// Publisher is the subset of eventbus.Bus the service depends on.
type Publisher interface {
	Publish(ctx context.Context, eventType eventbus.EventType, payload interface{}) error
}

var _ Publisher = (*eventbus.Bus)(nil)
