// Package trips implements the Trip Service (C11): the full trip lifecycle
// from driver acceptance through fare computation and the passenger
// receipt.
package trips

import (
	"context"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
)

// Store is the persistence contract for trip lifecycle writes, satisfied by
// *Repository and by test mocks.
type Store interface {
	Start(ctx context.Context, tripID uuid.UUID) (*domain.Trip, error)
	Pause(ctx context.Context, tripID uuid.UUID) (*domain.Trip, error)
	Cancel(ctx context.Context, tripID uuid.UUID, reason string) (*domain.Trip, error)
	End(ctx context.Context, tripID uuid.UUID, distanceKm *float64, durationSec *int) (*domain.Trip, error)
	Receipt(ctx context.Context, tripID uuid.UUID) (*Receipt, error)
}

var _ Store = (*Repository)(nil)

// Publisher is the subset of eventbus.Bus the service depends on.
type Publisher interface {
	Publish(ctx context.Context, eventType eventbus.EventType, payload interface{}) error
}

var _ Publisher = (*eventbus.Bus)(nil)
