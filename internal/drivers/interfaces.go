package drivers

import (
	"context"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
)

// Store is the persistence contract the service depends on, satisfied by
// *Repository and by test mocks.
type Store interface {
	Create(ctx context.Context, driver *domain.Driver) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Driver, error)
	List(ctx context.Context, status *domain.DriverStatus, limit int) ([]*domain.Driver, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target domain.DriverStatus) (*domain.Driver, error)
	UpdateLocationAsync(ctx context.Context, id uuid.UUID, lat, lon float64) error
}

var _ Store = (*Repository)(nil)

// GeoIndex is the subset of geo.Index the service depends on.
type GeoIndex interface {
	Upsert(ctx context.Context, driverID uuid.UUID, lat, lon float64) error
	Remove(ctx context.Context, driverID uuid.UUID) error
}

// Publisher is the subset of eventbus.Bus the service depends on.
type Publisher interface {
	Publish(ctx context.Context, eventType eventbus.EventType, payload interface{}) error
}

var _ Publisher = (*eventbus.Bus)(nil)
