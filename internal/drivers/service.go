package drivers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/async"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
	"github.com/pijushrbiswas/dispatch-core/pkg/logger"
	"go.uber.org/zap"
)

// Service implements the Driver Registry (C7).
type Service struct {
	store Store
	geo   GeoIndex
	bus   Publisher
}

func NewService(store Store, geoIndex GeoIndex, bus Publisher) *Service {
	return &Service{store: store, geo: geoIndex, bus: bus}
}

// Create inserts a driver as AVAILABLE and upserts it into the geo index.
func (s *Service) Create(ctx context.Context, name, phone string, lat, lon float64) (*domain.Driver, error) {
	driver := &domain.Driver{
		ID:        uuid.New(),
		Name:      name,
		Phone:     phone,
		Status:    domain.DriverAvailable,
		Latitude:  &lat,
		Longitude: &lon,
		Rating:    5.0,
	}

	if err := s.store.Create(ctx, driver); err != nil {
		return nil, apperr.NewDependencyFailure("failed to create driver", err)
	}

	if err := s.geo.Upsert(ctx, driver.ID, lat, lon); err != nil {
		logger.ErrorContext(ctx, "failed to upsert new driver into geo index", zap.Error(err), zap.String("driver_id", driver.ID.String()))
	}

	_ = s.bus.Publish(ctx, eventbus.EventDriverCreated, driver)

	return driver, nil
}

// UpdateLocation is the fast path (§4.5): the geo index and its freshness
// key are refreshed synchronously; the durable store write is fire-and-forget.
func (s *Service) UpdateLocation(ctx context.Context, id uuid.UUID, lat, lon float64) error {
	if err := s.geo.Upsert(ctx, id, lat, lon); err != nil {
		return apperr.NewDependencyFailure("failed to update driver location", err)
	}

	async.Go(ctx, "drivers.update_location_store", func(taskCtx context.Context) {
		if err := s.store.UpdateLocationAsync(taskCtx, id, lat, lon); err != nil {
			logger.WarnContext(taskCtx, "fire-and-forget driver location store write failed",
				zap.String("driver_id", id.String()), zap.Error(err))
		}
	})

	_ = s.bus.Publish(ctx, eventbus.EventDriverLocationUpdate, map[string]interface{}{
		"driver_id": id, "latitude": lat, "longitude": lon,
	})

	return nil
}

// UpdateStatus validates and writes a driver status transition, maintaining
// the geo-index ordering guarantee from §4.5: a driver leaving AVAILABLE is
// removed from the index right after the transaction commits, before this
// call returns to its caller.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, target domain.DriverStatus) (*domain.Driver, error) {
	updated, err := s.store.UpdateStatus(ctx, id, target)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFoundError("driver not found")
		}
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.NewDependencyFailure("failed to update driver status", err)
	}

	if target == domain.DriverAvailable && updated.Latitude != nil && updated.Longitude != nil {
		if err := s.geo.Upsert(ctx, id, *updated.Latitude, *updated.Longitude); err != nil {
			logger.ErrorContext(ctx, "failed to upsert driver into geo index on status change", zap.Error(err))
		}
	} else {
		if err := s.geo.Remove(ctx, id); err != nil {
			logger.ErrorContext(ctx, "failed to remove driver from geo index on status change", zap.Error(err))
		}
	}

	_ = s.bus.Publish(ctx, eventbus.EventDriverStatusChanged, updated)

	return updated, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Driver, error) {
	driver, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFoundError("driver not found")
		}
		return nil, apperr.NewDependencyFailure("failed to load driver", err)
	}
	return driver, nil
}

func (s *Service) List(ctx context.Context, status *domain.DriverStatus, limit int) ([]*domain.Driver, error) {
	drivers, err := s.store.List(ctx, status, limit)
	if err != nil {
		return nil, apperr.NewDependencyFailure("failed to list drivers", err)
	}
	return drivers, nil
}
