package assignment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
	"github.com/pijushrbiswas/dispatch-core/pkg/logger"
	"go.uber.org/zap"
)

// Service is the Assignment Service (C9).
type Service struct {
	store Store
	geo   GeoIndex
	bus   Publisher
}

func NewService(store Store, geoIndex GeoIndex, bus Publisher) *Service {
	return &Service{store: store, geo: geoIndex, bus: bus}
}

// Assign implements §4.7's assign. Callers (the Dispatch Worker) should
// treat ErrDriverUnavailable and ErrConcurrentlyAssigned as a retryable
// miss and move on to the next candidate.
func (s *Service) Assign(ctx context.Context, rideID, driverID uuid.UUID) (*domain.Ride, error) {
	ride, err := s.store.Assign(ctx, rideID, driverID)
	if err != nil {
		switch {
		case errors.Is(err, ErrRideNotMatchable):
			return nil, apperr.NewInvalidTransitionError(apperr.TransitionDetail{
				Entity: "ride", Current: string(domain.RideMatching), Target: string(domain.RideDriverAssigned),
			})
		case errors.Is(err, ErrDriverUnavailable), errors.Is(err, ErrConcurrentlyAssigned):
			return nil, apperr.NewConflictErrorWithCause(err.Error(), err)
		default:
			return nil, apperr.NewDependencyFailure("failed to assign ride", err)
		}
	}

	_ = s.bus.Publish(ctx, eventbus.EventDriverAssigned, map[string]interface{}{"ride_id": rideID, "driver_id": driverID})
	_ = s.bus.Publish(ctx, eventbus.EventRideUpdated, ride)

	return ride, nil
}

// InitializeTrip implements §4.7's initialize_trip. ErrDriverNotAvailable
// and ErrRideNoLongerAssignedToDriver are surfaced to the caller rather than
// retried: the ride stays in DRIVER_ASSIGNED and becomes a candidate for
// operator escalation.
func (s *Service) InitializeTrip(ctx context.Context, rideID, driverID uuid.UUID) (*domain.Trip, error) {
	trip, err := s.store.InitializeTrip(ctx, rideID, driverID)
	if err != nil {
		switch {
		case errors.Is(err, ErrDriverNotAvailable), errors.Is(err, ErrRideNoLongerAssignedToDriver):
			return nil, apperr.NewConflictErrorWithCause(err.Error(), err)
		default:
			return nil, apperr.NewDependencyFailure("failed to initialize trip", err)
		}
	}

	if err := s.geo.Remove(ctx, driverID); err != nil {
		logger.ErrorContext(ctx, "failed to evict driver from geo index on trip acceptance", zap.Error(err), zap.String("driver_id", driverID.String()))
	}

	_ = s.bus.Publish(ctx, eventbus.EventDriverStatusChanged, map[string]interface{}{"driver_id": driverID, "status": domain.DriverOnTrip})
	_ = s.bus.Publish(ctx, eventbus.EventTripAccepted, trip)

	return trip, nil
}
