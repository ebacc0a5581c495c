package trips

import (
	"context"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
)

// Service is the Trip Service (C11).
type Service struct {
	store Store
	bus   Publisher
}

func NewService(store Store, bus Publisher) *Service {
	return &Service{store: store, bus: bus}
}

// Start implements start/resume: CREATED→STARTED or PAUSED→STARTED, the
// state machine disambiguates which.
func (s *Service) Start(ctx context.Context, tripID uuid.UUID) (*domain.Trip, error) {
	trip, err := s.store.Start(ctx, tripID)
	if err != nil {
		return nil, wrapTripError(err, "start trip")
	}
	_ = s.bus.Publish(ctx, eventbus.EventTripStarted, trip)
	return trip, nil
}

func (s *Service) Pause(ctx context.Context, tripID uuid.UUID) (*domain.Trip, error) {
	trip, err := s.store.Pause(ctx, tripID)
	if err != nil {
		return nil, wrapTripError(err, "pause trip")
	}
	return trip, nil
}

func (s *Service) Cancel(ctx context.Context, tripID uuid.UUID, reason string) (*domain.Trip, error) {
	trip, err := s.store.Cancel(ctx, tripID, reason)
	if err != nil {
		return nil, wrapTripError(err, "cancel trip")
	}
	_ = s.bus.Publish(ctx, eventbus.EventDriverStatusChanged, map[string]interface{}{"driver_id": trip.DriverID, "status": domain.DriverAvailable})
	_ = s.bus.Publish(ctx, eventbus.EventRideUpdated, map[string]interface{}{"ride_id": trip.RideID, "status": domain.RideCancelled})
	return trip, nil
}

// End implements end(trip_id, distance_km, duration_sec); distanceKm and
// durationSec may be nil, per §4.9's fallback-to-derived-values rule.
func (s *Service) End(ctx context.Context, tripID uuid.UUID, distanceKm *float64, durationSec *int) (*domain.Trip, error) {
	trip, err := s.store.End(ctx, tripID, distanceKm, durationSec)
	if err != nil {
		return nil, wrapTripError(err, "end trip")
	}
	_ = s.bus.Publish(ctx, eventbus.EventTripEnded, trip)
	_ = s.bus.Publish(ctx, eventbus.EventDriverStatusChanged, map[string]interface{}{"driver_id": trip.DriverID, "status": domain.DriverAvailable})
	_ = s.bus.Publish(ctx, eventbus.EventRideUpdated, map[string]interface{}{"ride_id": trip.RideID, "status": domain.RideCompleted})
	return trip, nil
}

func (s *Service) Receipt(ctx context.Context, tripID uuid.UUID) (*Receipt, error) {
	receipt, err := s.store.Receipt(ctx, tripID)
	if err != nil {
		return nil, wrapTripError(err, "load trip receipt")
	}
	return receipt, nil
}

func wrapTripError(err error, message string) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.NewDependencyFailure(message, err)
}
