package trips

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Start(ctx context.Context, tripID uuid.UUID) (*domain.Trip, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *mockStore) Pause(ctx context.Context, tripID uuid.UUID) (*domain.Trip, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *mockStore) Cancel(ctx context.Context, tripID uuid.UUID, reason string) (*domain.Trip, error) {
	args := m.Called(ctx, tripID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *mockStore) End(ctx context.Context, tripID uuid.UUID, distanceKm *float64, durationSec *int) (*domain.Trip, error) {
	args := m.Called(ctx, tripID, distanceKm, durationSec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *mockStore) Receipt(ctx context.Context, tripID uuid.UUID) (*Receipt, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Receipt), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, eventType eventbus.EventType, payload interface{}) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

func newTestService() (*Service, *mockStore, *mockPublisher) {
	store := new(mockStore)
	bus := new(mockPublisher)
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return NewService(store, bus), store, bus
}

func TestService_Start_PublishesTripStarted(t *testing.T) {
	svc, store, bus := newTestService()
	ctx := context.Background()
	tripID := uuid.New()

	trip := &domain.Trip{ID: tripID, Status: domain.TripStarted}
	store.On("Start", ctx, tripID).Return(trip, nil)

	got, err := svc.Start(ctx, tripID)

	require.NoError(t, err)
	assert.Equal(t, trip, got)
	bus.AssertCalled(t, "Publish", ctx, eventbus.EventTripStarted, trip)
}

func TestService_Start_InvalidTransitionPropagates(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	tripID := uuid.New()

	invalidErr := apperr.NewInvalidTransitionError(apperr.TransitionDetail{Entity: "trip", Current: "ENDED", Target: "STARTED"})
	store.On("Start", ctx, tripID).Return(nil, invalidErr)

	_, err := svc.Start(ctx, tripID)

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeInvalidTransition, appErr.Code)
}

func TestService_Cancel_ReleasesDriverAndCancelsRide(t *testing.T) {
	svc, store, bus := newTestService()
	ctx := context.Background()
	tripID, driverID, rideID := uuid.New(), uuid.New(), uuid.New()

	trip := &domain.Trip{ID: tripID, DriverID: driverID, RideID: rideID, Status: domain.TripCancelled}
	store.On("Cancel", ctx, tripID, "rider no-show").Return(trip, nil)

	got, err := svc.Cancel(ctx, tripID, "rider no-show")

	require.NoError(t, err)
	assert.Equal(t, trip, got)
	bus.AssertCalled(t, "Publish", ctx, eventbus.EventDriverStatusChanged, mock.Anything)
	bus.AssertCalled(t, "Publish", ctx, eventbus.EventRideUpdated, mock.Anything)
}

func TestService_End_ComputesFareAndPublishesEvents(t *testing.T) {
	svc, store, bus := newTestService()
	ctx := context.Background()
	tripID := uuid.New()
	distance := 10.0
	duration := 1200

	baseFare, totalFare := 25.00, 25.00
	trip := &domain.Trip{ID: tripID, Status: domain.TripEnded, DistanceKm: &distance, DurationSec: &duration, BaseFare: &baseFare, TotalFare: &totalFare}
	store.On("End", ctx, tripID, &distance, &duration).Return(trip, nil)

	got, err := svc.End(ctx, tripID, &distance, &duration)

	require.NoError(t, err)
	assert.Equal(t, trip, got)
	bus.AssertCalled(t, "Publish", ctx, eventbus.EventTripEnded, trip)
}

func TestService_Receipt_NotFoundWhenTripNotEnded(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	tripID := uuid.New()

	store.On("Receipt", ctx, tripID).Return(nil, apperr.NewNotFoundError("trip receipt not available"))

	_, err := svc.Receipt(ctx, tripID)

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeNotFound, appErr.Code)
}

func TestService_Pause_DependencyFailureWrapsPlainError(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	tripID := uuid.New()

	store.On("Pause", ctx, tripID).Return(nil, errors.New("connection reset"))

	_, err := svc.Pause(ctx, tripID)

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeDependencyFailure, appErr.Code)
}
