package assignment

import (
	"context"
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

func (m *mockStore) Assign(ctx context.Context, rideID, driverID uuid.UUID) (*domain.Ride, error) {
	args := m.Called(ctx, rideID, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ride), args.Error(1)
}

func (m *mockStore) InitializeTrip(ctx context.Context, rideID, driverID uuid.UUID) (*domain.Trip, error) {
	args := m.Called(ctx, rideID, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

type mockGeoIndex struct{ mock.Mock }

func (m *mockGeoIndex) Remove(ctx context.Context, driverID uuid.UUID) error {
	args := m.Called(ctx, driverID)
	return args.Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, eventType eventbus.EventType, payload interface{}) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

func newTestService() (*Service, *mockStore, *mockGeoIndex, *mockPublisher) {
	store := new(mockStore)
	geo := new(mockGeoIndex)
	bus := new(mockPublisher)
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return NewService(store, geo, bus), store, geo, bus
}

func TestService_Assign_Success(t *testing.T) {
	svc, store, _, bus := newTestService()
	ctx := context.Background()
	rideID, driverID := uuid.New(), uuid.New()

	ride := &domain.Ride{ID: rideID, Status: domain.RideDriverAssigned, AssignedDriverID: &driverID}
	store.On("Assign", ctx, rideID, driverID).Return(ride, nil)

	got, err := svc.Assign(ctx, rideID, driverID)

	require.NoError(t, err)
	assert.Equal(t, ride, got)
	bus.AssertCalled(t, "Publish", ctx, eventbus.EventDriverAssigned, mock.Anything)
	bus.AssertCalled(t, "Publish", ctx, eventbus.EventRideUpdated, ride)
}

func TestService_Assign_ConcurrentlyAssignedIsConflict(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	rideID, driverID := uuid.New(), uuid.New()

	store.On("Assign", ctx, rideID, driverID).Return(nil, ErrConcurrentlyAssigned)

	_, err := svc.Assign(ctx, rideID, driverID)

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeConflict, appErr.Code)
}

func TestService_Assign_DriverUnavailableIsConflict(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	rideID, driverID := uuid.New(), uuid.New()

	store.On("Assign", ctx, rideID, driverID).Return(nil, ErrDriverUnavailable)

	_, err := svc.Assign(ctx, rideID, driverID)

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeConflict, appErr.Code)
}

func TestService_Assign_RideNotMatchableIsInvalidTransition(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	rideID, driverID := uuid.New(), uuid.New()

	store.On("Assign", ctx, rideID, driverID).Return(nil, ErrRideNotMatchable)

	_, err := svc.Assign(ctx, rideID, driverID)

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeInvalidTransition, appErr.Code)
}

func TestService_InitializeTrip_Success(t *testing.T) {
	svc, store, geo, bus := newTestService()
	ctx := context.Background()
	rideID, driverID := uuid.New(), uuid.New()

	trip := &domain.Trip{ID: uuid.New(), RideID: rideID, DriverID: driverID, Status: domain.TripCreated}
	store.On("InitializeTrip", ctx, rideID, driverID).Return(trip, nil)
	geo.On("Remove", ctx, driverID).Return(nil)

	got, err := svc.InitializeTrip(ctx, rideID, driverID)

	require.NoError(t, err)
	assert.Equal(t, trip, got)
	bus.AssertCalled(t, "Publish", ctx, eventbus.EventTripAccepted, trip)
}

func TestService_InitializeTrip_DriverNotAvailableIsConflict(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	rideID, driverID := uuid.New(), uuid.New()

	store.On("InitializeTrip", ctx, rideID, driverID).Return(nil, ErrDriverNotAvailable)

	_, err := svc.InitializeTrip(ctx, rideID, driverID)

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeConflict, appErr.Code)
}

func TestService_InitializeTrip_RideNoLongerAssignedIsConflict(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	rideID, driverID := uuid.New(), uuid.New()

	store.On("InitializeTrip", ctx, rideID, driverID).Return(nil, ErrRideNoLongerAssignedToDriver)

	_, err := svc.InitializeTrip(ctx, rideID, driverID)

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeConflict, appErr.Code)
}
