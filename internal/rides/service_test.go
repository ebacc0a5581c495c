package rides

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/internal/geo"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) CreateRide(ctx context.Context, ride *domain.Ride) error {
	args := m.Called(ctx, ride)
	return args.Error(0)
}

func (m *mockStore) GetRideByID(ctx context.Context, id uuid.UUID) (*domain.Ride, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ride), args.Error(1)
}

func (m *mockStore) ListRides(ctx context.Context, status *domain.RideStatus, limit int) ([]*domain.Ride, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ride), args.Error(1)
}

type mockMatcher struct{ mock.Mock }

func (m *mockMatcher) FindNearby(ctx context.Context, lat, lon float64, tier *domain.Tier) ([]geo.Candidate, error) {
	args := m.Called(ctx, lat, lon, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]geo.Candidate), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, eventType eventbus.EventType, payload interface{}) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

func newTestService() (*Service, *mockStore, *mockMatcher, *mockPublisher) {
	store := new(mockStore)
	matcher := new(mockMatcher)
	bus := new(mockPublisher)
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return NewService(store, matcher, bus), store, matcher, bus
}

func validRequest() *RideRequest {
	return &RideRequest{
		RiderID:         uuid.New(),
		PickupLatitude:  12.9716,
		PickupLongitude: 77.5946,
		DropLatitude:    12.2958,
		DropLongitude:   76.6394,
		Tier:            domain.TierEconomy,
		PaymentMethod:   domain.PaymentMethodCard,
	}
}

func TestService_RequestRide_Success(t *testing.T) {
	svc, store, matcher, bus := newTestService()
	ctx := context.Background()
	req := validRequest()

	store.On("CreateRide", ctx, mock.AnythingOfType("*domain.Ride")).Return(nil)
	candidates := []geo.Candidate{{DriverID: uuid.New(), DistanceKm: 1.2}}
	matcher.On("FindNearby", ctx, req.PickupLatitude, req.PickupLongitude, mock.AnythingOfType("*domain.Tier")).Return(candidates, nil)

	ride, got, estimate, err := svc.RequestRide(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, domain.RideMatching, ride.Status)
	assert.Equal(t, 1.00, ride.SurgeMultiplier)
	assert.Equal(t, candidates, got)
	assert.Greater(t, estimate.EstimatedFare, 0.0)
	bus.AssertCalled(t, "Publish", ctx, eventbus.EventRideCreated, ride)
}

func TestService_RequestRide_InvalidPickupCoordinateIsValidationFailed(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	req := validRequest()
	req.PickupLatitude = 200

	_, _, _, err := svc.RequestRide(ctx, req)

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeValidationFailed, appErr.Code)
}

func TestService_RequestRide_InvalidTierIsValidationFailed(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	req := validRequest()
	req.Tier = domain.Tier("GOLD")

	_, _, _, err := svc.RequestRide(ctx, req)

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeValidationFailed, appErr.Code)
}

func TestService_RequestRide_InvalidPaymentMethodIsValidationFailed(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	req := validRequest()
	req.PaymentMethod = domain.PaymentMethod("CRYPTO")

	_, _, _, err := svc.RequestRide(ctx, req)

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeValidationFailed, appErr.Code)
}

func TestService_RequestRide_MatchingFailureStillReturnsRide(t *testing.T) {
	svc, store, matcher, _ := newTestService()
	ctx := context.Background()
	req := validRequest()

	store.On("CreateRide", ctx, mock.AnythingOfType("*domain.Ride")).Return(nil)
	matcher.On("FindNearby", ctx, req.PickupLatitude, req.PickupLongitude, mock.AnythingOfType("*domain.Tier")).Return(nil, assert.AnError)

	ride, candidates, _, err := svc.RequestRide(ctx, req)

	require.NoError(t, err)
	assert.NotNil(t, ride)
	assert.Nil(t, candidates)
}

func TestService_GetRide_NotFound(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()
	rideID := uuid.New()

	store.On("GetRideByID", ctx, rideID).Return(nil, apperr.NewNotFoundError("ride not found"))

	_, err := svc.GetRide(ctx, rideID)

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeNotFound, appErr.Code)
}
