package payments

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

func (m *mockStore) CreatePayment(ctx context.Context, tripID uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockStore) PollOutbox(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEvent), args.Error(1)
}

func (m *mockStore) ProcessPayment(ctx context.Context, paymentID uuid.UUID, psp PSPClient) error {
	args := m.Called(ctx, paymentID, psp)
	return args.Error(0)
}

func (m *mockStore) ApplyWebhook(ctx context.Context, pspTransactionID string, succeeded bool, rawResponse string) (*domain.Payment, error) {
	args := m.Called(ctx, pspTransactionID, succeeded, rawResponse)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockStore) GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
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

func TestService_CreatePayment_Success(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	tripID := uuid.New()

	payment := &domain.Payment{ID: uuid.New(), TripID: tripID, Status: domain.PaymentPending}
	store.On("CreatePayment", ctx, tripID).Return(payment, nil)

	got, err := svc.CreatePayment(ctx, tripID)

	require.NoError(t, err)
	assert.Equal(t, payment, got)
}

func TestService_CreatePayment_FareNotSetIsConflict(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	tripID := uuid.New()

	store.On("CreatePayment", ctx, tripID).Return(nil, ErrTripFareNotSet)

	_, err := svc.CreatePayment(ctx, tripID)

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeConflict, appErr.Code)
}

func TestService_ApplyWebhook_CompletedPublishesEvent(t *testing.T) {
	svc, store, bus := newTestService()
	ctx := context.Background()

	payment := &domain.Payment{ID: uuid.New(), Status: domain.PaymentCompleted}
	store.On("ApplyWebhook", ctx, "pi_123", true, "succeeded").Return(payment, nil)

	got, err := svc.ApplyWebhook(ctx, "pi_123", true, "succeeded")

	require.NoError(t, err)
	assert.Equal(t, payment, got)
	bus.AssertCalled(t, "Publish", ctx, eventbus.EventPaymentCompleted, payment)
}

func TestService_ApplyWebhook_FailedPublishesFailureEvent(t *testing.T) {
	svc, store, bus := newTestService()
	ctx := context.Background()

	payment := &domain.Payment{ID: uuid.New(), Status: domain.PaymentFailed}
	store.On("ApplyWebhook", ctx, "pi_123", false, "card_declined").Return(payment, nil)

	_, err := svc.ApplyWebhook(ctx, "pi_123", false, "card_declined")

	require.NoError(t, err)
	bus.AssertCalled(t, "Publish", ctx, eventbus.EventPaymentFailed, payment)
}

func TestService_ApplyWebhook_UnknownTransactionIsNotFound(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	store.On("ApplyWebhook", ctx, "pi_unknown", true, "succeeded").Return(nil, ErrWebhookUnknownTransaction)

	_, err := svc.ApplyWebhook(ctx, "pi_unknown", true, "succeeded")

	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeNotFound, appErr.Code)
}
