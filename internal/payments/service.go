package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
)

// Service is the Payment Service (C12): create_payment plus the webhook
// finalization path. The outbox worker (Worker, below) owns process_payment.
type Service struct {
	store Store
	bus   Publisher
}

func NewService(store Store, bus Publisher) *Service {
	return &Service{store: store, bus: bus}
}

// CreatePayment implements create_payment(trip_id).
func (s *Service) CreatePayment(ctx context.Context, tripID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.store.CreatePayment(ctx, tripID)
	if err != nil {
		if errors.Is(err, ErrTripFareNotSet) {
			return nil, apperr.NewConflictErrorWithCause(err.Error(), err)
		}
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.NewDependencyFailure("failed to create payment", err)
	}
	return payment, nil
}

func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	payment, err := s.store.GetPayment(ctx, id)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.NewDependencyFailure("failed to load payment", err)
	}
	return payment, nil
}

// ApplyWebhook implements webhook(payload) steps 2-4: the caller
// (Handler.handleWebhook) has already verified the signature.
func (s *Service) ApplyWebhook(ctx context.Context, pspTransactionID string, succeeded bool, rawResponse string) (*domain.Payment, error) {
	payment, err := s.store.ApplyWebhook(ctx, pspTransactionID, succeeded, rawResponse)
	if err != nil {
		if errors.Is(err, ErrWebhookUnknownTransaction) {
			return nil, apperr.NewNotFoundError(err.Error())
		}
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.NewDependencyFailure("failed to apply payment webhook", err)
	}

	if payment.Status == domain.PaymentCompleted {
		paymentOutcomeTotal.WithLabelValues("completed").Inc()
		_ = s.bus.Publish(ctx, eventbus.EventPaymentCompleted, payment)
	} else if payment.Status == domain.PaymentFailed {
		paymentOutcomeTotal.WithLabelValues("failed").Inc()
		_ = s.bus.Publish(ctx, eventbus.EventPaymentFailed, payment)
	}
	return payment, nil
}
