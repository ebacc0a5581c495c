package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/eventbus"
)

// Store owns the transaction boundary for payment creation and outbox
// processing (C12's data model: P1 payments, O1 outbox_events).
type Store interface {
	CreatePayment(ctx context.Context, tripID uuid.UUID) (*domain.Payment, error)
	PollOutbox(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	ProcessPayment(ctx context.Context, paymentID uuid.UUID, psp PSPClient) error
	ApplyWebhook(ctx context.Context, pspTransactionID string, succeeded bool, rawResponse string) (*domain.Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
}

var _ Store = (*Repository)(nil)

// Publisher is the subset of the live-event bus the payments package uses
// to notify riders of payment outcomes.
type Publisher interface {
	Publish(ctx context.Context, eventType eventbus.EventType, payload interface{}) error
}

var _ Publisher = (*eventbus.Bus)(nil)
