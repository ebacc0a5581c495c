package payments

import (
	"context"
	"time"

	"github.com/pijushrbiswas/dispatch-core/pkg/logger"
	"go.uber.org/zap"
)

const (
	outboxPollInterval = 5 * time.Second
	outboxBatchSize    = 10
)

// Worker is the Outbox Worker (§4.10): polls unprocessed outbox events and
// drives process_payment for each, one PSP call per poll per payment.
type Worker struct {
	store Store
	psp   PSPClient
	done  chan struct{}
}

func NewWorker(store Store, psp PSPClient) *Worker {
	return &Worker{store: store, psp: psp, done: make(chan struct{})}
}

func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(outboxPollInterval)
	defer ticker.Stop()

	w.runIteration(ctx)
	for {
		select {
		case <-ticker.C:
			w.runIteration(ctx)
		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}

func (w *Worker) Stop() {
	close(w.done)
}

func (w *Worker) runIteration(ctx context.Context) {
	events, err := w.store.PollOutbox(ctx, outboxBatchSize)
	if err != nil {
		logger.ErrorContext(ctx, "outbox poll failed", zap.Error(err))
		return
	}
	for _, event := range events {
		if err := w.store.ProcessPayment(ctx, event.AggregateID, w.psp); err != nil {
			logger.ErrorContext(ctx, "process_payment failed, will retry next poll",
				zap.String("payment_id", event.AggregateID.String()), zap.Error(err))
		}
	}
}
