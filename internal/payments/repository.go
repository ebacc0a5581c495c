package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pijushrbiswas/dispatch-core/internal/domain"
	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/database"
	"github.com/pijushrbiswas/dispatch-core/pkg/logger"
	"go.uber.org/zap"
)

// Repository owns every transaction boundary in the payment lifecycle:
// creation-with-outbox, outbox-driven PSP submission, and webhook
// finalization.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreatePayment implements §4.10's create_payment(trip_id): lock the trip,
// read its finalized fare, insert the payment and its PAYMENT_CREATED
// outbox event atomically.
func (r *Repository) CreatePayment(ctx context.Context, tripID uuid.UUID) (*domain.Payment, error) {
	var payment *domain.Payment
	err := database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
		var totalFare *float64
		err := tx.QueryRow(ctx, `SELECT total_fare FROM trips WHERE id = $1 FOR UPDATE`, tripID).Scan(&totalFare)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NewNotFoundError("trip not found")
			}
			return fmt.Errorf("lock trip: %w", err)
		}
		if totalFare == nil {
			return ErrTripFareNotSet
		}

		now := time.Now().UTC()
		p := &domain.Payment{
			ID:         uuid.New(),
			TripID:     tripID,
			Amount:     *totalFare,
			Status:     domain.PaymentPending,
			RetryCount: 0,
			MaxRetries: 3,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO payments (id, trip_id, amount, status, retry_count, max_retries, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		`, p.ID, p.TripID, p.Amount, p.Status, p.RetryCount, p.MaxRetries, now); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		payload, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal payment payload: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, processed, created_at)
			VALUES ($1, $2, $3, $4, $5, false, $6)
		`, uuid.New(), domain.AggregatePayment, p.ID, EventTypePaymentCreated, payload, now); err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	paymentsCreatedTotal.Inc()
	return payment, nil
}

// PollOutbox implements §4.10 step 1: up to limit unprocessed outbox events,
// oldest first, gated per-payment by next_retry_at.
func (r *Repository) PollOutbox(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	const query = `
		SELECT o.id, o.aggregate_type, o.aggregate_id, o.event_type, o.payload, o.processed, o.created_at
		FROM outbox_events o
		JOIN payments p ON p.id = o.aggregate_id AND o.aggregate_type = 'PAYMENT'
		WHERE o.processed = false AND (p.next_retry_at IS NULL OR p.next_retry_at <= now())
		ORDER BY o.created_at ASC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("poll outbox: %w", err)
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		e := &domain.OutboxEvent{}
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &e.Processed, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ProcessPayment implements §4.10's process_payment(payment_id): lock the
// payment, short-circuit terminal/in-flight states, exhaust the retry
// budget, or make exactly one PSP call and record its outcome.
func (r *Repository) ProcessPayment(ctx context.Context, paymentID uuid.UUID, psp PSPClient) error {
	return database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
		p := &domain.Payment{}
		err := tx.QueryRow(ctx, `
			SELECT id, trip_id, amount, status, retry_count, max_retries
			FROM payments WHERE id = $1 FOR UPDATE
		`, paymentID).Scan(&p.ID, &p.TripID, &p.Amount, &p.Status, &p.RetryCount, &p.MaxRetries)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("payment not found: %w", err)
			}
			return fmt.Errorf("lock payment: %w", err)
		}

		if p.Status == domain.PaymentCompleted || p.Status == domain.PaymentProcessing {
			return r.markOutboxProcessed(ctx, tx, paymentID)
		}

		if p.RetryCount >= p.MaxRetries {
			reason := "max retries exceeded"
			if _, err := tx.Exec(ctx, `
				UPDATE payments SET status = $1, failure_reason = $2, updated_at = now() WHERE id = $3
			`, domain.PaymentFailed, reason, paymentID); err != nil {
				return fmt.Errorf("mark payment failed: %w", err)
			}
			return r.markOutboxProcessed(ctx, tx, paymentID)
		}

		amount := fmt.Sprintf("%.2f", p.Amount)
		result, pspErr := psp.Charge(ctx, paymentID.String(), amount, "usd")
		if pspErr != nil {
			retryCount := p.RetryCount + 1
			nextRetryAt := time.Now().UTC().Add(backoffFor(retryCount))
			failureReason := pspErr.Error()
			_, err := tx.Exec(ctx, `
				UPDATE payments
				SET retry_count = $1, next_retry_at = $2, last_retry_at = now(), failure_reason = $3, updated_at = now()
				WHERE id = $4
			`, retryCount, nextRetryAt, failureReason, paymentID)
			if err != nil {
				return fmt.Errorf("record retry: %w", err)
			}
			logger.WarnContext(ctx, "payment PSP submission failed, scheduled for retry",
				zap.String("payment_id", paymentID.String()), zap.Int("retry_count", retryCount), zap.Error(pspErr))
			return nil
		}

		_, err = tx.Exec(ctx, `
			UPDATE payments
			SET status = $1, psp_transaction_id = $2, psp_response = $3, updated_at = now()
			WHERE id = $4
		`, domain.PaymentProcessing, result.TransactionID, result.RawResponse, paymentID)
		if err != nil {
			return fmt.Errorf("record psp acceptance: %w", err)
		}
		return nil
	})
}

func (r *Repository) markOutboxProcessed(ctx context.Context, tx pgx.Tx, paymentID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE outbox_events SET processed = true
		WHERE aggregate_type = 'PAYMENT' AND aggregate_id = $1 AND processed = false
	`, paymentID)
	if err != nil {
		return fmt.Errorf("mark outbox processed: %w", err)
	}
	return nil
}

// ApplyWebhook implements §4.10's webhook(payload) step 2-3: finalize the
// payment matching pspTransactionID and mark its outbox events processed,
// all in one transaction. Status moves out of PROCESSING are irreversible,
// which makes repeated webhook deliveries for the same transaction safe.
func (r *Repository) ApplyWebhook(ctx context.Context, pspTransactionID string, succeeded bool, rawResponse string) (*domain.Payment, error) {
	var updated *domain.Payment
	err := database.RetryableTransaction(ctx, r.db, func(tx pgx.Tx) error {
		p := &domain.Payment{}
		err := tx.QueryRow(ctx, `
			SELECT id, trip_id, amount, status, retry_count, max_retries
			FROM payments WHERE psp_transaction_id = $1 FOR UPDATE
		`, pspTransactionID).Scan(&p.ID, &p.TripID, &p.Amount, &p.Status, &p.RetryCount, &p.MaxRetries)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrWebhookUnknownTransaction
			}
			return fmt.Errorf("lock payment: %w", err)
		}

		if p.Status == domain.PaymentCompleted || p.Status == domain.PaymentFailed {
			updated = p
			return nil
		}

		finalStatus := domain.PaymentFailed
		if succeeded {
			finalStatus = domain.PaymentCompleted
		}
		if _, err := tx.Exec(ctx, `
			UPDATE payments
			SET status = $1, psp_transaction_id = $2, psp_response = $3, updated_at = now()
			WHERE id = $4
		`, finalStatus, pspTransactionID, rawResponse, p.ID); err != nil {
			return fmt.Errorf("finalize payment: %w", err)
		}
		if err := r.markOutboxProcessed(ctx, tx, p.ID); err != nil {
			return err
		}

		p.Status = finalStatus
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) GetPayment(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := r.db.QueryRow(ctx, `
		SELECT id, trip_id, amount, status, psp_transaction_id, psp_response,
		       retry_count, max_retries, last_retry_at, next_retry_at, failure_reason,
		       created_at, updated_at
		FROM payments WHERE id = $1
	`, id).Scan(
		&p.ID, &p.TripID, &p.Amount, &p.Status, &p.PSPTransactionID, &p.PSPResponse,
		&p.RetryCount, &p.MaxRetries, &p.LastRetryAt, &p.NextRetryAt, &p.FailureReason,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFoundError("payment not found")
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}
