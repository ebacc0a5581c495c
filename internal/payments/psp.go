package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/pijushrbiswas/dispatch-core/pkg/apperr"
	"github.com/pijushrbiswas/dispatch-core/pkg/logger"
	"github.com/pijushrbiswas/dispatch-core/pkg/resilience"
	"go.uber.org/zap"
)

// PSPResult is what a successful PSP submission returns: the identifier the
// outbox worker records against the payment, and the raw response kept for
// audit/debugging.
type PSPResult struct {
	TransactionID string
	RawResponse   string
}

// PSPClient submits a payment to the payment service provider. The outbox
// worker's own backoff schedule is the retry mechanism (§4.10); this client
// makes exactly one call per invocation and surfaces the error untouched.
type PSPClient interface {
	Charge(ctx context.Context, paymentID, amount string, currency string) (*PSPResult, error)
}

// StripeChargeClient is the StripeClient-backed PSPClient: one payment
// intent per charge, submitted with automatic payment methods.
type StripeChargeClient struct {
	client *StripeClient
}

func NewStripeChargeClient(client *StripeClient) *StripeChargeClient {
	return &StripeChargeClient{client: client}
}

func (c *StripeChargeClient) Charge(ctx context.Context, paymentID, amount, currency string) (*PSPResult, error) {
	amountMinor, err := toMinorUnits(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	pi, err := c.client.CreatePaymentIntent(amountMinor, currency, paymentID)
	if err != nil {
		return nil, err
	}

	return &PSPResult{TransactionID: pi.ID, RawResponse: string(pi.Status)}, nil
}

func toMinorUnits(amount string) (int64, error) {
	var whole, frac int64
	_, err := fmt.Sscanf(amount, "%d.%d", &whole, &frac)
	if err != nil {
		return 0, err
	}
	return whole*100 + frac, nil
}

// CircuitBreakingPSPClient wraps a PSPClient with a circuit breaker so a PSP
// outage fails fast instead of hanging every outbox worker poll; it does
// not retry — §4.10's per-payment exponential backoff is the retry policy.
type CircuitBreakingPSPClient struct {
	client  PSPClient
	breaker *resilience.CircuitBreaker
}

func NewCircuitBreakingPSPClient(client PSPClient) *CircuitBreakingPSPClient {
	settings := resilience.Settings{
		Name:             "psp",
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
	}
	breaker := resilience.NewCircuitBreaker(settings, func(ctx context.Context, err error) (interface{}, error) {
		logger.ErrorContext(ctx, "PSP circuit breaker open, payment charge failed", zap.Error(err))
		return nil, apperr.NewDependencyFailure("payment provider temporarily unavailable", err)
	})
	return &CircuitBreakingPSPClient{client: client, breaker: breaker}
}

func (c *CircuitBreakingPSPClient) Charge(ctx context.Context, paymentID, amount, currency string) (*PSPResult, error) {
	result, err := c.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return c.client.Charge(ctx, paymentID, amount, currency)
	})
	if err != nil {
		return nil, err
	}
	return result.(*PSPResult), nil
}
