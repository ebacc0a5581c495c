package payments

import "time"

// EventTypePaymentCreated is the outbox event type written atomically with
// a new payment row (§4.10 step 3).
const EventTypePaymentCreated = "PAYMENT_CREATED"

// retryBackoff is the outbox worker's exponential backoff schedule, indexed
// by retry_count after increment. Overflow clamps to the last entry.
var retryBackoff = []time.Duration{
	30 * time.Second,
	120 * time.Second,
	480 * time.Second,
}

func backoffFor(retryCount int) time.Duration {
	if retryCount <= 0 {
		return retryBackoff[0]
	}
	idx := retryCount - 1
	if idx >= len(retryBackoff) {
		idx = len(retryBackoff) - 1
	}
	return retryBackoff[idx]
}

// WebhookPayload is the PSP's notification of a payment outcome. Field
// names mirror Stripe's payment_intent.succeeded/payment_intent.payment_failed
// shape closely enough for CreatePaymentIntent-based charges.
type WebhookPayload struct {
	PSPTransactionID string `json:"psp_transaction_id"`
	Succeeded        bool   `json:"succeeded"`
	RawResponse      string `json:"raw_response"`
}
