package payments

import "errors"

// ErrTripFareNotSet is returned by CreatePayment when the trip has not yet
// been ended (total_fare is still null).
var ErrTripFareNotSet = errors.New("trip has no finalized fare")

// ErrWebhookUnknownTransaction is returned when a webhook references a
// psp_transaction_id with no matching payment.
var ErrWebhookUnknownTransaction = errors.New("no payment matches psp transaction id")

// ErrWebhookSignatureInvalid is returned when the HMAC signature on a
// webhook request cannot be verified.
var ErrWebhookSignatureInvalid = errors.New("webhook signature verification failed")
