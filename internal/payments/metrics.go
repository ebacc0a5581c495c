package payments

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var paymentsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "dispatch_payments_created_total",
	Help: "Payments inserted by create_payment, one per completed trip.",
})

var paymentOutcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dispatch_payment_outcome_total",
	Help: "Payments finalized by the webhook, labeled by outcome.",
}, []string{"outcome"})
