// Package metrics registers the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HoldsCreated counts hold+payment-link workflow runs by outcome
	// ("success", "bookeo_error", "payu_error", "invalid_request").
	HoldsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_holds_created_total",
		Help: "Hold and payment-link creation attempts by outcome.",
	}, []string{"outcome"})

	// Reconciliations counts webhook reconciliation runs by outcome
	// ("success", "rejected", "bookeo_error").
	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_reconciliations_total",
		Help: "Payment webhook reconciliation attempts by outcome.",
	}, []string{"outcome"})

	// RateLimitRetries counts single-shot retries taken after a booking
	// provider 429.
	RateLimitRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookeo_rate_limit_retries_total",
		Help: "Requests retried once after a provider rate limit.",
	})
)
