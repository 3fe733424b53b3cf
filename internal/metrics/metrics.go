// Package metrics exposes the Prometheus instrumentation of the
// booking core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPDuration observes request latency per route and status.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "railbook_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	// BookingsCreated counts booking creation outcomes by resulting
	// status (pending_payment, waitlisted) or rejection reason code.
	BookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railbook_bookings_created_total",
		Help: "Booking creation outcomes.",
	}, []string{"outcome"})

	// WaitlistPromotions counts bookings promoted off a waitlist.
	WaitlistPromotions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "railbook_waitlist_promotions_total",
		Help: "Bookings promoted from waitlist to confirmed.",
	})

	// WaitlistDepth tracks the current queue length per class and quota.
	// Train and date are deliberately not labels to keep cardinality
	// bounded.
	WaitlistDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "railbook_waitlist_depth",
		Help: "Current waitlist length.",
	}, []string{"coach_class", "quota"})

	// PaymentCallbacks counts payment webhook outcomes, including
	// suppressed duplicates.
	PaymentCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "railbook_payment_callbacks_total",
		Help: "Payment gateway callback outcomes.",
	}, []string{"result"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
