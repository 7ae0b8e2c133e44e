package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskmap",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	availabilityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskmap",
			Name:      "availability_checks_total",
			Help:      "Availability checks by outcome (available, unavailable, error).",
		},
		[]string{"outcome"},
	)

	staleChecksDiscarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "deskmap",
			Name:      "stale_checks_discarded_total",
			Help:      "Availability check responses discarded because a newer check was issued.",
		},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskmap",
			Name:      "bookings_total",
			Help:      "Booking submissions by outcome (succeeded, failed, conflict).",
		},
		[]string{"outcome"},
	)

	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "deskmap",
			Name:      "backend_cache_total",
			Help:      "Backend read-cache lookups by result (hit, miss).",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			availabilityChecks,
			staleChecksDiscarded,
			bookings,
			cacheHits,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncAvailabilityCheck records an availability check outcome.
func IncAvailabilityCheck(outcome string) {
	availabilityChecks.WithLabelValues(outcome).Inc()
}

// IncStaleCheckDiscarded records a discarded stale check response.
func IncStaleCheckDiscarded() {
	staleChecksDiscarded.Inc()
}

// IncBooking records a booking submission outcome.
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

// IncCache records a backend cache lookup result.
func IncCache(result string) {
	cacheHits.WithLabelValues(result).Inc()
}
