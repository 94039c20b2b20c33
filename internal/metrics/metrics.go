package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turfbook",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by handler and status code.",
		},
		[]string{"handler", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "turfbook",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by handler.",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 2, 5},
		},
		[]string{"handler"},
	)

	requestsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turfbook",
			Name:      "booking_requests_submitted_total",
			Help:      "Count of booking request submissions by outcome.",
		},
		[]string{"outcome"},
	)

	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turfbook",
			Name:      "booking_decisions_total",
			Help:      "Count of operator decisions over booking requests.",
		},
		[]string{"decision"},
	)

	autoDeclined = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "turfbook",
			Name:      "booking_auto_declined_total",
			Help:      "Count of requests auto-declined by the acceptance cascade.",
		},
	)

	mailQueueLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "turfbook",
			Name:      "mail_queue_length",
			Help:      "Current number of queued notification jobs.",
		},
	)

	mailSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "turfbook",
			Name:      "mail_sent_total",
			Help:      "Count of notifications delivered.",
		},
	)

	mailFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "turfbook",
			Name:      "mail_failed_total",
			Help:      "Count of notifications dropped after exhausting retries.",
		},
	)

	mailRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "turfbook",
			Name:      "mail_retries_total",
			Help:      "Count of delivery retry attempts.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			requestsSubmitted, decisions, autoDeclined,
			mailQueueLength, mailSent, mailFailed, mailRetries,
		)
	})
}

func ObserveHTTP(handler, code string, seconds float64) {
	httpRequests.WithLabelValues(handler, code).Inc()
	httpDuration.WithLabelValues(handler).Observe(seconds)
}

func IncSubmitted(outcome string) {
	requestsSubmitted.WithLabelValues(outcome).Inc()
}

func IncDecision(decision string) {
	decisions.WithLabelValues(decision).Inc()
}

func AddAutoDeclined(n int) {
	autoDeclined.Add(float64(n))
}

func SetMailQueueLength(n int) {
	mailQueueLength.Set(float64(n))
}

func IncMailSent() {
	mailSent.Inc()
}

func IncMailFailed() {
	mailFailed.Inc()
}

func IncMailRetries() {
	mailRetries.Inc()
}
