package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "adminsdk",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of console API requests by status.",
		},
		[]string{"status"},
	)

	requestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "adminsdk",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of console API requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
	)

	retriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "adminsdk",
			Subsystem: "api",
			Name:      "retries_total",
			Help:      "Total number of retried console API requests.",
		},
	)
)

// MustRegisterMetrics registers the SDK's collectors with a registry.
// Embedders that do not call it still get the executor's atomic counters
// via Executor.Metrics.
func MustRegisterMetrics(registry *prometheus.Registry) {
	registry.MustRegister(requestsTotal, requestDuration, retriesTotal)
}

func observeRequest(status int, duration time.Duration) {
	label := "network_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	requestsTotal.WithLabelValues(label).Inc()
	requestDuration.Observe(duration.Seconds())
}

func observeRetry() {
	retriesTotal.Inc()
}
