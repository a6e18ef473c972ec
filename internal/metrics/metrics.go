package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	MutationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_mutations_total",
			Help: "Successful create/update/delete operations",
		},
		[]string{"resource", "operation"},
	)

	StoreErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_store_errors_total",
			Help: "Store calls that returned an error other than not-found",
		},
		[]string{"operation"},
	)

	FeedConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_feed_connections",
			Help: "Open change-feed WebSocket connections",
		},
	)
)

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, statusClass(status)).Observe(duration.Seconds())
}

func IncrementMutation(resource, operation string) {
	MutationCount.WithLabelValues(resource, operation).Inc()
}

func IncrementStoreError(operation string) {
	StoreErrorCount.WithLabelValues(operation).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
