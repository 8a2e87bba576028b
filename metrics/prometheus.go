package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	syncAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_sync_attempts_total",
			Help: "Total number of synchronization attempts by scope and outcome.",
		},
		[]string{"scope", "outcome"},
	)
	syncDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listing_sync_duration_seconds",
			Help:    "Histogram of synchronization run durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"scope", "outcome"},
	)
	remoteCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_sync_remote_calls_total",
			Help: "Total number of marketplace API calls issued by sync runs.",
		},
		[]string{"scope"},
	)
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)
)

func init() {
	prometheus.MustRegister(syncAttemptsTotal)
	prometheus.MustRegister(syncDuration)
	prometheus.MustRegister(remoteCallsTotal)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
}

// RecordSyncAttempt records one finished (or rejected) orchestrator run.
func RecordSyncAttempt(scope, outcome string, remoteCalls int, duration time.Duration) {
	syncAttemptsTotal.WithLabelValues(scope, outcome).Inc()
	syncDuration.WithLabelValues(scope, outcome).Observe(duration.Seconds())
	if remoteCalls > 0 {
		remoteCallsTotal.WithLabelValues(scope).Add(float64(remoteCalls))
	}
}

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := classifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func classifyStatus(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "2xx"
	} else if statusCode >= 300 && statusCode < 400 {
		return "3xx"
	} else if statusCode >= 400 && statusCode < 500 {
		return "4xx"
	} else if statusCode >= 500 && statusCode < 600 {
		return "5xx"
	}
	return "unknown"
}

// MetricsHandler returns the HTTP handler exporting Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
