// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Intent lifecycle metrics
	IntentsCreated    prometheus.Counter
	IntentsBlocked    *prometheus.CounterVec
	IntentsExecuted   *prometheus.CounterVec
	IntentsRejected   *prometheus.CounterVec
	IntentsSwept      prometheus.Counter
	PendingIntents    prometheus.Gauge
	ExecutionLatency  prometheus.Histogram
	QuoteLatency      prometheus.Histogram

	// Policy metrics
	PolicyChecksFailed *prometheus.CounterVec

	// Collaborator metrics
	UpstreamErrors *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swap_guard"
	}

	return &Metrics{
		IntentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "created_total",
			Help:      "Total number of swap intents created",
		}),
		IntentsBlocked: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "blocked_total",
			Help:      "Total number of swap proposals blocked by policy, by first failed check",
		}, []string{"check"}),
		IntentsExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "executed_total",
			Help:      "Total number of intent executions by outcome",
		}, []string{"outcome"}),
		IntentsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "rejected_total",
			Help:      "Total number of confirmation attempts rejected, by reason",
		}, []string{"reason"}),
		IntentsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "swept_total",
			Help:      "Total number of expired intents removed by the sweeper",
		}),
		PendingIntents: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "pending",
			Help:      "Current number of pending intents",
		}),
		ExecutionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "execution_latency_seconds",
			Help:      "Claim-to-terminal-result latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		QuoteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "intent",
			Name:      "quote_latency_seconds",
			Help:      "Aggregator order round-trip latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		PolicyChecksFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "policy",
			Name:      "checks_failed_total",
			Help:      "Total number of individual policy check failures",
		}, []string{"check"}),
		UpstreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Total number of collaborator call failures by service",
		}, []string{"service"}),
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
