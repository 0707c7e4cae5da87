// Package metrics exposes Prometheus metrics for table operations and sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	operations     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	rowsProcessed  *prometheus.CounterVec
	activeSessions prometheus.Gauge
	rateLimited    prometheus.Counter
}

// New registers the fileops collectors plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fileops_operations_total",
			Help: "Table operations by operation and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fileops_operation_duration_seconds",
			Help:    "Time spent in table operations, parsing included.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"operation"}),
		rowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fileops_rows_processed_total",
			Help: "Input rows read by table operations.",
		}, []string{"operation"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fileops_active_sessions",
			Help: "Browser sessions currently held in memory.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fileops_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter.",
		}),
	}

	m.registry.MustRegister(
		m.operations,
		m.duration,
		m.rowsProcessed,
		m.activeSessions,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveOperation records one finished operation.
func (m *Metrics) ObserveOperation(operation, status string, rowsIn int, elapsed time.Duration) {
	m.operations.WithLabelValues(operation, status).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
	if rowsIn > 0 {
		m.rowsProcessed.WithLabelValues(operation).Add(float64(rowsIn))
	}
}

// SetActiveSessions sets the session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// RateLimited counts one rejected request.
func (m *Metrics) RateLimited() {
	m.rateLimited.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
