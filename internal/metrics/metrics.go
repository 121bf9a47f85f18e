// Package metrics registers the Prometheus instrumentation for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	// HTTPRequests counts requests by method, route pattern, and status.
	HTTPRequests *prometheus.CounterVec
	// HTTPDuration observes request latency by route pattern.
	HTTPDuration *prometheus.HistogramVec
	// Events counts published lifecycle events by type.
	Events *prometheus.CounterVec
	// ArchivedMarkets counts markets exported to cold storage.
	ArchivedMarkets prometheus.Counter
}

// New creates a Metrics set on a fresh registry, with the standard Go and
// process collectors included.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oraclebets",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by method, route, and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "oraclebets",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oraclebets",
			Name:      "events_total",
			Help:      "Lifecycle events published, by type.",
		}, []string{"type"}),
		ArchivedMarkets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "oraclebets",
			Name:      "archived_markets_total",
			Help:      "Terminal markets exported to cold storage.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
