// Package metrics exposes Prometheus counters for connections, OAuth callbacks and outbound platform calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every adconnect collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	Disconnects        *prometheus.CounterVec
	RevocationFailures *prometheus.CounterVec
	Callbacks          *prometheus.CounterVec
	PlatformRequests   *prometheus.CounterVec
	PlatformLatency    *prometheus.HistogramVec
	BreakerState       *prometheus.GaugeVec
	AutoPopulateRuns   *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		Disconnects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adconnect_disconnects_total",
				Help: "Disconnect requests by platform and result",
			},
			[]string{"platform", "result"},
		),

		RevocationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adconnect_revocation_failures_total",
				Help: "Provider token revocations that failed and were ignored",
			},
			[]string{"platform", "reason"},
		),

		Callbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adconnect_oauth_callbacks_total",
				Help: "OAuth callbacks by platform and outcome",
			},
			[]string{"platform", "outcome"},
		),

		PlatformRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adconnect_platform_requests_total",
				Help: "Outbound platform API calls by platform, operation and result",
			},
			[]string{"platform", "operation", "result"},
		),

		PlatformLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adconnect_platform_request_duration_seconds",
				Help:    "Outbound platform API call latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"platform", "operation"},
		),

		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "adconnect_circuit_breaker_state",
				Help: "Circuit breaker state per platform (0 closed, 1 half-open, 2 open)",
			},
			[]string{"platform"},
		),

		AutoPopulateRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adconnect_autopopulate_runs_total",
				Help: "Auto-populate runs by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Disconnects,
		m.RevocationFailures,
		m.Callbacks,
		m.PlatformRequests,
		m.PlatformLatency,
		m.BreakerState,
		m.AutoPopulateRuns,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePlatformCall records one outbound call.
func (m *Metrics) ObservePlatformCall(platform, operation string, started time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}

	m.PlatformRequests.WithLabelValues(platform, operation, result).Inc()
	m.PlatformLatency.WithLabelValues(platform, operation).Observe(time.Since(started).Seconds())
}
