package metrics

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	moduleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketforge_module_duration_seconds",
			Help:    "Module generator duration in seconds by module and outcome",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~160s
		},
		[]string{"module", "status"},
	)

	providerAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketforge_provider_attempts_total",
			Help: "Generation provider attempts by provider and outcome",
		},
		[]string{"provider", "outcome"}, // outcome: "success"/"error"/"empty"
	)

	providerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketforge_provider_request_duration_seconds",
			Help:    "Provider request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 11), // 0.1s to ~100s
		},
		[]string{"provider"},
	)

	fallbackRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketforge_fallback_renders_total",
			Help: "Artifacts produced by the local fallback renderer",
		},
		[]string{"category"},
	)

	sessionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketforge_session_runs_total",
			Help: "Finished orchestrator runs by final session status",
		},
		[]string{"status"},
	)
)

// Collector provides convenience methods for recording pipeline metrics
type Collector struct {
	logger *slog.Logger
}

// NewCollector creates a new metrics collector
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{logger: logger}
}

// RecordModuleDuration records one module generator execution
func (c *Collector) RecordModuleDuration(module, status string, duration time.Duration) {
	moduleDuration.WithLabelValues(module, status).Observe(duration.Seconds())
}

// RecordProviderAttempt counts one provider attempt outcome
func (c *Collector) RecordProviderAttempt(provider, outcome string) {
	providerAttempts.WithLabelValues(provider, outcome).Inc()
}

// RecordProviderRequest records a provider request duration
func (c *Collector) RecordProviderRequest(provider string, duration time.Duration) {
	providerRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordFallbackRender counts one local fallback render
func (c *Collector) RecordFallbackRender(category string) {
	if category == "" {
		category = "generic"
	}
	fallbackRenders.WithLabelValues(category).Inc()
}

// RecordRun counts one finished orchestrator run
func (c *Collector) RecordRun(status string) {
	sessionRuns.WithLabelValues(status).Inc()
}
