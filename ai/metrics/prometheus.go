// Package metrics provides Prometheus metrics export for the assistant.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exports assistant metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Turn metrics
	turns       *prometheus.CounterVec
	turnLatency *prometheus.HistogramVec
	activeTurns prometheus.Gauge

	// Fallback metrics
	webFallbacks prometheus.Counter

	// Memory metrics
	memoryRecalls *prometheus.CounterVec
	memoryWrites  *prometheus.CounterVec

	// LLM metrics
	llmTokens  *prometheus.CounterVec
	llmLatency *prometheus.HistogramVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.turns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mlmentor",
			Subsystem: "ai",
			Name:      "turns_total",
			Help:      "Total number of processed conversation turns",
		},
		[]string{"route", "status"},
	)

	e.turnLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mlmentor",
			Subsystem: "ai",
			Name:      "turn_latency_seconds",
			Help:      "Conversation turn latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"route"},
	)

	e.activeTurns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mlmentor",
			Subsystem: "ai",
			Name:      "turns_active",
			Help:      "Number of turns currently being processed",
		},
	)

	e.webFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mlmentor",
			Subsystem: "ai",
			Name:      "web_fallbacks_total",
			Help:      "Total number of turns where course docs were unusable and web search was tried",
		},
	)

	e.memoryRecalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mlmentor",
			Subsystem: "ai",
			Name:      "memory_recalls_total",
			Help:      "Total number of memory recall attempts",
		},
		[]string{"result"}, // hit, empty, degraded
	)

	e.memoryWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mlmentor",
			Subsystem: "ai",
			Name:      "memory_writes_total",
			Help:      "Total number of persisted memory snippets",
		},
		[]string{"trigger"}, // explicit, auto
	)

	e.llmTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mlmentor",
			Subsystem: "ai",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "token_type"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mlmentor",
			Subsystem: "ai",
			Name:      "llm_latency_seconds",
			Help:      "LLM request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model"},
	)

	registry.MustRegister(
		e.turns,
		e.turnLatency,
		e.activeTurns,
		e.webFallbacks,
		e.memoryRecalls,
		e.memoryWrites,
		e.llmTokens,
		e.llmLatency,
	)

	return e
}

// RecordTurn records a completed conversation turn.
func (e *PrometheusExporter) RecordTurn(route string, latency time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	e.turns.WithLabelValues(route, status).Inc()
	e.turnLatency.WithLabelValues(route).Observe(latency.Seconds())
}

// SetActiveTurns sets the number of in-flight turns.
func (e *PrometheusExporter) SetActiveTurns(count int) {
	e.activeTurns.Set(float64(count))
}

// RecordWebFallback records a turn falling back to web search.
func (e *PrometheusExporter) RecordWebFallback() {
	e.webFallbacks.Inc()
}

// RecordMemoryRecall records a memory recall attempt.
// result is one of: hit, empty, degraded.
func (e *PrometheusExporter) RecordMemoryRecall(result string) {
	e.memoryRecalls.WithLabelValues(result).Inc()
}

// RecordMemoryWrite records a persisted memory snippet.
// trigger is one of: explicit, auto.
func (e *PrometheusExporter) RecordMemoryWrite(trigger string) {
	e.memoryWrites.WithLabelValues(trigger).Inc()
}

// RecordLLMTokens records token usage for a model.
func (e *PrometheusExporter) RecordLLMTokens(model, tokenType string, count int) {
	e.llmTokens.WithLabelValues(model, tokenType).Add(float64(count))
}

// RecordLLMLatency records LLM request latency.
func (e *PrometheusExporter) RecordLLMLatency(model string, latency time.Duration) {
	e.llmLatency.WithLabelValues(model).Observe(latency.Seconds())
}

// Handler returns an HTTP handler serving the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}
