// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "grokgate"

// Metrics methods are safe to call on a nil receiver so callers do not need
// to care whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	completions        *prometheus.CounterVec
	chunks             *prometheus.CounterVec
	upstreamErrors     *prometheus.CounterVec
	malformedLines     prometheus.Counter
	activeStreams      prometheus.Gauge
	conversationsTotal prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds, including the whole stream",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"method", "route"},
		),
		completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_completions_total",
				Help:      "Chat completion streams by model and outcome",
			},
			[]string{"model", "outcome"},
		),
		chunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chunks_total",
				Help:      "Chunks sent to clients by kind",
			},
			[]string{"kind"},
		),
		upstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_errors_total",
				Help:      "Failed Grok requests by status code (0 for transport errors)",
			},
			[]string{"status"},
		),
		malformedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_malformed_lines_total",
			Help:      "Grok stream lines that could not be parsed",
		}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Number of chat completion streams in flight",
		}),
		conversationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversations_created_total",
			Help:      "Conversations started",
		}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.completions,
		m.chunks,
		m.upstreamErrors,
		m.malformedLines,
		m.activeStreams,
		m.conversationsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

// StreamStarted marks a stream in flight; the returned func records its outcome
func (m *Metrics) StreamStarted(model string) func(outcome string) {
	if m == nil {
		return func(string) {}
	}
	m.activeStreams.Inc()
	return func(outcome string) {
		m.activeStreams.Dec()
		m.completions.WithLabelValues(model, outcome).Inc()
	}
}

func (m *Metrics) ChunkSent(kind string) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(kind).Inc()
}

func (m *Metrics) UpstreamError(status int) {
	if m == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(statusLabel(status)).Inc()
}

func (m *Metrics) MalformedLine() {
	if m == nil {
		return
	}
	m.malformedLines.Inc()
}

func (m *Metrics) ConversationCreated() {
	if m == nil {
		return
	}
	m.conversationsTotal.Inc()
}
