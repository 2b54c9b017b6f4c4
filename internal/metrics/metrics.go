// Package metrics exposes conversation and gateway metrics to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/citychat/pkg/domain"
)

const namespace = "citychat"

// Submission outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeStale    = "stale"
	OutcomeError    = "error"
)

// Metrics holds the collectors of one process. Each instance owns its
// registry so tests and embedded hosts do not collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	submissions *prometheus.CounterVec
	nodeVisits  *prometheus.CounterVec
	fetches     *prometheus.HistogramVec
	fetchErrors *prometheus.CounterVec
	liveStreams prometheus.Gauge
}

// New creates and registers the collectors. liveSessions, if not nil, is
// sampled on every scrape.
func New(liveSessions func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "User submissions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		nodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_visits_total",
			Help:      "Total number of node visits.",
		}, []string{"node"}),
		fetches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of smart-city backend calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_errors_total",
			Help:      "Failed smart-city backend calls.",
		}, []string{"operation"}),
		liveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_streams",
			Help:      "Open SSE and WebSocket subscriptions.",
		}),
	}

	m.registry.MustRegister(
		m.submissions, m.nodeVisits, m.fetches, m.fetchErrors, m.liveStreams,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if liveSessions != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions",
			Help:      "Sessions currently held by the store.",
		}, liveSessions))
	}
	return m
}

// Hooks returns lifecycle hooks recording node visits and backend calls.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.Node).Inc()
		},
		OnFetch: func(ctx context.Context, e *domain.FetchEvent) {
			m.fetches.WithLabelValues(e.Operation).Observe(e.Duration.Seconds())
			if e.IsError {
				m.fetchErrors.WithLabelValues(e.Operation).Inc()
			}
		},
	}
}

// ObserveSubmission counts one submission. kind is "message", "edit" or "restart".
func (m *Metrics) ObserveSubmission(kind, outcome string) {
	m.submissions.WithLabelValues(kind, outcome).Inc()
}

// StreamOpened and StreamClosed track live subscriptions.
func (m *Metrics) StreamOpened() { m.liveStreams.Inc() }

func (m *Metrics) StreamClosed() { m.liveStreams.Dec() }

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
