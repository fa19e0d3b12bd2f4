// Package metrics exposes Prometheus collectors for upstream model calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for upstream calls.
const (
	OutcomeSuccess   = "success"
	OutcomeUpstream  = "upstream_error"
	OutcomeTransport = "transport_error"
	OutcomeMalformed = "malformed_response"
)

// OtherModel labels calls to models outside the known set.
const OtherModel = "other"

type Metrics struct {
	known    map[string]struct{}
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New builds the collectors. Only knownModels get their own model label;
// everything else is recorded under OtherModel so client-chosen ids cannot
// grow the series count.
func New(knownModels ...string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	known := make(map[string]struct{}, len(knownModels))
	for _, id := range knownModels {
		known[id] = struct{}{}
	}

	m := &Metrics{
		known:    known,
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openrouter_requests_total",
			Help: "Upstream chat completion calls by model and outcome.",
		}, []string{"model", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "openrouter_request_duration_seconds",
			Help:    "Upstream chat completion latency.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"model"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// ObserveCompletion records one upstream call. Safe on a nil receiver.
func (m *Metrics) ObserveCompletion(model, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := m.modelLabel(model)
	m.requests.WithLabelValues(label, outcome).Inc()
	m.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (m *Metrics) modelLabel(model string) string {
	if _, ok := m.known[model]; ok {
		return model
	}
	return OtherModel
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
