package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the push delivery counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	sent       *prometheus.CounterVec
	failed     *prometheus.CounterVec
	batches    prometheus.Counter
	deadTokens prometheus.Counter
	pruned     *prometheus.CounterVec
	events     *prometheus.CounterVec
}

// New creates the counters and registers them on a dedicated registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "push_relay",
			Name:      "deliveries_sent_total",
			Help:      "Per-token deliveries accepted by the push provider.",
		}, []string{"target"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "push_relay",
			Name:      "deliveries_failed_total",
			Help:      "Per-token deliveries rejected by the push provider.",
		}, []string{"target"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "push_relay",
			Name:      "provider_batches_total",
			Help:      "Multicast calls issued to the push provider.",
		}),
		deadTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "push_relay",
			Name:      "dead_tokens_total",
			Help:      "Tokens reported as permanently invalid.",
		}),
		pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "push_relay",
			Name:      "tokens_pruned_total",
			Help:      "Dead token deletions by outcome.",
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "push_relay",
			Name:      "bus_events_total",
			Help:      "Event bus messages by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.sent, m.failed, m.batches, m.deadTokens, m.pruned, m.events)
	m.registry.MustRegister(collectors.NewGoCollector())
	return m
}

func (m *Metrics) Delivered(target string, sent, failed int) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(target).Add(float64(sent))
	m.failed.WithLabelValues(target).Add(float64(failed))
}

func (m *Metrics) Batch() {
	if m == nil {
		return
	}
	m.batches.Inc()
}

func (m *Metrics) DeadTokens(n int) {
	if m == nil {
		return
	}
	m.deadTokens.Add(float64(n))
}

func (m *Metrics) Pruned(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.pruned.WithLabelValues("deleted").Inc()
		return
	}
	m.pruned.WithLabelValues("error").Inc()
}

// Event records the outcome of one event bus message (dispatched, ignored, invalid, duplicate, error)
func (m *Metrics) Event(outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
