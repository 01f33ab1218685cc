// Package metrics exports Prometheus counters for the scoring engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "placement_engine"

// Outcome labels.
const (
	OutcomeSuccess      = "success"
	OutcomeFallback     = "fallback"
	OutcomeCached       = "cached"
	OutcomeError        = "error"
	OutcomeUnconfigured = "unconfigured"
)

// Metrics holds the engine counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	OracleCalls      *prometheus.CounterVec
	ProviderQueries  *prometheus.CounterVec
	SignalMisses     *prometheus.CounterVec
	Recomputes       prometheus.Counter
	ExternalDeduped  prometheus.Counter
	ExternalPersists *prometheus.CounterVec
}

// New registers the counters on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		OracleCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Match scoring attempts by outcome.",
		}, []string{"operation", "outcome"}),
		ProviderQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_queries_total",
			Help:      "External job-search queries by outcome.",
		}, []string{"outcome"}),
		SignalMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "career_signal_misses_total",
			Help:      "Career score signals treated as zero because they were absent or unreadable.",
		}, []string{"signal"}),
		Recomputes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "career_recomputes_total",
			Help:      "Career score recomputations.",
		}),
		ExternalDeduped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_duplicates_total",
			Help:      "External results dropped as duplicates of an earlier URL.",
		}),
		ExternalPersists: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_persist_total",
			Help:      "External job cache upserts by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Oracle(operation, outcome string) {
	if m == nil {
		return
	}
	m.OracleCalls.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) Provider(outcome string) {
	if m == nil {
		return
	}
	m.ProviderQueries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SignalMissing(signal string) {
	if m == nil {
		return
	}
	m.SignalMisses.WithLabelValues(signal).Inc()
}

func (m *Metrics) Recomputed() {
	if m == nil {
		return
	}
	m.Recomputes.Inc()
}

func (m *Metrics) Deduplicated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ExternalDeduped.Add(float64(n))
}

func (m *Metrics) Persisted(outcome string) {
	if m == nil {
		return
	}
	m.ExternalPersists.WithLabelValues(outcome).Inc()
}
