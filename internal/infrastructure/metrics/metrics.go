// Package metrics provides Prometheus metrics for the referral service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of the service.
type Metrics struct {
	registry *prometheus.Registry

	// Referral pipeline
	ReferralsReceived prometheus.Counter
	BatchesProcessed  *prometheus.CounterVec
	BatchOperations   *prometheus.CounterVec

	// Rates
	RateLookups       *prometheus.CounterVec
	RateFetches       *prometheus.CounterVec
	RateFetchDuration *prometheus.HistogramVec

	// Error capture
	CapturedErrors *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on its own registry.
// referral_received_counter keeps its historical name without a namespace.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "referrals"
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		ReferralsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "referral_received_counter",
			Help: "Number of referrals inserted for the first time",
		}),
		BatchesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "batches_total",
			Help:      "Referral batches processed by outcome",
		}, []string{"outcome"}),
		BatchOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "operations_total",
			Help:      "Upsert operations by result",
		}, []string{"result"}),
		RateLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rates",
			Name:      "cache_lookups_total",
			Help:      "Rate cache lookups by base and result",
		}, []string{"base", "result"}),
		RateFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rates",
			Name:      "provider_fetches_total",
			Help:      "Rate provider fetches by base and outcome",
		}, []string{"base", "outcome"}),
		RateFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rates",
			Name:      "provider_fetch_duration_seconds",
			Help:      "Rate provider fetch latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"base"}),
		CapturedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "errors",
			Name:      "captured_total",
			Help:      "Non-fatal anomalies captured by kind",
		}, []string{"kind"}),
	}

	registry.MustRegister(
		m.ReferralsReceived,
		m.BatchesProcessed,
		m.BatchOperations,
		m.RateLookups,
		m.RateFetches,
		m.RateFetchDuration,
		m.CapturedErrors,
	)
	return m
}

// Handler returns the HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncReferralsReceived adds n newly inserted referrals.
func (m *Metrics) IncReferralsReceived(n int) {
	if n > 0 {
		m.ReferralsReceived.Add(float64(n))
	}
}

// ObserveBatch records the counts of one executed batch.
func (m *Metrics) ObserveBatch(matched, upserted, modified, failed int) {
	outcome := "ok"
	if failed > 0 {
		outcome = "partial_failure"
	}
	m.BatchesProcessed.WithLabelValues(outcome).Inc()
	m.BatchOperations.WithLabelValues("matched").Add(float64(matched))
	m.BatchOperations.WithLabelValues("upserted").Add(float64(upserted))
	m.BatchOperations.WithLabelValues("modified").Add(float64(modified))
	m.BatchOperations.WithLabelValues("failed").Add(float64(failed))
}

// ObserveLookup records a rate cache lookup.
func (m *Metrics) ObserveLookup(base, result string) {
	m.RateLookups.WithLabelValues(base, result).Inc()
}

// ObserveFetch records a rate provider fetch.
func (m *Metrics) ObserveFetch(base string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.RateFetches.WithLabelValues(base, outcome).Inc()
	m.RateFetchDuration.WithLabelValues(base).Observe(duration.Seconds())
}

// IncCapturedError records a captured anomaly.
func (m *Metrics) IncCapturedError(kind string) {
	m.CapturedErrors.WithLabelValues(kind).Inc()
}
