// Package metrics exposes Prometheus instrumentation for pricing evaluation.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Evaluation outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeFallback = "fallback"
)

// Metrics collects evaluation, snapshot and segment lookup counters.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	evaluations         *prometheus.CounterVec
	ruleApplied         *prometheus.CounterVec
	evaluationDuration  prometheus.Histogram
	snapshotReloads     prometheus.Counter
	segmentLookupErrors prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. Calling New again
// on the same registry reuses the collectors registered the first time.
func New(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{gatherer: reg}
	var err error

	if m.evaluations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricekeeper_evaluations_total",
		Help: "Total number of price evaluations by outcome",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	// rule_id is bounded by the rules stored for each tenant. Rule ids are
	// only unique per tenant, so tenant_id keeps series from colliding.
	if m.ruleApplied, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricekeeper_rule_applied_total",
		Help: "Total number of quotes produced by each pricing rule, per tenant",
	}, []string{"tenant_id", "rule_id"})); err != nil {
		return nil, err
	}
	if m.evaluationDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricekeeper_evaluation_duration_seconds",
		Help:    "Duration of price evaluations including snapshot and segment resolution",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})); err != nil {
		return nil, err
	}
	if m.snapshotReloads, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricekeeper_snapshot_reloads_total",
		Help: "Total number of rule snapshot reloads from the store",
	})); err != nil {
		return nil, err
	}
	if m.segmentLookupErrors, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricekeeper_segment_lookup_errors_total",
		Help: "Total number of failed segment membership lookups",
	})); err != nil {
		return nil, err
	}

	return m, nil
}

// register adds c to reg, returning the collector already registered under
// the same descriptor when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveEvaluation records one evaluation. ruleID is empty for fallbacks.
func (m *Metrics) ObserveEvaluation(tenantID, ruleID string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if ruleID == "" {
		m.evaluations.WithLabelValues(OutcomeFallback).Inc()
	} else {
		m.evaluations.WithLabelValues(OutcomeApplied).Inc()
		m.ruleApplied.WithLabelValues(tenantID, ruleID).Inc()
	}
	m.evaluationDuration.Observe(elapsed.Seconds())
}

// SnapshotReloaded records a snapshot reload.
func (m *Metrics) SnapshotReloaded() {
	if m == nil {
		return
	}
	m.snapshotReloads.Inc()
}

// SegmentLookupFailed records a failed segment lookup.
func (m *Metrics) SegmentLookupFailed() {
	if m == nil {
		return
	}
	m.segmentLookupErrors.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
