package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveEvaluation(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m.ObserveEvaluation("gym-1", "rule-1", time.Millisecond)
	m.ObserveEvaluation("gym-1", "rule-1", time.Millisecond)
	m.ObserveEvaluation("gym-1", "", time.Millisecond)

	if got := testutil.ToFloat64(m.evaluations.WithLabelValues(OutcomeApplied)); got != 2 {
		t.Errorf("evaluations{applied} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.evaluations.WithLabelValues(OutcomeFallback)); got != 1 {
		t.Errorf("evaluations{fallback} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ruleApplied.WithLabelValues("gym-1", "rule-1")); got != 2 {
		t.Errorf("rule_applied{rule-1} = %v, want 2", got)
	}
}

func TestCounters(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m.SnapshotReloaded()
	m.SegmentLookupFailed()
	m.SegmentLookupFailed()

	if got := testutil.ToFloat64(m.snapshotReloads); got != 1 {
		t.Errorf("snapshot_reloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.segmentLookupErrors); got != 2 {
		t.Errorf("segment_lookup_errors = %v, want 2", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveEvaluation("gym-1", "rule-1", time.Second)
	m.SnapshotReloaded()
	m.SegmentLookupFailed()
}

func TestHandler(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m.ObserveEvaluation("gym-1", "rule-1", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `pricekeeper_rule_applied_total{rule_id="rule-1",tenant_id="gym-1"} 1`) {
		t.Errorf("metrics output missing rule_applied sample:\n%s", body)
	}
}

func TestNew_SameRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	if err != nil {
		t.Fatalf("first New() error = %v", err)
	}
	second, err := New(reg)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}

	first.ObserveEvaluation("gym-1", "rule-1", time.Millisecond)
	second.ObserveEvaluation("gym-1", "rule-1", time.Millisecond)
	second.SnapshotReloaded()

	if got := testutil.ToFloat64(first.ruleApplied.WithLabelValues("gym-1", "rule-1")); got != 2 {
		t.Errorf("rule_applied{gym-1,rule-1} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(first.snapshotReloads); got != 1 {
		t.Errorf("snapshot_reloads = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) != 5 {
		t.Errorf("Gather() returned %d families, want 5", len(families))
	}
}

func TestRuleApplied_TenantLabel(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m.ObserveEvaluation("gym-1", "lunch", time.Millisecond)
	m.ObserveEvaluation("gym-2", "lunch", time.Millisecond)

	if got := testutil.CollectAndCount(m.ruleApplied); got != 2 {
		t.Errorf("rule_applied series = %d, want 2", got)
	}
}
