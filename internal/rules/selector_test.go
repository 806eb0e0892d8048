// internal/rules/selector_test.go
package rules

import (
	"testing"
	"time"

	"github.com/solatis/pricekeeper/internal/types"
)

func rule(id string, priority int, conds ...types.Condition) types.PricingRule {
	return types.PricingRule{
		ID:         types.RuleID(id),
		Name:       "rule " + id,
		IsActive:   true,
		Priority:   priority,
		Conditions: conds,
		Action:     types.PercentageDiscount{Value: dec("10")},
		Audience:   types.AllClients{},
	}
}

func ids(rules []types.PricingRule) []types.RuleID {
	out := make([]types.RuleID, len(rules))
	for i, r := range rules {
		out[i] = r.ID
	}
	return out
}

func TestSelect_PriorityOrdering(t *testing.T) {
	now := at(t, "2025-06-10 11:00")
	ctx := types.EvaluationContext{ServiceID: "svc"}

	for _, rules := range [][]types.PricingRule{
		{rule("b", 20), rule("a", 10)},
		{rule("a", 10), rule("b", 20)},
	} {
		got, ok := Select(rules, ctx, now, nil)
		if !ok {
			t.Fatalf("Select(%v) matched = false, want true", ids(rules))
		}
		if got.ID != "a" {
			t.Errorf("Select(%v) = %s, want a", ids(rules), got.ID)
		}
	}
}

func TestSelect_TieBreakByID(t *testing.T) {
	now := at(t, "2025-06-10 11:00")
	ctx := types.EvaluationContext{ServiceID: "svc"}

	orders := [][]types.PricingRule{
		{rule("r-2", 5), rule("r-1", 5), rule("r-3", 5)},
		{rule("r-3", 5), rule("r-2", 5), rule("r-1", 5)},
		{rule("r-1", 5), rule("r-3", 5), rule("r-2", 5)},
	}
	for _, rules := range orders {
		got, ok := Select(rules, ctx, now, nil)
		if !ok || got.ID != "r-1" {
			t.Errorf("Select(%v) = (%s, %v), want (r-1, true)", ids(rules), got.ID, ok)
		}
	}
}

func TestSelect_SkipsNonMatchingHigherPriority(t *testing.T) {
	now := at(t, "2025-06-10 15:00")
	rules := []types.PricingRule{
		rule("morning", 1, types.TimeOfDay{From: clock(6, 0), To: clock(10, 0)}),
		rule("fallback", 100),
	}

	got, ok := Select(rules, types.EvaluationContext{ServiceID: "svc"}, now, nil)
	if !ok || got.ID != "fallback" {
		t.Errorf("Select() = (%s, %v), want (fallback, true)", got.ID, ok)
	}
}

func TestSelect_InactiveExcluded(t *testing.T) {
	now := at(t, "2025-06-10 11:00")
	inactive := rule("a", 1)
	inactive.IsActive = false

	got, ok := Select([]types.PricingRule{inactive}, types.EvaluationContext{ServiceID: "svc"}, now, nil)
	if ok {
		t.Errorf("Select() = %s, want no match", got.ID)
	}

	got, ok = Select([]types.PricingRule{inactive, rule("b", 99)}, types.EvaluationContext{ServiceID: "svc"}, now, nil)
	if !ok || got.ID != "b" {
		t.Errorf("Select() = (%s, %v), want (b, true)", got.ID, ok)
	}
}

func TestSelect_ServiceScoping(t *testing.T) {
	now := at(t, "2025-06-10 11:00")
	scoped := rule("scoped", 1)
	scoped.ApplicableServiceIDs = []string{"svc-yoga"}
	global := rule("global", 2)
	rules := []types.PricingRule{scoped, global}

	tests := []struct {
		serviceID string
		want      types.RuleID
	}{
		{"svc-yoga", "scoped"},
		{"svc-spin", "global"},
	}
	for _, tt := range tests {
		got, ok := Select(rules, types.EvaluationContext{ServiceID: tt.serviceID}, now, nil)
		if !ok || got.ID != tt.want {
			t.Errorf("Select(%s) = (%s, %v), want (%s, true)", tt.serviceID, got.ID, ok, tt.want)
		}
	}
}

func TestSelect_AudienceFiltering(t *testing.T) {
	now := at(t, "2025-06-10 11:00")
	vip := rule("vip", 1)
	vip.Audience = types.Segment{SegmentID: "vip"}
	named := rule("named", 2)
	named.Audience = types.SpecificClients{ClientIDs: []string{"c2"}}
	rules := []types.PricingRule{vip, named, rule("everyone", 3)}
	lookup := memberships{"vip": {"c1": true}}

	tests := []struct {
		clientID string
		want     types.RuleID
	}{
		{"c1", "vip"},
		{"c2", "named"},
		{"c3", "everyone"},
		{"", "everyone"},
	}
	for _, tt := range tests {
		ctx := types.EvaluationContext{ServiceID: "svc", ClientID: tt.clientID}
		got, ok := Select(rules, ctx, now, lookup)
		if !ok || got.ID != tt.want {
			t.Errorf("Select(client %q) = (%s, %v), want (%s, true)", tt.clientID, got.ID, ok, tt.want)
		}
	}
}

func TestSelect_ZeroAtUsesNow(t *testing.T) {
	rules := []types.PricingRule{rule("lunch", 1, types.TimeOfDay{From: clock(12, 0), To: clock(13, 0)})}
	ctx := types.EvaluationContext{ServiceID: "svc"}

	if _, ok := Select(rules, ctx, at(t, "2025-06-10 12:30"), nil); !ok {
		t.Errorf("Select() at now=12:30 matched = false, want true")
	}
	if _, ok := Select(rules, ctx, at(t, "2025-06-10 18:00"), nil); ok {
		t.Errorf("Select() at now=18:00 matched = true, want false")
	}

	ctx.At = at(t, "2025-06-10 12:15")
	if _, ok := Select(rules, ctx, at(t, "2025-06-10 18:00"), nil); !ok {
		t.Errorf("Select() with explicit At matched = false, want true")
	}
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	rules := []types.PricingRule{rule("c", 3), rule("a", 1), rule("b", 2)}
	before := ids(rules)

	Select(rules, types.EvaluationContext{ServiceID: "svc"}, time.Now(), nil)

	after := ids(rules)
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("rules[%d].ID = %s after Select, want %s", i, after[i], before[i])
		}
	}
}

func TestSelect_Empty(t *testing.T) {
	if _, ok := Select(nil, types.EvaluationContext{}, time.Now(), nil); ok {
		t.Errorf("Select(nil) matched = true, want false")
	}
}
