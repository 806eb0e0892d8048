// internal/rules/evaluate.go
package rules

import (
	"sort"

	"github.com/solatis/pricekeeper/internal/types"
)

/*
 * Condition evaluation.
 *
 * Matches is total: it never panics and never returns an error. Conditions
 * needing context data the caller did not supply evaluate to false, which
 * skips the rule instead of failing the evaluation.
 *
 * Evaluation flow for one rule:
 *   1. Zero conditions: unconditional match (catch-all rules)
 *   2. Order conditions by ascending cost (stable, over an index slice so the
 *      rule's own slice is never reordered)
 *   3. AND: stop at the first non-matching condition
 *
 * Boundaries are inclusive: a 10:00-14:00 window matches at 14:00 exactly,
 * a season ending 2025-08-31 matches on 2025-08-31.
 */

// Matches reports whether cond holds for ctx.
// ctx.At must already be resolved; Select does this before calling.
func Matches(cond types.Condition, ctx types.EvaluationContext) bool {
	switch c := cond.(type) {
	case types.TimeOfDay:
		clock := types.ClockOf(ctx.At)
		return c.From <= clock && clock <= c.To && weekdayAllowed(c.Days, ctx.At.Weekday())
	case types.DayOfWeek:
		return weekdayAllowed(c.Days, ctx.At.Weekday())
	case types.ClientInactivity:
		return ctx.HasClient() && CompareThreshold(OpGte, ctx.DaysSinceLastActivity, c.DaysInactive)
	case types.Seasonal:
		date := types.DateOf(ctx.At)
		return c.Start.Compare(date) <= 0 && date.Compare(c.End) <= 0
	case types.DemandLevel:
		return CompareThreshold(OpLte, ctx.RemainingSlots, c.RemainingSlots)
	case types.ClientLoyalty:
		return ctx.HasClient() && CompareThreshold(OpGte, ctx.MonthsAsClient, c.MinMonthsAsClient)
	case types.ServiceType:
		return containsString(c.ServiceIDs, ctx.ServiceID)
	default:
		return false
	}
}

// MatchesAll reports whether every condition holds (AND).
// An empty list matches unconditionally.
func MatchesAll(conds []types.Condition, ctx types.EvaluationContext) bool {
	switch len(conds) {
	case 0:
		return true
	case 1:
		return Matches(conds[0], ctx)
	}

	for _, i := range costOrder(conds) {
		if !Matches(conds[i], ctx) {
			return false
		}
	}
	return true
}

// costOrder returns condition indices sorted by ascending cost.
// Stable sort: equal-cost conditions keep their configured order.
func costOrder(conds []types.Condition) []int {
	order := make([]int, len(conds))
	costs := make([]int, len(conds))
	for i, c := range conds {
		order[i] = i
		costs[i] = ConditionCost(c)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return costs[order[a]] < costs[order[b]]
	})
	return order
}
