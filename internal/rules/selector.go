// internal/rules/selector.go
package rules

import (
	"sort"
	"time"

	"github.com/solatis/pricekeeper/internal/types"
)

/*
 * Rule selection.
 *
 * Selection flow:
 *   1. Drop inactive rules
 *   2. Drop rules scoped to other services
 *   3. Drop rules whose audience excludes the client
 *   4. Order by (Priority asc, ID asc); the id tie-break makes the winner a
 *      function of the rule set, not of the order the store returned it in
 *   5. First rule whose conditions all match wins
 *
 * The input slice is a caller-owned snapshot and is never reordered or
 * modified; sorting happens over an index slice.
 */

// Select returns the winning rule for ctx, or false when none matches.
// A zero ctx.At is replaced by now.
func Select(rules []types.PricingRule, ctx types.EvaluationContext, now time.Time, segments types.SegmentLookup) (types.PricingRule, bool) {
	if ctx.At.IsZero() {
		ctx.At = now
	}

	candidates := make([]int, 0, len(rules))
	for i := range rules {
		r := &rules[i]
		if !r.IsActive {
			continue
		}
		if !r.AppliesToService(ctx.ServiceID) {
			continue
		}
		if !AudienceApplies(r.Audience, ctx, segments) {
			continue
		}
		candidates = append(candidates, i)
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return ruleLess(&rules[candidates[a]], &rules[candidates[b]])
	})

	for _, i := range candidates {
		if MatchesAll(rules[i].Conditions, ctx) {
			return rules[i], true
		}
	}
	return types.PricingRule{}, false
}

// ruleLess orders rules by priority, then lexically by id.
func ruleLess(a, b *types.PricingRule) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.ID < b.ID
}
