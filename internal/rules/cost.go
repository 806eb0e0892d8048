// internal/rules/cost.go
package rules

import "github.com/solatis/pricekeeper/internal/types"

/*
 * Cost model for condition evaluation.
 *
 * Conditions inside a rule are ANDed, so evaluating cheap ones first lets
 * the first non-match short-circuit the rest. Ordering never changes the
 * result because every condition is a pure predicate.
 *
 * cost = base cost of the kind + per-value cost for list scans
 */

const (
	// Base costs per condition kind
	CostThreshold = 1
	CostClock     = 2
	CostDate      = 3
	CostWeekday   = 2
	CostService   = 2

	// Per-element cost of scanning a weekday or id list
	CostPerListValue = 1

	// Unknown kinds sort last
	CostUnknown = 1 << 20
)

// ConditionCost computes the evaluation cost of a single condition.
func ConditionCost(cond types.Condition) int {
	switch c := cond.(type) {
	case types.ClientInactivity, types.DemandLevel, types.ClientLoyalty:
		return CostThreshold
	case types.TimeOfDay:
		return CostClock + len(c.Days)*CostPerListValue
	case types.DayOfWeek:
		return CostWeekday + len(c.Days)*CostPerListValue
	case types.Seasonal:
		return CostDate
	case types.ServiceType:
		return CostService + len(c.ServiceIDs)*CostPerListValue
	default:
		return CostUnknown
	}
}
