// internal/rules/operators.go
package rules

import "time"

/*
 * Comparison helpers for condition evaluation.
 *
 * Threshold conditions compare an optional context metric against a rule
 * threshold. A nil metric means the caller did not supply it; every operator
 * then reports false so the condition (and its rule) is skipped rather than
 * failing the evaluation.
 *
 * Membership helpers are linear scans. Rule lists are bounded by
 * types.MaxListValues at validation time, which keeps scans cheaper than
 * building a set per evaluation.
 */

// Operator selects the threshold comparison.
type Operator int

const (
	OpUnspecified Operator = iota
	OpGte
	OpLte
)

// CompareThreshold applies op to value and threshold.
// Returns false for a nil value or an unspecified operator.
func CompareThreshold(op Operator, value *int, threshold int) bool {
	if value == nil {
		return false
	}
	switch op {
	case OpGte:
		return *value >= threshold
	case OpLte:
		return *value <= threshold
	default:
		return false
	}
}

// containsString reports whether s is in set.
func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// weekdayAllowed reports whether day is in days. Empty days allows every day.
func weekdayAllowed(days []time.Weekday, day time.Weekday) bool {
	if len(days) == 0 {
		return true
	}
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
