// Package types provides domain models shared across PriceKeeper components.
//
// Engine-facing types (rules, conditions, actions, audiences, contexts and
// quotes) live here so that internal/rules stays a pure function of its
// inputs and the storage and transport layers can share one JSON codec.
// Monetary values use shopspring/decimal; nothing in this package performs
// I/O.
package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ClockTime is a wall-clock time of day at minute resolution,
// stored as minutes since midnight (0..1439).
type ClockTime int

// MinutesPerDay bounds ClockTime values.
const MinutesPerDay = 24 * 60

// NewClockTime builds a ClockTime from hour and minute.
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime parses "HH:MM" (24h).
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return NewClockTime(t.Hour(), t.Minute()), nil
}

// ClockOf truncates t to its minute-resolution time of day.
func ClockOf(t time.Time) ClockTime {
	return NewClockTime(t.Hour(), t.Minute())
}

// Valid reports whether c is within a single day.
func (c ClockTime) Valid() bool {
	return c >= 0 && c < MinutesPerDay
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Date is a calendar date without time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Compare returns -1, 0 or 1 ordering d relative to other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// EvaluationContext is the read-only input to one evaluation.
// Derived metrics are supplied by the caller; nil means the caller does not
// know the value and any condition needing it will not match.
type EvaluationContext struct {
	ServiceID string
	ClientID  string    // empty = anonymous request
	At        time.Time // request date and time in the business' location; zero = evaluation time

	DaysSinceLastActivity *int
	RemainingSlots        *int
	MonthsAsClient        *int
}

// HasClient reports whether the request identifies a client.
func (c EvaluationContext) HasClient() bool {
	return c.ClientID != ""
}

// PriceQuote is the outcome of one evaluation.
// AppliedRuleID is empty when no rule matched and the base price applies.
type PriceQuote struct {
	OriginalPrice   decimal.Decimal
	FinalPrice      decimal.Decimal
	DiscountAmount  decimal.Decimal // OriginalPrice - FinalPrice; negative for increases
	AppliedRuleID   RuleID
	AppliedRuleName string
}

// Applied reports whether a rule produced this quote.
func (q PriceQuote) Applied() bool {
	return q.AppliedRuleID != ""
}

// SegmentLookup answers segment membership for the audience matcher.
// Implementations must not block; resolve memberships before evaluating.
type SegmentLookup interface {
	IsClientInSegment(clientID, segmentID string) bool
}

// Limits enforced by the administrative layer when rules are written.
const (
	// MaxConditionsPerRule bounds per-rule evaluation work.
	MaxConditionsPerRule = 32

	// MaxListValues bounds service, client and weekday lists inside a rule.
	MaxListValues = 1024

	// MaxPercentageDiscount is the largest percentage a discount may remove.
	MaxPercentageDiscount = 100

	// MaxRuleNameLength keeps names displayable in the dashboard tables.
	MaxRuleNameLength = 120
)
