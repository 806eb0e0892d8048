// internal/types/rules.go
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

/*
 * Domain types for pricing rule evaluation.
 *
 * Conditions, actions and audiences are closed sets. Each is a sealed
 * interface (unexported marker method) so only this package can add kinds,
 * and every kind has a Kind enum value listed in All*Kinds. Dispatch sites
 * switch on the concrete type and are covered by tests that walk the
 * All*Kinds lists, so a new kind fails those tests until every switch
 * handles it.
 *
 * Key types:
 *   - PricingRule: prioritized, conditional pricing policy
 *   - Condition: one predicate over an EvaluationContext
 *   - Action: price transformation applied by the winning rule
 *   - Audience: clients a rule may affect
 */

// PricingRule is the unit of pricing configuration.
type PricingRule struct {
	ID                   RuleID      `validate:"required,max=64"`
	Name                 string      `validate:"required,max=120"`
	Description          string      `validate:"max=2000"`
	IsActive             bool
	Priority             int         // lower value evaluated first
	Conditions           []Condition `validate:"max=32"`
	Action               Action
	Audience             Audience
	ApplicableServiceIDs []string    `validate:"max=1024,dive,required"` // empty = all services
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// AppliesToService reports whether the rule is scoped to serviceID.
func (r *PricingRule) AppliesToService(serviceID string) bool {
	if len(r.ApplicableServiceIDs) == 0 {
		return true
	}
	for _, id := range r.ApplicableServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}

// ConditionKind enumerates condition variants.
type ConditionKind int

const (
	ConditionUnknown ConditionKind = iota
	ConditionTimeOfDay
	ConditionDayOfWeek
	ConditionClientInactivity
	ConditionSeasonal
	ConditionDemandLevel
	ConditionClientLoyalty
	ConditionServiceType
)

// AllConditionKinds lists every valid condition kind.
var AllConditionKinds = []ConditionKind{
	ConditionTimeOfDay,
	ConditionDayOfWeek,
	ConditionClientInactivity,
	ConditionSeasonal,
	ConditionDemandLevel,
	ConditionClientLoyalty,
	ConditionServiceType,
}

// Condition is a single predicate tested against an EvaluationContext.
type Condition interface {
	Kind() ConditionKind
	isCondition()
}

// TimeOfDay matches From <= time <= To, optionally restricted to Days.
// Empty Days means every day.
type TimeOfDay struct {
	From ClockTime
	To   ClockTime
	Days []time.Weekday
}

// DayOfWeek matches when the request weekday is in Days.
// Empty Days means every day.
type DayOfWeek struct {
	Days []time.Weekday
}

// ClientInactivity matches clients inactive for at least DaysInactive days.
type ClientInactivity struct {
	DaysInactive int
}

// Seasonal matches request dates within [Start, End], both inclusive.
// Dates are year-bound: a yearly promotion is one rule per year.
type Seasonal struct {
	Start Date
	End   Date
}

// DemandLevel matches when remaining capacity is at most RemainingSlots.
type DemandLevel struct {
	RemainingSlots int
}

// ClientLoyalty matches clients with tenure of at least MinMonthsAsClient.
type ClientLoyalty struct {
	MinMonthsAsClient int
}

// ServiceType matches when the requested service is in ServiceIDs.
type ServiceType struct {
	ServiceIDs []string
}

func (TimeOfDay) Kind() ConditionKind        { return ConditionTimeOfDay }
func (DayOfWeek) Kind() ConditionKind        { return ConditionDayOfWeek }
func (ClientInactivity) Kind() ConditionKind { return ConditionClientInactivity }
func (Seasonal) Kind() ConditionKind         { return ConditionSeasonal }
func (DemandLevel) Kind() ConditionKind      { return ConditionDemandLevel }
func (ClientLoyalty) Kind() ConditionKind    { return ConditionClientLoyalty }
func (ServiceType) Kind() ConditionKind      { return ConditionServiceType }

func (TimeOfDay) isCondition()        {}
func (DayOfWeek) isCondition()        {}
func (ClientInactivity) isCondition() {}
func (Seasonal) isCondition()         {}
func (DemandLevel) isCondition()      {}
func (ClientLoyalty) isCondition()    {}
func (ServiceType) isCondition()      {}

// ActionKind enumerates action variants.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionPercentageDiscount
	ActionFixedDiscount
	ActionFixedPrice
	ActionPercentageIncrease
)

// AllActionKinds lists every valid action kind.
var AllActionKinds = []ActionKind{
	ActionPercentageDiscount,
	ActionFixedDiscount,
	ActionFixedPrice,
	ActionPercentageIncrease,
}

// Action is the price transformation applied when a rule wins.
// Values are non-negative; percentages are out of 100.
type Action interface {
	Kind() ActionKind
	Amount() decimal.Decimal
	isAction()
}

// PercentageDiscount removes Value percent of the base price.
type PercentageDiscount struct {
	Value decimal.Decimal
}

// FixedDiscount removes a fixed amount, never going below zero.
type FixedDiscount struct {
	Value    decimal.Decimal
	Currency string
}

// FixedPrice replaces the base price.
type FixedPrice struct {
	Value    decimal.Decimal
	Currency string
}

// PercentageIncrease adds Value percent to the base price.
type PercentageIncrease struct {
	Value decimal.Decimal
}

func (PercentageDiscount) Kind() ActionKind { return ActionPercentageDiscount }
func (FixedDiscount) Kind() ActionKind      { return ActionFixedDiscount }
func (FixedPrice) Kind() ActionKind         { return ActionFixedPrice }
func (PercentageIncrease) Kind() ActionKind { return ActionPercentageIncrease }

func (a PercentageDiscount) Amount() decimal.Decimal { return a.Value }
func (a FixedDiscount) Amount() decimal.Decimal      { return a.Value }
func (a FixedPrice) Amount() decimal.Decimal         { return a.Value }
func (a PercentageIncrease) Amount() decimal.Decimal { return a.Value }

func (PercentageDiscount) isAction() {}
func (FixedDiscount) isAction()      {}
func (FixedPrice) isAction()         {}
func (PercentageIncrease) isAction() {}

// AudienceKind enumerates audience variants.
type AudienceKind int

const (
	AudienceUnknown AudienceKind = iota
	AudienceAll
	AudienceSegment
	AudienceSpecificClients
)

// AllAudienceKinds lists every valid audience kind.
var AllAudienceKinds = []AudienceKind{
	AudienceAll,
	AudienceSegment,
	AudienceSpecificClients,
}

// Audience is the set of clients a rule is eligible to affect.
type Audience interface {
	Kind() AudienceKind
	isAudience()
}

// AllClients targets every request, including anonymous ones.
type AllClients struct{}

// Segment targets members of an externally computed client segment.
type Segment struct {
	SegmentID string
}

// SpecificClients targets an explicit client list.
type SpecificClients struct {
	ClientIDs []string
}

func (AllClients) Kind() AudienceKind      { return AudienceAll }
func (Segment) Kind() AudienceKind         { return AudienceSegment }
func (SpecificClients) Kind() AudienceKind { return AudienceSpecificClients }

func (AllClients) isAudience()      {}
func (Segment) isAudience()         {}
func (SpecificClients) isAudience() {}
