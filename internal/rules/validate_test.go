// internal/rules/validate_test.go
package rules

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/solatis/pricekeeper/internal/types"
)

func validRule() types.PricingRule {
	r := weekdayDiscount()
	r.Conditions = nil
	for _, kind := range types.AllConditionKinds {
		r.Conditions = append(r.Conditions, sampleConditions[kind])
	}
	return r
}

func TestValidate_Accepts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *types.PricingRule)
	}{
		{"all condition kinds", func(r *types.PricingRule) {}},
		{"no conditions", func(r *types.PricingRule) { r.Conditions = nil }},
		{"nil audience", func(r *types.PricingRule) { r.Audience = nil }},
		{"segment audience", func(r *types.PricingRule) { r.Audience = types.Segment{SegmentID: "vip"} }},
		{"hundred percent discount", func(r *types.PricingRule) { r.Action = types.PercentageDiscount{Value: dec("100")} }},
		{"increase above hundred", func(r *types.PricingRule) { r.Action = types.PercentageIncrease{Value: dec("250")} }},
		{"fixed price with currency", func(r *types.PricingRule) { r.Action = types.FixedPrice{Value: dec("9.99"), Currency: "EUR"} }},
		{"zero fixed discount", func(r *types.PricingRule) { r.Action = types.FixedDiscount{Value: dec("0")} }},
		{"single day season", func(r *types.PricingRule) {
			d := types.Date{Year: 2025, Month: time.December, Day: 24}
			r.Conditions = []types.Condition{types.Seasonal{Start: d, End: d}}
		}},
		{"scoped to services", func(r *types.PricingRule) { r.ApplicableServiceIDs = []string{"svc-1", "svc-2"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(&r)
			if err := Validate(&r); err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(r *types.PricingRule)
		wantField   string
		wantUnknown bool
	}{
		{"empty id", func(r *types.PricingRule) { r.ID = "" }, "PricingRule.ID", false},
		{"empty name", func(r *types.PricingRule) { r.Name = "" }, "PricingRule.Name", false},
		{"long name", func(r *types.PricingRule) { r.Name = strings.Repeat("x", types.MaxRuleNameLength+1) }, "PricingRule.Name", false},
		{"too many conditions", func(r *types.PricingRule) {
			r.Conditions = make([]types.Condition, types.MaxConditionsPerRule+1)
			for i := range r.Conditions {
				r.Conditions[i] = types.DayOfWeek{}
			}
		}, "PricingRule.Conditions", false},
		{"empty service id", func(r *types.PricingRule) { r.ApplicableServiceIDs = []string{"svc", ""} }, "PricingRule.ApplicableServiceIDs[1]", false},

		{"negative percentage", func(r *types.PricingRule) { r.Action = types.PercentageDiscount{Value: dec("-5")} }, "action.value", false},
		{"percentage over hundred", func(r *types.PricingRule) { r.Action = types.PercentageDiscount{Value: dec("100.01")} }, "action.value", false},
		{"negative fixed discount", func(r *types.PricingRule) { r.Action = types.FixedDiscount{Value: dec("-1")} }, "action.value", false},
		{"negative fixed price", func(r *types.PricingRule) { r.Action = types.FixedPrice{Value: dec("-0.01")} }, "action.value", false},
		{"negative increase", func(r *types.PricingRule) { r.Action = types.PercentageIncrease{Value: dec("-3")} }, "action.value", false},
		{"bad currency", func(r *types.PricingRule) { r.Action = types.FixedPrice{Value: dec("5"), Currency: "euro"} }, "action.currency", false},
		{"missing action", func(r *types.PricingRule) { r.Action = nil }, "action", false},

		{"nil condition", func(r *types.PricingRule) { r.Conditions = []types.Condition{nil} }, "conditions[0]", true},
		{"inverted window", func(r *types.PricingRule) {
			r.Conditions = []types.Condition{types.TimeOfDay{From: clock(22, 0), To: clock(6, 0)}}
		}, "conditions[0]", false},
		{"clock out of range", func(r *types.PricingRule) {
			r.Conditions = []types.Condition{types.TimeOfDay{From: clock(0, 0), To: types.ClockTime(types.MinutesPerDay)}}
		}, "conditions[0].to", false},
		{"weekday out of range", func(r *types.PricingRule) {
			r.Conditions = []types.Condition{types.DayOfWeek{Days: []time.Weekday{7}}}
		}, "conditions[0].days", false},
		{"negative inactivity", func(r *types.PricingRule) {
			r.Conditions = []types.Condition{types.DayOfWeek{}, types.ClientInactivity{DaysInactive: -1}}
		}, "conditions[1].days_inactive", false},
		{"negative slots", func(r *types.PricingRule) {
			r.Conditions = []types.Condition{types.DemandLevel{RemainingSlots: -1}}
		}, "conditions[0].remaining_slots", false},
		{"negative loyalty", func(r *types.PricingRule) {
			r.Conditions = []types.Condition{types.ClientLoyalty{MinMonthsAsClient: -12}}
		}, "conditions[0].min_months_as_client", false},
		{"inverted season", func(r *types.PricingRule) {
			r.Conditions = []types.Condition{types.Seasonal{
				Start: types.Date{Year: 2025, Month: time.September, Day: 1},
				End:   types.Date{Year: 2025, Month: time.June, Day: 1},
			}}
		}, "conditions[0]", false},
		{"missing season end", func(r *types.PricingRule) {
			r.Conditions = []types.Condition{types.Seasonal{Start: types.Date{Year: 2025, Month: time.June, Day: 1}}}
		}, "conditions[0].end_date", false},
		{"empty service list", func(r *types.PricingRule) {
			r.Conditions = []types.Condition{types.ServiceType{}}
		}, "conditions[0].service_ids", false},

		{"empty segment", func(r *types.PricingRule) { r.Audience = types.Segment{} }, "target_audience.segment_id", false},
		{"empty client list", func(r *types.PricingRule) { r.Audience = types.SpecificClients{} }, "target_audience.client_ids", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(&r)

			err := Validate(&r)
			if err == nil {
				t.Fatalf("Validate() error = nil, want error")
			}
			if !errors.Is(err, types.ErrValidation) {
				t.Errorf("errors.Is(err, ErrValidation) = false for %v", err)
			}

			var verr *types.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error type = %T, want *types.ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
			if got := errors.Is(err, types.ErrUnknownKind); got != tt.wantUnknown {
				t.Errorf("errors.Is(err, ErrUnknownKind) = %v, want %v", got, tt.wantUnknown)
			}
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	if err := Validate(nil); !errors.Is(err, types.ErrValidation) {
		t.Errorf("Validate(nil) error = %v, want ErrValidation", err)
	}
}
