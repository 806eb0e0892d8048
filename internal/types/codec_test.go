package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPricingRule_JSONRoundTrip(t *testing.T) {
	rule := PricingRule{
		ID:       "rule-001",
		Name:     "happy-hour",
		IsActive: true,
		Priority: 10,
		Conditions: []Condition{
			TimeOfDay{From: NewClockTime(10, 0), To: NewClockTime(14, 0), Days: []time.Weekday{time.Monday, time.Tuesday}},
			DayOfWeek{Days: []time.Weekday{time.Saturday}},
			ClientInactivity{DaysInactive: 30},
			Seasonal{Start: Date{2025, time.June, 1}, End: Date{2025, time.August, 31}},
			DemandLevel{RemainingSlots: 5},
			ClientLoyalty{MinMonthsAsClient: 12},
			ServiceType{ServiceIDs: []string{"yoga"}},
		},
		Action:               FixedDiscount{Value: decimal.RequireFromString("20.50"), Currency: "EUR"},
		Audience:             SpecificClients{ClientIDs: []string{"c1", "c2"}},
		ApplicableServiceIDs: []string{"yoga", "spinning"},
	}

	data, err := json.Marshal(rule)
	if err != nil {
		t.Fatalf("Marshal() error = %v, want nil", err)
	}

	var got PricingRule
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v, want nil", err)
	}

	if len(got.Conditions) != len(rule.Conditions) {
		t.Fatalf("len(Conditions) = %v, want %v", len(got.Conditions), len(rule.Conditions))
	}
	for i, kind := range AllConditionKinds {
		if got.Conditions[i].Kind() != kind {
			t.Errorf("Conditions[%d].Kind() = %v, want %v", i, got.Conditions[i].Kind(), kind)
		}
	}
	tod := got.Conditions[0].(TimeOfDay)
	if tod.From != NewClockTime(10, 0) || tod.To != NewClockTime(14, 0) || len(tod.Days) != 2 {
		t.Errorf("TimeOfDay = %+v, want 10:00-14:00 on 2 days", tod)
	}
	fd, ok := got.Action.(FixedDiscount)
	if !ok {
		t.Fatalf("Action = %T, want FixedDiscount", got.Action)
	}
	if !fd.Value.Equal(decimal.RequireFromString("20.5")) || fd.Currency != "EUR" {
		t.Errorf("Action = %+v, want 20.5 EUR", fd)
	}
	if got.Audience.Kind() != AudienceSpecificClients {
		t.Errorf("Audience.Kind() = %v, want specific_clients", got.Audience.Kind())
	}
}

func TestUnmarshal_UnknownConditionType(t *testing.T) {
	data := []byte(`{"id":"r1","name":"x","conditions":[{"type":"moon_phase"}],"action":{"type":"fixed_price","value":"10"}}`)

	var rule PricingRule
	err := json.Unmarshal(data, &rule)
	if err == nil {
		t.Fatal("Unmarshal() error = nil, want unknown kind error")
	}
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("errors.Is(err, ErrUnknownKind) = false for %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("errors.Is(err, ErrValidation) = false for %v", err)
	}
}

func TestUnmarshal_UnknownActionType(t *testing.T) {
	_, err := UnmarshalAction([]byte(`{"type":"buy_one_get_one","value":"1"}`))
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("UnmarshalAction() error = %v, want ErrUnknownKind", err)
	}
}

func TestUnmarshal_MissingThreshold(t *testing.T) {
	_, err := UnmarshalConditions([]byte(`[{"type":"client_loyalty"}]`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("UnmarshalConditions() error = %v, want ValidationError", err)
	}
	if verr.Field != "conditions[0].min_months_as_client" {
		t.Errorf("Field = %v, want conditions[0].min_months_as_client", verr.Field)
	}
}

func TestUnmarshalAudience_DefaultsToAll(t *testing.T) {
	aud, err := UnmarshalAudience([]byte(`null`))
	if err != nil {
		t.Fatalf("UnmarshalAudience() error = %v, want nil", err)
	}
	if aud.Kind() != AudienceAll {
		t.Errorf("Kind() = %v, want all", aud.Kind())
	}
}

func TestKindStrings_CoverAllKinds(t *testing.T) {
	for _, k := range AllConditionKinds {
		if k.String() == "unknown" {
			t.Errorf("ConditionKind(%d) has no type tag", int(k))
		}
	}
	for _, k := range AllActionKinds {
		if k.String() == "unknown" {
			t.Errorf("ActionKind(%d) has no type tag", int(k))
		}
	}
	for _, k := range AllAudienceKinds {
		if k.String() == "unknown" {
			t.Errorf("AudienceKind(%d) has no type tag", int(k))
		}
	}
}
