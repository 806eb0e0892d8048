package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// JSON codec for the sealed variants.
//
// Every variant is an object tagged by "type". The same encoding is used by
// the rule store (JSON text columns) and by the gRPC API, so the decoder is
// the single place where an unknown type tag is turned into a
// ValidationError wrapping ErrUnknownKind.

const (
	tagTimeOfDay        = "time_of_day"
	tagDayOfWeek        = "day_of_week"
	tagClientInactivity = "client_inactivity"
	tagSeasonal         = "seasonal"
	tagDemandLevel      = "demand_level"
	tagClientLoyalty    = "client_loyalty"
	tagServiceType      = "service_type"

	tagPercentageDiscount = "percentage_discount"
	tagFixedDiscount      = "fixed_discount"
	tagFixedPrice         = "fixed_price"
	tagPercentageIncrease = "percentage_increase"

	tagAudienceAll      = "all"
	tagAudienceSegment  = "segment"
	tagAudienceSpecific = "specific_clients"
)

func (k ConditionKind) String() string {
	switch k {
	case ConditionTimeOfDay:
		return tagTimeOfDay
	case ConditionDayOfWeek:
		return tagDayOfWeek
	case ConditionClientInactivity:
		return tagClientInactivity
	case ConditionSeasonal:
		return tagSeasonal
	case ConditionDemandLevel:
		return tagDemandLevel
	case ConditionClientLoyalty:
		return tagClientLoyalty
	case ConditionServiceType:
		return tagServiceType
	default:
		return "unknown"
	}
}

func (k ActionKind) String() string {
	switch k {
	case ActionPercentageDiscount:
		return tagPercentageDiscount
	case ActionFixedDiscount:
		return tagFixedDiscount
	case ActionFixedPrice:
		return tagFixedPrice
	case ActionPercentageIncrease:
		return tagPercentageIncrease
	default:
		return "unknown"
	}
}

func (k AudienceKind) String() string {
	switch k {
	case AudienceAll:
		return tagAudienceAll
	case AudienceSegment:
		return tagAudienceSegment
	case AudienceSpecificClients:
		return tagAudienceSpecific
	default:
		return "unknown"
	}
}

type conditionJSON struct {
	Type              string   `json:"type"`
	From              string   `json:"from,omitempty"`
	To                string   `json:"to,omitempty"`
	Days              []int    `json:"days,omitempty"`
	DaysInactive      *int     `json:"days_inactive,omitempty"`
	StartDate         string   `json:"start_date,omitempty"`
	EndDate           string   `json:"end_date,omitempty"`
	RemainingSlots    *int     `json:"remaining_slots,omitempty"`
	MinMonthsAsClient *int     `json:"min_months_as_client,omitempty"`
	ServiceIDs        []string `json:"service_ids,omitempty"`
}

type actionJSON struct {
	Type     string          `json:"type"`
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency,omitempty"`
}

type audienceJSON struct {
	Type      string   `json:"type"`
	SegmentID string   `json:"segment_id,omitempty"`
	ClientIDs []string `json:"client_ids,omitempty"`
}

type ruleJSON struct {
	ID                   RuleID          `json:"id"`
	Name                 string          `json:"name"`
	Description          string          `json:"description,omitempty"`
	IsActive             bool            `json:"is_active"`
	Priority             int             `json:"priority"`
	Conditions           []conditionJSON `json:"conditions"`
	Action               *actionJSON     `json:"action"`
	Audience             *audienceJSON   `json:"target_audience,omitempty"`
	ApplicableServiceIDs []string        `json:"applicable_service_ids,omitempty"`
	CreatedAt            *time.Time      `json:"created_at,omitempty"`
	UpdatedAt            *time.Time      `json:"updated_at,omitempty"`
}

func intPtr(v int) *int { return &v }

func weekdaysToInts(days []time.Weekday) []int {
	if len(days) == 0 {
		return nil
	}
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}

func intsToWeekdays(days []int) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	out := make([]time.Weekday, len(days))
	for i, d := range days {
		out[i] = time.Weekday(d)
	}
	return out
}

func encodeCondition(c Condition) (conditionJSON, error) {
	switch v := c.(type) {
	case TimeOfDay:
		return conditionJSON{Type: tagTimeOfDay, From: v.From.String(), To: v.To.String(), Days: weekdaysToInts(v.Days)}, nil
	case DayOfWeek:
		return conditionJSON{Type: tagDayOfWeek, Days: weekdaysToInts(v.Days)}, nil
	case ClientInactivity:
		return conditionJSON{Type: tagClientInactivity, DaysInactive: intPtr(v.DaysInactive)}, nil
	case Seasonal:
		return conditionJSON{Type: tagSeasonal, StartDate: v.Start.String(), EndDate: v.End.String()}, nil
	case DemandLevel:
		return conditionJSON{Type: tagDemandLevel, RemainingSlots: intPtr(v.RemainingSlots)}, nil
	case ClientLoyalty:
		return conditionJSON{Type: tagClientLoyalty, MinMonthsAsClient: intPtr(v.MinMonthsAsClient)}, nil
	case ServiceType:
		return conditionJSON{Type: tagServiceType, ServiceIDs: v.ServiceIDs}, nil
	default:
		return conditionJSON{}, fmt.Errorf("condition %T: %w", c, ErrUnknownKind)
	}
}

func decodeCondition(field string, cj conditionJSON) (Condition, error) {
	missing := func(name string) error {
		return NewValidationError(field+"."+name, "required")
	}

	switch cj.Type {
	case tagTimeOfDay:
		from, err := ParseClockTime(cj.From)
		if err != nil {
			return nil, &ValidationError{Field: field + ".from", Reason: "must be HH:MM", Err: err}
		}
		to, err := ParseClockTime(cj.To)
		if err != nil {
			return nil, &ValidationError{Field: field + ".to", Reason: "must be HH:MM", Err: err}
		}
		return TimeOfDay{From: from, To: to, Days: intsToWeekdays(cj.Days)}, nil
	case tagDayOfWeek:
		return DayOfWeek{Days: intsToWeekdays(cj.Days)}, nil
	case tagClientInactivity:
		if cj.DaysInactive == nil {
			return nil, missing("days_inactive")
		}
		return ClientInactivity{DaysInactive: *cj.DaysInactive}, nil
	case tagSeasonal:
		start, err := ParseDate(cj.StartDate)
		if err != nil {
			return nil, &ValidationError{Field: field + ".start_date", Reason: "must be YYYY-MM-DD", Err: err}
		}
		end, err := ParseDate(cj.EndDate)
		if err != nil {
			return nil, &ValidationError{Field: field + ".end_date", Reason: "must be YYYY-MM-DD", Err: err}
		}
		return Seasonal{Start: start, End: end}, nil
	case tagDemandLevel:
		if cj.RemainingSlots == nil {
			return nil, missing("remaining_slots")
		}
		return DemandLevel{RemainingSlots: *cj.RemainingSlots}, nil
	case tagClientLoyalty:
		if cj.MinMonthsAsClient == nil {
			return nil, missing("min_months_as_client")
		}
		return ClientLoyalty{MinMonthsAsClient: *cj.MinMonthsAsClient}, nil
	case tagServiceType:
		return ServiceType{ServiceIDs: cj.ServiceIDs}, nil
	default:
		return nil, &ValidationError{Field: field + ".type", Reason: fmt.Sprintf("unknown condition type %q", cj.Type), Err: ErrUnknownKind}
	}
}

func encodeAction(a Action) (*actionJSON, error) {
	switch v := a.(type) {
	case PercentageDiscount:
		return &actionJSON{Type: tagPercentageDiscount, Value: v.Value}, nil
	case FixedDiscount:
		return &actionJSON{Type: tagFixedDiscount, Value: v.Value, Currency: v.Currency}, nil
	case FixedPrice:
		return &actionJSON{Type: tagFixedPrice, Value: v.Value, Currency: v.Currency}, nil
	case PercentageIncrease:
		return &actionJSON{Type: tagPercentageIncrease, Value: v.Value}, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("action %T: %w", a, ErrUnknownKind)
	}
}

func decodeAction(aj *actionJSON) (Action, error) {
	if aj == nil {
		return nil, nil
	}
	switch aj.Type {
	case tagPercentageDiscount:
		return PercentageDiscount{Value: aj.Value}, nil
	case tagFixedDiscount:
		return FixedDiscount{Value: aj.Value, Currency: aj.Currency}, nil
	case tagFixedPrice:
		return FixedPrice{Value: aj.Value, Currency: aj.Currency}, nil
	case tagPercentageIncrease:
		return PercentageIncrease{Value: aj.Value}, nil
	default:
		return nil, &ValidationError{Field: "action.type", Reason: fmt.Sprintf("unknown action type %q", aj.Type), Err: ErrUnknownKind}
	}
}

func encodeAudience(a Audience) (*audienceJSON, error) {
	switch v := a.(type) {
	case AllClients:
		return &audienceJSON{Type: tagAudienceAll}, nil
	case Segment:
		return &audienceJSON{Type: tagAudienceSegment, SegmentID: v.SegmentID}, nil
	case SpecificClients:
		return &audienceJSON{Type: tagAudienceSpecific, ClientIDs: v.ClientIDs}, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("audience %T: %w", a, ErrUnknownKind)
	}
}

// decodeAudience treats an absent audience as AllClients.
func decodeAudience(aj *audienceJSON) (Audience, error) {
	if aj == nil {
		return AllClients{}, nil
	}
	switch aj.Type {
	case tagAudienceAll:
		return AllClients{}, nil
	case tagAudienceSegment:
		return Segment{SegmentID: aj.SegmentID}, nil
	case tagAudienceSpecific:
		return SpecificClients{ClientIDs: aj.ClientIDs}, nil
	default:
		return nil, &ValidationError{Field: "target_audience.type", Reason: fmt.Sprintf("unknown audience type %q", aj.Type), Err: ErrUnknownKind}
	}
}

// MarshalConditions encodes a condition list as a JSON array.
func MarshalConditions(conds []Condition) ([]byte, error) {
	out := make([]conditionJSON, 0, len(conds))
	for _, c := range conds {
		cj, err := encodeCondition(c)
		if err != nil {
			return nil, err
		}
		out = append(out, cj)
	}
	return json.Marshal(out)
}

// UnmarshalConditions decodes a JSON array produced by MarshalConditions.
func UnmarshalConditions(data []byte) ([]Condition, error) {
	var raw []conditionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return decodeConditions(raw)
}

func decodeConditions(raw []conditionJSON) ([]Condition, error) {
	conds := make([]Condition, 0, len(raw))
	for i, cj := range raw {
		c, err := decodeCondition(fmt.Sprintf("conditions[%d]", i), cj)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

// MarshalAction encodes a single action.
func MarshalAction(a Action) ([]byte, error) {
	aj, err := encodeAction(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(aj)
}

// UnmarshalAction decodes an action; JSON null yields a nil Action.
func UnmarshalAction(data []byte) (Action, error) {
	var aj *actionJSON
	if err := json.Unmarshal(data, &aj); err != nil {
		return nil, err
	}
	return decodeAction(aj)
}

// MarshalAudience encodes a single audience.
func MarshalAudience(a Audience) ([]byte, error) {
	aj, err := encodeAudience(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(aj)
}

// UnmarshalAudience decodes an audience; JSON null yields AllClients.
func UnmarshalAudience(data []byte) (Audience, error) {
	var aj *audienceJSON
	if err := json.Unmarshal(data, &aj); err != nil {
		return nil, err
	}
	return decodeAudience(aj)
}

// MarshalJSON implements json.Marshaler.
func (r PricingRule) MarshalJSON() ([]byte, error) {
	rj := ruleJSON{
		ID:                   r.ID,
		Name:                 r.Name,
		Description:          r.Description,
		IsActive:             r.IsActive,
		Priority:             r.Priority,
		Conditions:           make([]conditionJSON, 0, len(r.Conditions)),
		ApplicableServiceIDs: r.ApplicableServiceIDs,
	}
	for _, c := range r.Conditions {
		cj, err := encodeCondition(c)
		if err != nil {
			return nil, err
		}
		rj.Conditions = append(rj.Conditions, cj)
	}

	var err error
	if rj.Action, err = encodeAction(r.Action); err != nil {
		return nil, err
	}
	if rj.Audience, err = encodeAudience(r.Audience); err != nil {
		return nil, err
	}
	if !r.CreatedAt.IsZero() {
		rj.CreatedAt = &r.CreatedAt
	}
	if !r.UpdatedAt.IsZero() {
		rj.UpdatedAt = &r.UpdatedAt
	}
	return json.Marshal(rj)
}

// UnmarshalJSON implements json.Unmarshaler.
// Unknown variant tags fail with a ValidationError wrapping ErrUnknownKind.
func (r *PricingRule) UnmarshalJSON(data []byte) error {
	var rj ruleJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return err
	}

	conds, err := decodeConditions(rj.Conditions)
	if err != nil {
		return err
	}
	action, err := decodeAction(rj.Action)
	if err != nil {
		return err
	}
	audience, err := decodeAudience(rj.Audience)
	if err != nil {
		return err
	}

	*r = PricingRule{
		ID:                   rj.ID,
		Name:                 rj.Name,
		Description:          rj.Description,
		IsActive:             rj.IsActive,
		Priority:             rj.Priority,
		Conditions:           conds,
		Action:               action,
		Audience:             audience,
		ApplicableServiceIDs: rj.ApplicableServiceIDs,
	}
	if rj.CreatedAt != nil {
		r.CreatedAt = *rj.CreatedAt
	}
	if rj.UpdatedAt != nil {
		r.UpdatedAt = *rj.UpdatedAt
	}
	return nil
}
