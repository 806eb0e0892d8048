// internal/rules/validate.go
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/solatis/pricekeeper/internal/types"
)

/*
 * Rule validation.
 *
 * Runs when rules are written, never during evaluation. Evaluation assumes
 * well-formed rules and stays total; validation is where bad input is
 * turned into an error the admin dashboard can show.
 *
 * Validation workflow:
 *   1. Struct tags on PricingRule (id, name, list limits) via validator
 *   2. Per-variant checks on conditions, action and audience
 *   3. First failure wins; the error names the offending field
 *
 * Every returned error is a *types.ValidationError, so callers can test
 * with errors.Is(err, types.ErrValidation).
 */

var (
	validate = validator.New()

	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

	maxPercentage = decimal.NewFromInt(types.MaxPercentageDiscount)
)

// Validate checks rule for structural and semantic errors.
func Validate(rule *types.PricingRule) error {
	if rule == nil {
		return types.NewValidationError("", "rule is nil")
	}

	if err := validate.Struct(rule); err != nil {
		return fromValidatorError(err)
	}

	for i, cond := range rule.Conditions {
		if err := validateCondition(fmt.Sprintf("conditions[%d]", i), cond); err != nil {
			return err
		}
	}

	if err := validateAction(rule.Action); err != nil {
		return err
	}

	return validateAudience(rule.Audience)
}

// fromValidatorError maps the first validator field error to a ValidationError.
func fromValidatorError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &types.ValidationError{Reason: err.Error(), Err: err}
	}

	fe := fieldErrs[0]
	reason := fe.Tag()
	if fe.Param() != "" {
		reason = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
	}
	return &types.ValidationError{Field: fe.Namespace(), Reason: "failed " + reason, Err: err}
}

func validateCondition(field string, cond types.Condition) error {
	switch c := cond.(type) {
	case types.TimeOfDay:
		if !c.From.Valid() {
			return types.NewValidationError(field+".from", "must be within 00:00-23:59")
		}
		if !c.To.Valid() {
			return types.NewValidationError(field+".to", "must be within 00:00-23:59")
		}
		if c.From > c.To {
			return types.NewValidationError(field, fmt.Sprintf("window %s-%s crosses midnight", c.From, c.To))
		}
		return validateWeekdays(field+".days", c.Days)
	case types.DayOfWeek:
		return validateWeekdays(field+".days", c.Days)
	case types.ClientInactivity:
		return validateThreshold(field+".days_inactive", c.DaysInactive)
	case types.Seasonal:
		if c.Start.IsZero() {
			return types.NewValidationError(field+".start_date", "required")
		}
		if c.End.IsZero() {
			return types.NewValidationError(field+".end_date", "required")
		}
		if c.Start.Compare(c.End) > 0 {
			return types.NewValidationError(field, fmt.Sprintf("start %s is after end %s", c.Start, c.End))
		}
		return nil
	case types.DemandLevel:
		return validateThreshold(field+".remaining_slots", c.RemainingSlots)
	case types.ClientLoyalty:
		return validateThreshold(field+".min_months_as_client", c.MinMonthsAsClient)
	case types.ServiceType:
		return validateIDList(field+".service_ids", c.ServiceIDs)
	case nil:
		return &types.ValidationError{Field: field, Reason: "condition is nil", Err: types.ErrUnknownKind}
	default:
		return &types.ValidationError{Field: field, Reason: fmt.Sprintf("unsupported condition %T", cond), Err: types.ErrUnknownKind}
	}
}

func validateAction(action types.Action) error {
	switch a := action.(type) {
	case types.PercentageDiscount:
		if err := validateAmount(a.Value); err != nil {
			return err
		}
		if a.Value.GreaterThan(maxPercentage) {
			return types.NewValidationError("action.value", "percentage discount exceeds 100")
		}
		return nil
	case types.FixedDiscount:
		if err := validateAmount(a.Value); err != nil {
			return err
		}
		return validateCurrency(a.Currency)
	case types.FixedPrice:
		if err := validateAmount(a.Value); err != nil {
			return err
		}
		return validateCurrency(a.Currency)
	case types.PercentageIncrease:
		return validateAmount(a.Value)
	case nil:
		return types.NewValidationError("action", "required")
	default:
		return &types.ValidationError{Field: "action", Reason: fmt.Sprintf("unsupported action %T", action), Err: types.ErrUnknownKind}
	}
}

// validateAudience accepts nil as AllClients.
func validateAudience(aud types.Audience) error {
	switch a := aud.(type) {
	case nil, types.AllClients:
		return nil
	case types.Segment:
		if a.SegmentID == "" {
			return types.NewValidationError("target_audience.segment_id", "required")
		}
		return nil
	case types.SpecificClients:
		return validateIDList("target_audience.client_ids", a.ClientIDs)
	default:
		return &types.ValidationError{Field: "target_audience", Reason: fmt.Sprintf("unsupported audience %T", aud), Err: types.ErrUnknownKind}
	}
}

func validateWeekdays(field string, days []time.Weekday) error {
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return types.NewValidationError(field, fmt.Sprintf("weekday %d out of range 0-6", int(d)))
		}
	}
	return nil
}

func validateThreshold(field string, v int) error {
	if v < 0 {
		return types.NewValidationError(field, "must be non-negative")
	}
	return nil
}

func validateIDList(field string, ids []string) error {
	if len(ids) == 0 {
		return types.NewValidationError(field, "must not be empty")
	}
	if len(ids) > types.MaxListValues {
		return types.NewValidationError(field, fmt.Sprintf("exceeds %d values", types.MaxListValues))
	}
	for _, id := range ids {
		if id == "" {
			return types.NewValidationError(field, "contains an empty id")
		}
	}
	return nil
}

func validateAmount(v decimal.Decimal) error {
	if v.IsNegative() {
		return types.NewValidationError("action.value", "must be non-negative")
	}
	return nil
}

// validateCurrency accepts an empty code (deployment currency) or ISO 4217.
func validateCurrency(code string) error {
	if code == "" || currencyPattern.MatchString(code) {
		return nil
	}
	return types.NewValidationError("action.currency", "must be a 3-letter ISO 4217 code")
}
