package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for PriceKeeper operations.
var (
	// ErrValidation indicates a malformed rule rejected by the admin layer.
	ErrValidation = errors.New("invalid pricing rule")

	// ErrUnknownKind indicates a condition, action or audience type tag
	// outside the closed set.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrRuleNotFound indicates the rule does not exist for the tenant.
	ErrRuleNotFound = errors.New("pricing rule not found")

	// ErrDuplicateRule indicates a create with an id already in use.
	ErrDuplicateRule = errors.New("pricing rule already exists")
)

// ValidationError describes why a rule was rejected.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Field  string
	Reason string
	Err    error // optional cause
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
