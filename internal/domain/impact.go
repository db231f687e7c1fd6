package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation marks malformed caller input. It is never retried.
var ErrValidation = errors.New("validation failed")

// ValidationError names the offending field, its value and the violated rule.
type ValidationError struct {
	Field string
	Value any
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v (must satisfy %s)", e.Field, e.Value, e.Rule)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConstraintSpec declares a constraint created by a decision.
type ConstraintSpec struct {
	Type              string  `json:"type" yaml:"type" validate:"required"`
	Description       string  `json:"description" yaml:"description"`
	Strength          float64 `json:"strength" yaml:"strength" validate:"gte=0,lte=1"`
	Flexibility       float64 `json:"flexibility" yaml:"flexibility" validate:"gte=0,lte=1"`
	ReversibilityCost float64 `json:"reversibility_cost" yaml:"reversibility_cost" validate:"gte=0,lte=1"`
}

// DecisionImpact is the caller's description of what a decision does to the
// option space.
type DecisionImpact struct {
	OptionsOpened     []string         `json:"options_opened,omitempty" yaml:"options_opened"`
	OptionsClosed     []string         `json:"options_closed,omitempty" yaml:"options_closed"`
	ReversibilityCost float64          `json:"reversibility_cost" yaml:"reversibility_cost" validate:"gte=0,lte=1"`
	CommitmentLevel   float64          `json:"commitment_level" yaml:"commitment_level" validate:"gte=0,lte=1"`
	Constraints       []ConstraintSpec `json:"constraints,omitempty" yaml:"constraints" validate:"dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks ranges and returns a *ValidationError for the first violation.
func (d DecisionImpact) Validate() error {
	return ValidateStruct(d)
}

// ValidateStruct runs struct-tag validation and converts the first failure
// into a *ValidationError that keeps the offending value and threshold.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fe := verrs[0]
	rule := fe.Tag()
	if fe.Param() != "" {
		rule = fe.Tag() + " " + fe.Param()
	}
	return &ValidationError{
		Field: fieldPath(fe.Namespace()),
		Value: fe.Value(),
		Rule:  rule,
	}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
