// Package validator composes declarative validation rules into
// ValidationErrors that carry translation keys for the UI.
package validator

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is one failed rule. Code is a stable machine-readable
// reason; TranslationKey and TranslationValues feed the i18n layer.
type ValidationError struct {
	Field             string
	Code              string
	Message           string
	TranslationKey    string
	TranslationValues map[string]any
}

// ValidationErrors is the error returned by Apply.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ErrValidationFailed.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, e := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (ve ValidationErrors) Is(target error) bool {
	return target == ErrValidationFailed
}

func (ve ValidationErrors) Has(field string) bool {
	for _, e := range ve {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Codes lists the Code of every error in order.
func (ve ValidationErrors) Codes() []string {
	codes := make([]string, 0, len(ve))
	for _, e := range ve {
		codes = append(codes, e.Code)
	}
	return codes
}

// Rule pairs a check with the error reported when it fails.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// Apply runs every rule and collects the failures.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, r := range rules {
		if !r.Check() {
			errs = append(errs, r.Error)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Chain runs rules in order and reports only the first failure. Use it
// when later rules only make sense once earlier ones passed.
func Chain(rules ...Rule) error {
	for _, r := range rules {
		if !r.Check() {
			return ValidationErrors{r.Error}
		}
	}
	return nil
}

// Merge concatenates the ValidationErrors of several Apply or Chain results.
// Errors of any other type are returned unchanged, first one wins.
func Merge(errs ...error) error {
	var out ValidationErrors
	for _, err := range errs {
		if err == nil {
			continue
		}
		ve := Extract(err)
		if ve == nil {
			return err
		}
		out = append(out, ve...)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Extract returns the ValidationErrors inside err, or nil.
func Extract(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
