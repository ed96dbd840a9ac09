package validator

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// RuneLength checks that the trimmed value has between min and max runes.
func RuneLength(field, value string, min, max int) Rule {
	return Rule{
		Check: func() bool {
			n := utf8.RuneCountInString(strings.TrimSpace(value))
			return n >= min && n <= max
		},
		Error: ValidationError{
			Field:             field,
			Code:              "length",
			Message:           "length out of range",
			TranslationKey:    "validation.length",
			TranslationValues: map[string]any{"field": field, "min": min, "max": max},
		},
	}
}

// Matches checks the trimmed value against pattern. key names the charset
// in translations, e.g. "validation.account_charset".
func Matches(field, value string, pattern *regexp.Regexp, key string) Rule {
	return Rule{
		Check: func() bool {
			return pattern.MatchString(strings.TrimSpace(value))
		},
		Error: ValidationError{
			Field:             field,
			Code:              "charset",
			Message:           "contains characters that are not allowed",
			TranslationKey:    key,
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// Finite rejects NaN and infinities.
func Finite(field string, value float64) Rule {
	return Rule{
		Check: func() bool {
			return !math.IsNaN(value) && !math.IsInf(value, 0)
		},
		Error: ValidationError{
			Field:             field,
			Code:              "not-a-number",
			Message:           "must be a number",
			TranslationKey:    "validation.not_a_number",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// Integer rejects values with a fractional part.
func Integer(field string, value float64) Rule {
	return Rule{
		Check: func() bool {
			return value == math.Trunc(value)
		},
		Error: ValidationError{
			Field:             field,
			Code:              "not-integer",
			Message:           "must be a whole number",
			TranslationKey:    "validation.not_integer",
			TranslationValues: map[string]any{"field": field},
		},
	}
}

// Between checks min <= value <= max.
func Between[T int | int64 | float64](field string, value, min, max T) Rule {
	return Rule{
		Check: func() bool {
			return value >= min && value <= max
		},
		Error: ValidationError{
			Field:             field,
			Code:              "out-of-range",
			Message:           "out of range",
			TranslationKey:    "validation.out_of_range",
			TranslationValues: map[string]any{"field": field, "min": min, "max": max},
		},
	}
}

// Required checks that the trimmed value is not empty.
func Required(field, value, key string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{
			Field:             field,
			Code:              "required",
			Message:           "is required",
			TranslationKey:    key,
			TranslationValues: map[string]any{"field": field},
		},
	}
}
