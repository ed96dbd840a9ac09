package checkout

import (
	"math"
	"regexp"

	"github.com/ludens-school/paywidget/pkg/sanitizer"
)

const (
	MinTokens       = 1
	MaxTokens       = 500
	SliderMaxTokens = 500
)

// Presets are the quick-pick token amounts.
var Presets = []int{10, 50, 100, 500}

var (
	digitsOnly  = regexp.MustCompile(`^\d+$`)
	cleanTokens = sanitizer.Compose(sanitizer.StripSpace, sanitizer.Remove("_"))
)

// ParseTokensInput reads the token field. Spaces and underscores may be used
// as digit separators ("1 000", "1_000"); anything else that is not a plain
// non-negative integer is NaN.
func ParseTokensInput(raw string) float64 {
	s := sanitizer.Trim(raw)
	if s == "" {
		return math.NaN()
	}
	s = cleanTokens(s)
	if !digitsOnly.MatchString(s) {
		return math.NaN()
	}
	return sanitizer.ParseNumber(s)
}

// ClampTokens truncates n into [MinTokens, MaxTokens]. Non-finite input
// becomes MinTokens.
func ClampTokens(n float64) int {
	if !sanitizer.IsFinite(n) {
		return MinTokens
	}
	return int(sanitizer.Clamp(sanitizer.TruncateFloat(n), MinTokens, MaxTokens))
}

// SliderValue is the range input position for tokens.
func SliderValue(tokens int) int {
	return min(tokens, SliderMaxTokens)
}
