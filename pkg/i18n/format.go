package i18n

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

func printer(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Make(DefaultLanguage)
	}
	return message.NewPrinter(tag)
}

// FormatInt renders n with the locale's digit grouping, e.g. "1 000" in ru
// and "1,000" in en.
func FormatInt(lang string, n int64) string {
	return printer(lang).Sprint(number.Decimal(n))
}

// FormatDecimal renders v with at most maxFraction fraction digits and no
// trailing zeros.
func FormatDecimal(lang string, v float64, maxFraction int) string {
	return printer(lang).Sprint(number.Decimal(v, number.MaxFractionDigits(maxFraction)))
}

// FormatAmountMinor renders an amount in minor currency units (kopecks,
// cents) as major units with up to two fraction digits. Non-finite input
// yields "-".
func FormatAmountMinor(lang string, minor float64) string {
	if math.IsNaN(minor) || math.IsInf(minor, 0) {
		return "-"
	}
	return FormatDecimal(lang, minor/100, 2)
}
