package plans

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ludens-school/paywidget/pkg/sanitizer"
)

var (
	codeKeys   = []string{"code", "plan", "plan_code", "id"}
	amountKeys = []string{"amount_minor", "amountMinor", "amount", "price_minor", "priceMinor"}
	daysKeys   = []string{"days", "duration_days", "durationDays"}

	daysInCode = regexp.MustCompile(`(\d{1,3})`)
)

// Normalize extracts plans from a decoded JSON document. The document may be
// a bare array or an object holding the array under "plans" or "data".
// Entries that are not objects are dropped; everything else is kept even if
// incomplete, and BuildCatalog decides what is usable.
func Normalize(doc any) []Plan {
	list := planList(doc)
	out := make([]Plan, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, normalizeEntry(entry))
	}
	return out
}

func planList(doc any) []any {
	switch v := doc.(type) {
	case []any:
		return v
	case map[string]any:
		if list, ok := v["plans"].([]any); ok {
			return list
		}
		if list, ok := v["data"].([]any); ok {
			return list
		}
	}
	return nil
}

func normalizeEntry(entry map[string]any) Plan {
	p := Plan{}

	if raw, ok := firstPresent(entry, codeKeys); ok {
		p.Code = strings.TrimSpace(toString(raw))
	}

	amount := math.NaN()
	if raw, ok := firstPresent(entry, amountKeys); ok {
		amount = toNumber(raw)
	}
	if sanitizer.IsFinite(amount) {
		p.AmountMinor = int64(math.Round(amount))
		p.HasAmount = true
	}

	days := math.NaN()
	if raw, ok := firstPresent(entry, daysKeys); ok {
		days = toNumber(raw)
	}
	p.Days = InferDays(days, p.Code)
	return p
}

// InferDays returns declared when it is a positive whole number, otherwise
// the first run of one to three digits in code. It returns 0 when neither
// gives a usable value; a positive fractional declaration also yields 0
// because it never names a valid duration.
func InferDays(declared float64, code string) int {
	if sanitizer.IsFinite(declared) && declared > 0 {
		if declared != math.Trunc(declared) || declared > math.MaxInt32 {
			return 0
		}
		return int(declared)
	}
	m := daysInCode.FindString(code)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// firstPresent returns the value of the first key that exists and is not null.
func firstPresent(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// toNumber coerces a decoded JSON value the way a browser's Number() does.
func toNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case bool:
		if n {
			return 1
		}
		return 0
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		return sanitizer.ParseNumber(string(n))
	case string:
		return sanitizer.ParseNumber(n)
	default:
		return math.NaN()
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case map[string]any:
		return "[object Object]"
	case []any:
		parts := make([]string, len(s))
		for i, e := range s {
			if e != nil {
				parts[i] = toString(e)
			}
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}
