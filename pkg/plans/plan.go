// Package plans turns loosely shaped premium plan payloads into a catalog
// keyed by subscription length, and tracks the catalog's load lifecycle.
package plans

import (
	"fmt"
	"slices"
)

// Durations are the subscription lengths offered, in display order.
var Durations = []int{7, 30, 60}

// IsDuration reports whether days is one of Durations.
func IsDuration(days int) bool {
	return slices.Contains(Durations, days)
}

// Plan is one purchasable premium plan. AmountMinor is meaningful only
// when HasAmount is set; Days is 0 when it could not be determined.
type Plan struct {
	Code        string `json:"code"`
	AmountMinor int64  `json:"amount_minor"`
	HasAmount   bool   `json:"has_amount"`
	Days        int    `json:"days"`
}

// PlaceholderCode is the code used for a duration with no catalog entry.
func PlaceholderCode(days int) string {
	return fmt.Sprintf("PREM_%d", days)
}

// Catalog holds at most one plan per duration.
type Catalog map[int]Plan

// BuildCatalog keeps plans with a code and a known duration. The first plan
// seen for a duration wins.
func BuildCatalog(list []Plan) Catalog {
	c := make(Catalog, len(Durations))
	for _, p := range list {
		if p.Code == "" || !IsDuration(p.Days) {
			continue
		}
		if _, ok := c[p.Days]; !ok {
			c[p.Days] = p
		}
	}
	return c
}

// Lookup returns the plan for days, if any.
func (c Catalog) Lookup(days int) (Plan, bool) {
	p, ok := c[days]
	return p, ok
}

// CodeFor returns the catalog code for days or the placeholder code.
func (c Catalog) CodeFor(days int) string {
	if p, ok := c[days]; ok {
		return p.Code
	}
	return PlaceholderCode(days)
}

// Ordered returns the catalog's plans in Durations order.
func (c Catalog) Ordered() []Plan {
	out := make([]Plan, 0, len(c))
	for _, d := range Durations {
		if p, ok := c[d]; ok {
			out = append(out, p)
		}
	}
	return out
}
