package checkout

import (
	"math"
	"strings"

	"github.com/ludens-school/paywidget/pkg/sanitizer"
)

// PageQuery is the query string of the checkout page.
type PageQuery struct {
	Account string `query:"acc|account"`
	Tokens  string `query:"tokens"`
	Tab     string `query:"tab|mode"`
}

// TokensValue is the requested token amount, or NaN when none was given.
func (q PageQuery) TokensValue() float64 {
	if q.Tokens == "" {
		return math.NaN()
	}
	return sanitizer.ParseNumber(q.Tokens)
}

// Tab is one of the two purchase flows.
type Tab string

const (
	TabTokens  Tab = "tokens"
	TabPremium Tab = "premium"
)

// ParseTab accepts the tab names and their synonyms, case-insensitively.
func ParseTab(raw string) (Tab, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "tokens", "token":
		return TabTokens, true
	case "premium", "subscription", "sub":
		return TabPremium, true
	}
	return "", false
}

// InitialTab picks the tab for a fresh page: an explicit tab wins, then the
// token flow if an amount was requested, else premium.
func (q PageQuery) InitialTab() Tab {
	if tab, ok := ParseTab(q.Tab); ok {
		return tab
	}
	if sanitizer.IsFinite(q.TokensValue()) {
		return TabTokens
	}
	return TabPremium
}
