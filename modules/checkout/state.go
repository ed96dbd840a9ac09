package checkout

import (
	"slices"
	"strconv"
	"strings"

	"github.com/ludens-school/paywidget/pkg/plans"
	"github.com/ludens-school/paywidget/pkg/sanitizer"
	"github.com/ludens-school/paywidget/pkg/validator"
)

// State is everything the widget shows on one open page. It is mutated only
// through its methods while the page lock is held.
type State struct {
	PageID        string                     `json:"page_id"`
	Tab           Tab                        `json:"tab"`
	Tokens        int                        `json:"tokens"`
	TokensInput   string                     `json:"tokens_input"`
	Account       string                     `json:"account"`
	Currency      string                     `json:"currency"`
	SelectedPlan  string                     `json:"selected_plan,omitempty"`
	Plans         plans.Snapshot             `json:"plans"`
	TokenErrors   validator.ValidationErrors `json:"token_errors,omitempty"`
	PremiumErrors validator.ValidationErrors `json:"premium_errors,omitempty"`
	PremiumBusy   bool                       `json:"premium_busy,omitempty"`
}

// NewState builds the state of a freshly opened page. An account in the
// query wins over the stored one.
func NewState(q PageQuery, storedAccount, currency string) State {
	account := q.Account
	if account == "" {
		account = storedAccount
	}

	requested := q.TokensValue()
	if !sanitizer.IsFinite(requested) {
		requested = MinTokens
	}

	st := State{
		Tab:      q.InitialTab(),
		Account:  account,
		Currency: currency,
		Plans:    plans.Snapshot{Status: plans.StatusIdle},
	}
	st.SetTokens(requested)
	return st
}

// SetTab switches the active flow and clears the other flow's errors.
func (s *State) SetTab(tab Tab) {
	s.Tab = tab
	if tab == TabPremium {
		s.TokenErrors = nil
	} else {
		s.PremiumErrors = nil
	}
}

// SetTokens clamps n, mirrors it into the text field and clears token errors.
func (s *State) SetTokens(n float64) int {
	s.Tokens = ClampTokens(n)
	s.TokensInput = strconv.Itoa(s.Tokens)
	s.TokenErrors = nil
	return s.Tokens
}

// InputTokens records raw field text. Unparseable text is kept as typed and
// leaves the amount untouched; it reports whether the amount changed.
func (s *State) InputTokens(raw string) bool {
	s.TokensInput = raw
	parsed := ParseTokensInput(raw)
	if !sanitizer.IsFinite(parsed) {
		return false
	}
	s.SetTokens(parsed)
	return true
}

// DismissErrors hides the error list of tab.
func (s *State) DismissErrors(tab Tab) bool {
	if tab == TabPremium {
		had := len(s.PremiumErrors) > 0
		s.PremiumErrors = nil
		return had
	}
	had := len(s.TokenErrors) > 0
	s.TokenErrors = nil
	return had
}

func (s *State) SliderValue() int { return SliderValue(s.Tokens) }

// SetAccount stores the field text and returns the trimmed value to persist.
func (s *State) SetAccount(raw string) string {
	s.Account = raw
	return strings.TrimSpace(raw)
}

// SetCurrency accepts one of allowed; anything else selects allowed[0].
func (s *State) SetCurrency(raw string, allowed []string) {
	if slices.Contains(allowed, raw) {
		s.Currency = raw
		return
	}
	if len(allowed) > 0 {
		s.Currency = allowed[0]
	}
}

func (s *State) TrimmedAccount() string { return strings.TrimSpace(s.Account) }

// SelectPlan selects the card for days, which may be a placeholder when
// the catalog has no plan of that length.
func (s *State) SelectPlan(days int) error {
	if !plans.IsDuration(days) {
		return ErrUnknownDuration
	}
	s.SelectedPlan = s.Plans.Catalog.CodeFor(days)
	return nil
}

// PlanSelected reports whether the card for days is the selected one.
func (s *State) PlanSelected(days int) bool {
	return s.SelectedPlan != "" && s.SelectedPlan == s.Plans.Catalog.CodeFor(days)
}

func (s *State) CanPayTokens() bool { return s.TrimmedAccount() != "" }

func (s *State) CanPayPremium() bool {
	return s.TrimmedAccount() != "" && s.SelectedPlan != "" && !s.PremiumBusy
}

// TokenCheckout validates the token flow. On success it returns the
// account and the clamped amount to send to the gateway.
func (s *State) TokenCheckout() (string, int, error) {
	account := s.TrimmedAccount()
	raw := ParseTokensInput(s.TokensInput)
	err := validator.Merge(ValidateAccount(account), ValidateTokens(raw))
	s.TokenErrors = validator.Extract(err)
	if err != nil {
		return "", 0, err
	}
	return account, ClampTokens(raw), nil
}

// BeginPremium validates the premium flow and marks it busy.
func (s *State) BeginPremium() (account, plan string, err error) {
	if s.PremiumBusy {
		return "", "", ErrCheckoutInFlight
	}
	account = s.TrimmedAccount()
	if err := ValidatePremium(account, s.SelectedPlan); err != nil {
		s.PremiumErrors = validator.Extract(err)
		return "", "", err
	}
	s.PremiumErrors = nil
	s.PremiumBusy = true
	return account, s.SelectedPlan, nil
}

// RejectPremium undoes BeginPremium and shows verr instead.
func (s *State) RejectPremium(verr validator.ValidationError) {
	s.PremiumBusy = false
	s.PremiumErrors = validator.ValidationErrors{verr}
}

// FinishPremium releases the busy flag. A failed creation leaves exactly one
// error for the visitor.
func (s *State) FinishPremium(createErr error) {
	s.PremiumBusy = false
	if createErr != nil {
		s.PremiumErrors = validator.ValidationErrors{premiumCreateFailed()}
		return
	}
	s.PremiumErrors = nil
}
