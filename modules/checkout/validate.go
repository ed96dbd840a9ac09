package checkout

import (
	"regexp"
	"strings"

	"github.com/ludens-school/paywidget/pkg/validator"
)

const (
	AccountMinLength = 2
	AccountMaxLength = 32
)

const (
	FieldAccount = "account"
	FieldTokens  = "tokens"
	FieldPlan    = "plan"
	FieldPremium = "premium"
)

var accountCharset = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateAccount reports at most one problem: length is checked before
// the character set. Length counts runes of the trimmed text.
func ValidateAccount(text string) error {
	account := strings.TrimSpace(text)
	return validator.Chain(
		validator.RuneLength(FieldAccount, account, AccountMinLength, AccountMaxLength),
		validator.Matches(FieldAccount, account, accountCharset, "validation.account.charset"),
	)
}

// ValidateTokens checks a parsed token amount.
func ValidateTokens(value float64) error {
	return validator.Chain(
		validator.Finite(FieldTokens, value),
		validator.Integer(FieldTokens, value),
		validator.Between(FieldTokens, value, MinTokens, MaxTokens),
	)
}

// ValidatePremium checks the inputs of a premium checkout.
func ValidatePremium(account, planCode string) error {
	return validator.Apply(
		validator.Required(FieldAccount, account, "validation.account.required"),
		validator.Required(FieldPlan, planCode, "validation.plan.required"),
	)
}

func premiumCreateFailed() validator.ValidationError {
	return validator.ValidationError{
		Field:          FieldPremium,
		Code:           "create-failed",
		Message:        "could not open the payment page",
		TranslationKey: "premium.create_failed",
	}
}

func premiumRateLimited() validator.ValidationError {
	return validator.ValidationError{
		Field:          FieldPremium,
		Code:           "rate-limited",
		Message:        "too many attempts, try again later",
		TranslationKey: "premium.rate_limited",
	}
}
