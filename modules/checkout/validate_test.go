package checkout_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludens-school/paywidget/modules/checkout"
	"github.com/ludens-school/paywidget/pkg/validator"
)

func TestValidateAccount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		code string
	}{
		{"two chars", "ab", ""},
		{"trimmed", "  Player_1  ", ""},
		{"max length", strings.Repeat("a", 32), ""},
		{"too short", "a", "length"},
		{"too long", strings.Repeat("a", 33), "length"},
		{"empty", "   ", "length"},
		{"space inside", "user name", "charset"},
		{"cyrillic", "игрок", "charset"},
		{"punctuation", "ab-cd", "charset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := checkout.ValidateAccount(tt.in)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			ve := validator.Extract(err)
			require.Len(t, ve, 1, "length is reported before charset")
			assert.Equal(t, checkout.FieldAccount, ve[0].Field)
			assert.Equal(t, tt.code, ve[0].Code)
		})
	}
}

func TestValidateTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		code string
	}{
		{1, ""},
		{500, ""},
		{math.NaN(), "not-a-number"},
		{math.Inf(1), "not-a-number"},
		{2.5, "not-integer"},
		{0, "out-of-range"},
		{501, "out-of-range"},
	}
	for _, tt := range tests {
		err := checkout.ValidateTokens(tt.in)
		if tt.code == "" {
			assert.NoError(t, err, "%v", tt.in)
			continue
		}
		assert.Equal(t, []string{tt.code}, validator.Extract(err).Codes(), "%v", tt.in)
	}
}

func TestValidatePremium(t *testing.T) {
	t.Parallel()

	ve := validator.Extract(checkout.ValidatePremium(" ", ""))
	require.Len(t, ve, 2)
	assert.Equal(t, checkout.FieldAccount, ve[0].Field)
	assert.Equal(t, "validation.account.required", ve[0].TranslationKey)
	assert.Equal(t, checkout.FieldPlan, ve[1].Field)
	assert.Equal(t, "validation.plan.required", ve[1].TranslationKey)

	assert.NoError(t, checkout.ValidatePremium("ab", "PREM_7"))
}
