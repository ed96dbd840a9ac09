package checkout_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludens-school/paywidget/modules/checkout"
	"github.com/ludens-school/paywidget/pkg/plans"
	"github.com/ludens-school/paywidget/pkg/validator"
)

func TestNewState(t *testing.T) {
	t.Parallel()

	t.Run("query account wins over stored", func(t *testing.T) {
		t.Parallel()
		st := checkout.NewState(checkout.PageQuery{Account: "fromQuery"}, "stored", "UAH")
		assert.Equal(t, "fromQuery", st.Account)
	})

	t.Run("stored account prefills", func(t *testing.T) {
		t.Parallel()
		st := checkout.NewState(checkout.PageQuery{}, "stored", "UAH")
		assert.Equal(t, "stored", st.Account)
		assert.Equal(t, checkout.TabPremium, st.Tab)
		assert.Equal(t, 1, st.Tokens)
		assert.Equal(t, "1", st.TokensInput)
		assert.Equal(t, plans.StatusIdle, st.Plans.Status)
	})

	t.Run("requested tokens are clamped", func(t *testing.T) {
		t.Parallel()
		st := checkout.NewState(checkout.PageQuery{Tokens: "750"}, "", "USD")
		assert.Equal(t, checkout.TabTokens, st.Tab)
		assert.Equal(t, 500, st.Tokens)
		assert.Equal(t, "500", st.TokensInput)
		assert.Equal(t, "USD", st.Currency)
	})
}

func TestState_SetTab(t *testing.T) {
	t.Parallel()

	st := checkout.NewState(checkout.PageQuery{}, "", "UAH")
	st.TokenErrors = validator.ValidationErrors{{Field: "tokens"}}
	st.PremiumErrors = validator.ValidationErrors{{Field: "plan"}}

	st.SetTab(checkout.TabPremium)
	assert.Empty(t, st.TokenErrors)
	assert.NotEmpty(t, st.PremiumErrors)

	st.TokenErrors = validator.ValidationErrors{{Field: "tokens"}}
	st.SetTab(checkout.TabTokens)
	assert.Empty(t, st.PremiumErrors)
	assert.NotEmpty(t, st.TokenErrors)
}

func TestState_Tokens(t *testing.T) {
	t.Parallel()

	st := checkout.NewState(checkout.PageQuery{}, "", "UAH")
	st.TokenErrors = validator.ValidationErrors{{Field: "tokens"}}

	assert.Equal(t, 500, st.SetTokens(9000))
	assert.Equal(t, "500", st.TokensInput)
	assert.Equal(t, 500, st.SliderValue())
	assert.Empty(t, st.TokenErrors, "every change clears token errors")

	assert.True(t, st.InputTokens("1 000"))
	assert.Equal(t, 500, st.Tokens)
	assert.Equal(t, "500", st.TokensInput, "parsed input is written back clamped")

	st.TokenErrors = validator.ValidationErrors{{Field: "tokens"}}
	assert.False(t, st.InputTokens("12a"))
	assert.Equal(t, 500, st.Tokens, "unparseable input is ignored")
	assert.Equal(t, "12a", st.TokensInput, "typed text is kept")
	assert.NotEmpty(t, st.TokenErrors)
}

func TestState_SetCurrency(t *testing.T) {
	t.Parallel()

	allowed := []string{"UAH", "USD"}
	st := checkout.State{}
	st.SetCurrency("USD", allowed)
	assert.Equal(t, "USD", st.Currency)
	st.SetCurrency("BTC", allowed)
	assert.Equal(t, "UAH", st.Currency)
}

func TestState_PlaceholderSelectionEnablesPremium(t *testing.T) {
	t.Parallel()

	st := checkout.NewState(checkout.PageQuery{}, "", "UAH")
	require.NoError(t, st.SelectPlan(30))
	assert.Equal(t, "PREM_30", st.SelectedPlan)
	assert.True(t, st.PlanSelected(30))
	assert.False(t, st.PlanSelected(7))
	assert.False(t, st.CanPayPremium(), "no account yet")

	st.SetAccount("ab")
	assert.True(t, st.CanPayPremium())

	assert.ErrorIs(t, st.SelectPlan(14), checkout.ErrUnknownDuration)
	assert.Equal(t, "PREM_30", st.SelectedPlan)
}

func TestState_SelectLoadedPlan(t *testing.T) {
	t.Parallel()

	st := checkout.NewState(checkout.PageQuery{}, "", "UAH")
	st.Plans = plans.Snapshot{
		Status:  plans.StatusLoaded,
		Catalog: plans.Catalog{60: {Code: "X60", AmountMinor: 19900, HasAmount: true, Days: 60}},
	}
	require.NoError(t, st.SelectPlan(60))
	assert.Equal(t, "X60", st.SelectedPlan)
	assert.True(t, st.PlanSelected(60))
}

func TestState_TokenCheckout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		account string
		input   string
		codes   []string
	}{
		{"valid account, out of range", "ab", "501", []string{"out-of-range"}},
		{"short account, out of range", "a", "501", []string{"length", "out-of-range"}},
		{"bad charset, not a number", "user name", "12a", []string{"charset", "not-a-number"}},
		{"empty input", "ab", "", []string{"not-a-number"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := checkout.NewState(checkout.PageQuery{}, "", "UAH")
			st.SetAccount(tt.account)
			st.TokensInput = tt.input

			_, _, err := st.TokenCheckout()
			require.ErrorIs(t, err, validator.ErrValidationFailed)
			assert.Equal(t, tt.codes, st.TokenErrors.Codes())
		})
	}

	st := checkout.NewState(checkout.PageQuery{}, "", "UAH")
	st.SetAccount("  Player_1 ")
	st.TokensInput = "1 00"
	account, tokens, err := st.TokenCheckout()
	require.NoError(t, err)
	assert.Equal(t, "Player_1", account)
	assert.Equal(t, 100, tokens)
	assert.Empty(t, st.TokenErrors)
}

func TestState_PremiumFlow(t *testing.T) {
	t.Parallel()

	st := checkout.NewState(checkout.PageQuery{}, "", "UAH")
	_, _, err := st.BeginPremium()
	require.ErrorIs(t, err, validator.ErrValidationFailed)
	assert.Equal(t, []string{"required", "required"}, st.PremiumErrors.Codes())
	assert.False(t, st.PremiumBusy)

	st.SetAccount("ab")
	require.NoError(t, st.SelectPlan(7))
	account, plan, err := st.BeginPremium()
	require.NoError(t, err)
	assert.Equal(t, "ab", account)
	assert.Equal(t, "PREM_7", plan)
	assert.True(t, st.PremiumBusy)
	assert.Empty(t, st.PremiumErrors)
	assert.False(t, st.CanPayPremium(), "busy control is disabled")

	_, _, err = st.BeginPremium()
	assert.ErrorIs(t, err, checkout.ErrCheckoutInFlight)

	st.FinishPremium(errors.New("upstream down"))
	assert.False(t, st.PremiumBusy)
	require.Len(t, st.PremiumErrors, 1)
	assert.Equal(t, "premium.create_failed", st.PremiumErrors[0].TranslationKey)
	assert.True(t, st.CanPayPremium())

	st.FinishPremium(errors.New("again"))
	assert.Len(t, st.PremiumErrors, 1, "retries never stack errors")

	assert.True(t, st.DismissErrors(checkout.TabPremium))
	assert.Empty(t, st.PremiumErrors)
	assert.False(t, st.DismissErrors(checkout.TabPremium), "nothing left to dismiss")
}
