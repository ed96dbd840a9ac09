package checkout_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludens-school/paywidget/handler"
	"github.com/ludens-school/paywidget/modules/checkout"
	"github.com/ludens-school/paywidget/pkg/i18n"
	"github.com/ludens-school/paywidget/pkg/plans"
	"github.com/ludens-school/paywidget/pkg/validator"
)

func newViews(t *testing.T) *checkout.Views {
	t.Helper()

	tr, err := checkout.LoadTranslations("ru", nil)
	require.NoError(t, err)
	return checkout.NewViews(tr)
}

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()

	var sb strings.Builder
	require.NoError(t, c.Render(ctx, &sb))
	return sb.String()
}

func TestViews_PlansOrderAndPlaceholders(t *testing.T) {
	t.Parallel()

	v := newViews(t)
	st := checkout.NewState(checkout.PageQuery{}, "", "UAH")
	st.Plans = plans.Snapshot{Status: plans.StatusLoading}

	html := render(t, context.Background(), v.Plans(st))
	assert.Contains(t, html, "Загружаем планы...")
	i7 := strings.Index(html, `data-plan-code="PREM_7"`)
	i30 := strings.Index(html, `data-plan-code="PREM_30"`)
	i60 := strings.Index(html, `data-plan-code="PREM_60"`)
	require.True(t, i7 >= 0 && i30 >= 0 && i60 >= 0)
	assert.True(t, i7 < i30 && i30 < i60, "cards are ordered 7, 30, 60")
	assert.Equal(t, 3, strings.Count(html, `<span class="planPrice">...</span>`))
	assert.NotContains(t, html, "disabled", "placeholder cards stay clickable")
}

func TestViews_PlanPrices(t *testing.T) {
	t.Parallel()

	v := newViews(t)
	st := checkout.NewState(checkout.PageQuery{}, "", "UAH")
	st.Plans = plans.Snapshot{
		Status: plans.StatusLoaded,
		Catalog: plans.Catalog{
			7:  {Code: "W", AmountMinor: 4950, HasAmount: true, Days: 7},
			30: {Code: "M", Days: 30},
		},
	}

	html := render(t, context.Background(), v.Plans(st))
	assert.Contains(t, html, "49,5 грн")
	assert.Equal(t, 2, strings.Count(html, `<span class="planPrice">-</span>`), "unknown amount and missing plan")
	assert.Contains(t, html, `data-plan-code="PREM_60"`)

	en := i18n.WithLanguage(context.Background(), "en")
	html = render(t, en, v.Plans(st))
	assert.Contains(t, html, "49.5 UAH")
	assert.Contains(t, html, "Premium for 7 days")
}

func TestViews_PlansStatusError(t *testing.T) {
	t.Parallel()

	v := newViews(t)
	st := checkout.NewState(checkout.PageQuery{Tab: "premium"}, "", "UAH")
	st.Plans = plans.Snapshot{Status: plans.StatusErrored, Error: "boom"}

	html := render(t, context.Background(), v.Plans(st))
	assert.Contains(t, html, `class="hint hintError"`)
	assert.Contains(t, html, "Не удалось загрузить планы")
	assert.NotContains(t, html, "boom")
	assert.NotContains(t, html, "data-init", "a failed load retries on the next activation")
}

func TestViews_ErrorMessages(t *testing.T) {
	t.Parallel()

	v := newViews(t)
	st := checkout.NewState(checkout.PageQuery{}, "", "UAH")
	st.TokenErrors = validator.ValidationErrors{
		{Field: "tokens", Code: "not-integer", Message: "must be a whole number"},
		{Field: "other", Code: "weird", Message: "<raw> message"},
	}

	html := render(t, context.Background(), v.TokenErrors(st))
	assert.Contains(t, html, `id="errorsList"`)
	assert.Contains(t, html, "ТОКЕНЫ: только целое число.")
	assert.Contains(t, html, "&lt;raw&gt; message", "untranslated errors fall back to the escaped message")
	assert.Contains(t, html, "/checkout/errors/dismiss/tokens")
}

func TestViews_ToastAndErrorPage(t *testing.T) {
	t.Parallel()

	v := newViews(t)
	ctx := context.Background()

	html := render(t, ctx, v.Toast(handler.ErrorToastParams{Message: "<oops>", Type: "error", RequestID: "req-1"}))
	assert.Contains(t, html, `class="toast toast-error"`)
	assert.Contains(t, html, "&lt;oops&gt;")
	assert.Contains(t, html, "req-1")

	html = render(t, ctx, v.ErrorPage(handler.ErrorPageParams{Error: "Страница не найдена.", StatusCode: 404, RetryURL: "/"}))
	assert.Contains(t, html, "<title>Ошибка 404</title>")
	assert.Contains(t, html, `href="/"`)
}

func TestViews_PremiumButtonBusy(t *testing.T) {
	t.Parallel()

	v := newViews(t)
	st := checkout.NewState(checkout.PageQuery{Account: "ab"}, "", "UAH")
	require.NoError(t, st.SelectPlan(7))

	html := render(t, context.Background(), v.PremiumButton(st))
	assert.Contains(t, html, ">Оплатить Премиум</button>")
	assert.NotContains(t, html, "disabled")

	st.PremiumBusy = true
	html = render(t, context.Background(), v.PremiumButton(st))
	assert.Contains(t, html, ">Открываем оплату...</button>")
	assert.Contains(t, html, "disabled")
	assert.Contains(t, html, `aria-busy="true"`)
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestViews_RenderErrors(t *testing.T) {
	t.Parallel()

	v := newViews(t)
	st := checkout.NewState(checkout.PageQuery{}, "", "UAH")

	t.Run("canceled context writes nothing", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var sb strings.Builder
		err := v.Page(st, []string{"UAH"}).Render(ctx, &sb)
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, sb.String())
	})

	t.Run("writer failure is returned", func(t *testing.T) {
		t.Parallel()

		broken := errors.New("connection reset")
		for _, c := range []templ.Component{
			v.Page(st, []string{"UAH"}),
			v.PayButton(st),
		} {
			assert.ErrorIs(t, c.Render(context.Background(), failingWriter{err: broken}), broken)
		}
	})
}

func TestViews_PageCarriesPageID(t *testing.T) {
	t.Parallel()

	v := newViews(t)
	st := checkout.NewState(checkout.PageQuery{}, "", "UAH")
	st.PageID = "0b6e4f4e-2a59-4c55-9d3c-2f0a7b1c9e11"

	html := render(t, context.Background(), v.Page(st, []string{"UAH"}))
	assert.Contains(t, html, `&#34;pageId&#34;:&#34;0b6e4f4e-2a59-4c55-9d3c-2f0a7b1c9e11&#34;`)
}
