package checkout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludens-school/paywidget/modules/checkout"
	"github.com/ludens-school/paywidget/pkg/plans"
	"github.com/ludens-school/paywidget/pkg/ratelimiter"
	"github.com/ludens-school/paywidget/pkg/validator"
)

func TestNewService_MissingDependency(t *testing.T) {
	t.Parallel()

	f, err := plans.NewFetcher(&fakeSource{}, "UAH")
	require.NoError(t, err)

	_, err = checkout.NewService(nil, f, &fakeGateway{})
	assert.ErrorIs(t, err, checkout.ErrMissingDependency)
	_, err = checkout.NewService(checkout.NewMemoryStore(1, time.Minute), nil, &fakeGateway{})
	assert.ErrorIs(t, err, checkout.ErrMissingDependency)
	_, err = checkout.NewService(checkout.NewMemoryStore(1, time.Minute), f, nil)
	assert.ErrorIs(t, err, checkout.ErrMissingDependency)
}

func TestService_UpdateUnknownPage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newService(t, &fakeSource{}, &fakeGateway{})
	called := false
	_, err := svc.Update(ctx, checkout.PageKey("s", "missing"), func(*checkout.State) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, checkout.ErrPageExpired)
	assert.ErrorIs(t, err, checkout.ErrStateNotFound)
	assert.False(t, called, "no defaults are made up for an unknown page")

	_, ran, err := svc.LoadPlans(ctx, checkout.PageKey("s", "missing"), nil)
	require.ErrorIs(t, err, checkout.ErrPageExpired)
	assert.False(t, ran)
}

func TestService_PagesOfOneSessionAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newService(t, &fakeSource{}, &fakeGateway{})

	first, err := svc.Start(ctx, "s", checkout.PageQuery{Account: "ab"}, "")
	require.NoError(t, err)
	second, err := svc.Start(ctx, "s", checkout.PageQuery{Tab: "premium"}, "")
	require.NoError(t, err)
	require.NotEmpty(t, first.PageID)
	assert.NotEqual(t, first.PageID, second.PageID)

	_, err = svc.Update(ctx, checkout.PageKey("s", first.PageID), func(st *checkout.State) error {
		return st.SelectPlan(30)
	})
	require.NoError(t, err)

	st, err := svc.Update(ctx, checkout.PageKey("s", first.PageID), func(*checkout.State) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "ab", st.Account, "a later page does not reset an earlier one")
	assert.NotEmpty(t, st.SelectedPlan)
	assert.Equal(t, first.PageID, st.PageID)

	st, err = svc.Update(ctx, checkout.PageKey("s", second.PageID), func(*checkout.State) error { return nil })
	require.NoError(t, err)
	assert.Empty(t, st.Account)
	assert.Empty(t, st.SelectedPlan)
	assert.Equal(t, checkout.TabPremium, st.Tab)
}

func TestService_UpdateErrorDiscardsChanges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newService(t, &fakeSource{}, &fakeGateway{})
	id := openPage(t, svc, "s", checkout.PageQuery{Account: "ab"})

	boom := errors.New("boom")
	_, err := svc.Update(ctx, id, func(st *checkout.State) error {
		st.SetAccount("changed")
		return boom
	})
	require.ErrorIs(t, err, boom)

	st, err := svc.Update(ctx, id, func(*checkout.State) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "ab", st.Account)
}

func TestService_LoadPlans(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := &fakeSource{doc: catalogDoc()}
	svc := newService(t, src, &fakeGateway{})
	id := openPage(t, svc, "s", checkout.PageQuery{})
	_, err := svc.Update(ctx, id, func(st *checkout.State) error {
		st.PremiumErrors = validator.ValidationErrors{{Field: "plan", Code: "required"}}
		return nil
	})
	require.NoError(t, err)

	var seen checkout.State
	st, ran, err := svc.LoadPlans(ctx, id, func(st checkout.State) error {
		seen = st
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, seen.Plans.Loading())
	assert.Empty(t, seen.PremiumErrors, "a load clears premium errors")

	assert.True(t, st.Plans.Loaded())
	p, ok := st.Plans.Catalog.Lookup(30)
	require.True(t, ok)
	assert.Equal(t, int64(9900), p.AmountMinor)

	_, ran, err = svc.LoadPlans(ctx, id, nil)
	require.NoError(t, err)
	assert.False(t, ran, "a loaded catalog is not fetched again")
	assert.Equal(t, 1, src.count())
}

func TestService_LoadPlansFailureIsRetried(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := &fakeSource{err: errors.New("upstream 503")}
	svc := newService(t, src, &fakeGateway{})
	id := openPage(t, svc, "s", checkout.PageQuery{})

	st, ran, err := svc.LoadPlans(ctx, id, nil)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, st.Plans.Failed())
	assert.Empty(t, st.Plans.Catalog)

	src.set(catalogDoc(), nil)
	st, ran, err = svc.LoadPlans(ctx, id, nil)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, st.Plans.Loaded())
	assert.Equal(t, 2, src.count())
}

func TestService_LoadPlansAtMostOneInFlight(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := &fakeSource{doc: catalogDoc(), gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	svc := newService(t, src, &fakeGateway{})
	id := openPage(t, svc, "s", checkout.PageQuery{})

	done := make(chan checkout.State, 1)
	go func() {
		st, _, err := svc.LoadPlans(ctx, id, nil)
		assert.NoError(t, err)
		done <- st
	}()
	<-src.entered

	st, ran, err := svc.LoadPlans(ctx, id, nil)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.True(t, st.Plans.Loading())

	close(src.gate)
	final := <-done
	assert.True(t, final.Plans.Loaded())
	assert.Equal(t, 1, src.count())
}

func TestService_LoadPlansStartedFailureAllowsRetry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := &fakeSource{doc: catalogDoc()}
	svc := newService(t, src, &fakeGateway{})
	id := openPage(t, svc, "s", checkout.PageQuery{})

	gone := errors.New("client gone")
	_, ran, err := svc.LoadPlans(ctx, id, func(checkout.State) error { return gone })
	require.ErrorIs(t, err, gone)
	assert.True(t, ran)
	assert.Zero(t, src.count(), "upstream is not called when the stream is gone")

	st, ran, err := svc.LoadPlans(ctx, id, nil)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, st.Plans.Loaded())
}

func TestService_TokenCheckout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newService(t, &fakeSource{}, &fakeGateway{})
	id := openPage(t, svc, "s", checkout.PageQuery{})

	sync := func(account, input, currency string) func(*checkout.State) {
		return func(st *checkout.State) {
			st.SetAccount(account)
			st.TokensInput = input
			st.SetCurrency(currency, svc.Currencies())
		}
	}

	st, target, err := svc.TokenCheckout(ctx, id, sync("a", "501", "UAH"))
	require.ErrorIs(t, err, validator.ErrValidationFailed)
	assert.Empty(t, target, "no navigation")
	assert.Len(t, st.TokenErrors, 2)

	st, target, err = svc.TokenCheckout(ctx, id, sync("ab", "501", "UAH"))
	require.ErrorIs(t, err, validator.ErrValidationFailed)
	assert.Empty(t, target)
	assert.Equal(t, []string{"out-of-range"}, st.TokenErrors.Codes())

	st, target, err = svc.TokenCheckout(ctx, id, sync(" ab ", "1_00", "EUR"))
	require.NoError(t, err)
	assert.Empty(t, st.TokenErrors)
	assert.Equal(t, "https://pay.test/pay/api/create?account=ab&currency=EUR&tokens=100", target)

	_, target, err = svc.TokenCheckout(ctx, id, sync("ab", "7", "XYZ"))
	require.NoError(t, err)
	assert.Contains(t, target, "currency=UAH", "unknown currency falls back to the default")
}

func TestService_PremiumCheckout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	withAccount := func(st *checkout.State) { st.SetAccount("ab") }

	t.Run("validation", func(t *testing.T) {
		t.Parallel()

		gw := &fakeGateway{pageURL: "https://pay.test/page/1"}
		svc := newService(t, &fakeSource{}, gw)
		id := openPage(t, svc, "s", checkout.PageQuery{})
		st, pageURL, err := svc.PremiumCheckout(ctx, id, nil, nil)
		require.ErrorIs(t, err, validator.ErrValidationFailed)
		assert.Empty(t, pageURL)
		assert.Equal(t, []string{"required", "required"}, st.PremiumErrors.Codes())
		assert.Zero(t, gw.count())
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		gw := &fakeGateway{pageURL: "https://pay.test/page/1"}
		svc := newService(t, &fakeSource{}, gw)
		id := openPage(t, svc, "s", checkout.PageQuery{})
		_, err := svc.Update(ctx, id, func(st *checkout.State) error { return st.SelectPlan(30) })
		require.NoError(t, err)

		var busy checkout.State
		st, pageURL, err := svc.PremiumCheckout(ctx, id, withAccount, func(st checkout.State) error {
			busy = st
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "https://pay.test/page/1", pageURL)
		assert.True(t, busy.PremiumBusy)
		assert.False(t, st.PremiumBusy)
		assert.Equal(t, "ab", gw.account)
		assert.Equal(t, "PREM_30", gw.plan)
		assert.Equal(t, "UAH", gw.currency)
	})

	t.Run("creation failure is retryable", func(t *testing.T) {
		t.Parallel()

		gw := &fakeGateway{err: errors.New("502")}
		svc := newService(t, &fakeSource{}, gw)
		id := openPage(t, svc, "s", checkout.PageQuery{})
		_, err := svc.Update(ctx, id, func(st *checkout.State) error { return st.SelectPlan(7) })
		require.NoError(t, err)

		for range 3 {
			st, pageURL, err := svc.PremiumCheckout(ctx, id, withAccount, nil)
			require.ErrorIs(t, err, checkout.ErrPremiumCreateFailed)
			assert.Empty(t, pageURL)
			assert.False(t, st.PremiumBusy)
			assert.True(t, st.CanPayPremium())
			require.Len(t, st.PremiumErrors, 1)
			assert.Equal(t, checkout.FieldPremium, st.PremiumErrors[0].Field)
		}
		assert.Equal(t, 3, gw.count())
	})

	t.Run("busy callback failure skips the gateway", func(t *testing.T) {
		t.Parallel()

		gw := &fakeGateway{pageURL: "https://pay.test/page/1"}
		svc := newService(t, &fakeSource{}, gw)
		id := openPage(t, svc, "s", checkout.PageQuery{})
		_, err := svc.Update(ctx, id, func(st *checkout.State) error { return st.SelectPlan(60) })
		require.NoError(t, err)

		st, _, err := svc.PremiumCheckout(ctx, id, withAccount, func(checkout.State) error {
			return errors.New("stream closed")
		})
		require.ErrorIs(t, err, checkout.ErrPremiumCreateFailed)
		assert.False(t, st.PremiumBusy)
		assert.Zero(t, gw.count())
	})

	t.Run("throttled per session", func(t *testing.T) {
		t.Parallel()

		limiter, err := ratelimiter.New(ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Hour})
		require.NoError(t, err)
		gw := &fakeGateway{err: errors.New("502")}
		svc := newService(t, &fakeSource{}, gw, checkout.WithPremiumLimiter(limiter))
		a := openPage(t, svc, "a", checkout.PageQuery{})
		a2 := openPage(t, svc, "a", checkout.PageQuery{})
		b := openPage(t, svc, "b", checkout.PageQuery{})
		for _, id := range []string{a, a2, b} {
			_, err := svc.Update(ctx, id, func(st *checkout.State) error { return st.SelectPlan(30) })
			require.NoError(t, err)
		}

		_, _, err = svc.PremiumCheckout(ctx, a, withAccount, nil)
		require.ErrorIs(t, err, checkout.ErrPremiumCreateFailed)

		st, _, err := svc.PremiumCheckout(ctx, a, withAccount, nil)
		require.ErrorIs(t, err, checkout.ErrTooManyAttempts)
		assert.False(t, st.PremiumBusy)
		assert.Equal(t, []string{"rate-limited"}, st.PremiumErrors.Codes())

		_, _, err = svc.PremiumCheckout(ctx, a2, withAccount, nil)
		require.ErrorIs(t, err, checkout.ErrTooManyAttempts, "another tab shares the session budget")

		_, _, err = svc.PremiumCheckout(ctx, b, withAccount, nil)
		require.ErrorIs(t, err, checkout.ErrPremiumCreateFailed, "other sessions are not affected")
		assert.Equal(t, 2, gw.count())
	})
}

func TestService_Ready(t *testing.T) {
	t.Parallel()

	svc := newService(t, &fakeSource{}, &fakeGateway{})
	id := openPage(t, svc, "s", checkout.PageQuery{})
	assert.NoError(t, svc.Ready(context.Background()))
	assert.Equal(t, []string{"UAH", "USD", "EUR"}, svc.Currencies())
	assert.Equal(t, "UAH", svc.PremiumCurrency())
}
