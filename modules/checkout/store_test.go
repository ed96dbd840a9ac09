package checkout_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludens-school/paywidget/modules/checkout"
	"github.com/ludens-school/paywidget/pkg/plans"
	"github.com/ludens-school/paywidget/pkg/validator"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := checkout.NewMemoryStore(2, time.Hour)

	_, err := s.Load(ctx, "missing")
	require.ErrorIs(t, err, checkout.ErrStateNotFound)

	st := checkout.NewState(checkout.PageQuery{Account: "ab"}, "", "UAH")
	st.TokenErrors = validator.ValidationErrors{{Field: "tokens", Code: "out-of-range"}}
	st.Plans.Catalog = plans.Catalog{7: {Code: "PREM_7", Days: 7}}
	require.NoError(t, s.Save(ctx, "one", st))

	st.TokenErrors[0].Code = "mutated"
	st.Plans.Catalog[30] = plans.Plan{Code: "PREM_30", Days: 30}

	got, err := s.Load(ctx, "one")
	require.NoError(t, err)
	assert.Equal(t, "ab", got.Account)
	assert.Equal(t, "out-of-range", got.TokenErrors[0].Code, "saved state is detached from the caller")
	assert.Len(t, got.Plans.Catalog, 1)

	require.NoError(t, s.Save(ctx, "two", st))
	require.NoError(t, s.Save(ctx, "three", st))
	assert.Equal(t, 2, s.Len(), "least recently used session is dropped")
	assert.NoError(t, s.Ping(ctx))
}

func TestNewStore(t *testing.T) {
	t.Parallel()

	s, err := checkout.NewStore(checkout.Config{Store: checkout.StoreMemory, MemoryCapacity: 10, StateTTL: time.Minute}, nil)
	require.NoError(t, err)
	assert.IsType(t, &checkout.MemoryStore{}, s)

	_, err = checkout.NewStore(checkout.Config{Store: checkout.StoreRedis}, nil)
	assert.ErrorIs(t, err, checkout.ErrMissingDependency)

	_, err = checkout.NewStore(checkout.Config{Store: "etcd"}, nil)
	assert.ErrorIs(t, err, checkout.ErrUnknownStore)
}
