package checkout

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ludens-school/paywidget/pkg/logger"
	"github.com/ludens-school/paywidget/pkg/plans"
	"github.com/ludens-school/paywidget/pkg/ratelimiter"
)

// Gateway is the payment backend as seen by the checkout.
type Gateway interface {
	CreatePremium(ctx context.Context, account, plan, currency string) (string, error)
	TokenCheckoutURL(account string, tokens int, currency string) string
}

// Limiter throttles premium checkout attempts per session.
type Limiter interface {
	Allow(ctx context.Context, key string) (ratelimiter.Result, error)
}

// Service owns page states. Every open page has its own state under
// PageKey, so two tabs of one visitor never share it. Every mutation runs
// under the page's lock; the slow upstream calls run between two locked
// steps.
type Service struct {
	store           Store
	locks           *keyedMutex
	fetcher         *plans.Fetcher
	gateway         Gateway
	premiumCurrency string
	currencies      []string
	limiter         Limiter
	log             *slog.Logger
}

type ServiceOption func(*Service)

func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPremiumLimiter throttles premium checkout creation.
func WithPremiumLimiter(l Limiter) ServiceOption {
	return func(s *Service) { s.limiter = l }
}

// WithCurrencies sets the token flow currencies; the first is the default.
func WithCurrencies(currencies ...string) ServiceOption {
	return func(s *Service) {
		if len(currencies) > 0 {
			s.currencies = currencies
		}
	}
}

func NewService(store Store, fetcher *plans.Fetcher, gateway Gateway, opts ...ServiceOption) (*Service, error) {
	if store == nil || fetcher == nil || gateway == nil {
		return nil, ErrMissingDependency
	}
	s := &Service{
		store:           store,
		locks:           newKeyedMutex(),
		fetcher:         fetcher,
		gateway:         gateway,
		premiumCurrency: fetcher.Currency(),
		currencies:      []string{"UAH"},
		log:             logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Currencies() []string { return s.currencies }

func (s *Service) PremiumCurrency() string { return s.premiumCurrency }

// PageKey is the store and lock key of one page opened in a session.
func PageKey(sessionID, pageID string) string {
	return sessionID + ":" + pageID
}

func sessionOf(key string) string {
	sid, _, _ := strings.Cut(key, ":")
	return sid
}

// Start opens a new page for the session. The returned state carries the
// page id the actions must send back; other pages of the session are left
// untouched.
func (s *Service) Start(ctx context.Context, sessionID string, q PageQuery, storedAccount string) (State, error) {
	st := NewState(q, storedAccount, s.currencies[0])
	st.PageID = uuid.NewString()
	key := PageKey(sessionID, st.PageID)

	unlock := s.locks.Lock(key)
	defer unlock()

	if err := s.store.Save(ctx, key, st); err != nil {
		return State{}, err
	}
	s.log.DebugContext(ctx, "checkout started",
		logger.Session(key),
		logger.Tab(string(st.Tab)),
		slog.Int("tokens", st.Tokens),
	)
	return st, nil
}

// Update applies fn to the page's state and saves it. An unknown or
// evicted page fails with ErrPageExpired. When fn fails nothing is saved.
func (s *Service) Update(ctx context.Context, id string, fn func(*State) error) (State, error) {
	unlock := s.locks.Lock(id)
	defer unlock()
	return s.update(ctx, id, fn)
}

func (s *Service) update(ctx context.Context, id string, fn func(*State) error) (State, error) {
	st, err := s.store.Load(ctx, id)
	switch {
	case errors.Is(err, ErrStateNotFound):
		return State{}, errors.Join(ErrPageExpired, err)
	case err != nil:
		return State{}, err
	}

	if err := fn(&st); err != nil {
		return st, err
	}
	if err := s.store.Save(ctx, id, st); err != nil {
		return State{}, err
	}
	return st, nil
}

// LoadPlans fetches the plan catalog for the page unless it is loaded
// or already loading. started is called with the loading state before the
// upstream call. The returned bool reports whether a fetch ran.
func (s *Service) LoadPlans(ctx context.Context, id string, started func(State) error) (State, bool, error) {
	var began bool
	st, err := s.Update(ctx, id, func(st *State) error {
		if began = s.fetcher.Begin(ctx, &st.Plans); began {
			st.PremiumErrors = nil
		}
		return nil
	})
	if err != nil || !began {
		return st, false, err
	}

	if started != nil {
		if err := started(st); err != nil {
			s.abortPlans(ctx, id, err)
			return st, true, err
		}
	}

	cat, fetchErr := s.fetcher.Fetch(ctx)
	// The visitor may have gone; the outcome is still recorded.
	done := context.WithoutCancel(ctx)
	st, err = s.Update(done, id, func(st *State) error {
		return s.fetcher.Complete(done, &st.Plans, cat, fetchErr)
	})
	if err != nil {
		return st, true, err
	}
	if fetchErr != nil {
		s.log.WarnContext(ctx, "plans unavailable", logger.Session(id), logger.Error(fetchErr))
	}
	return st, true, nil
}

// abortPlans moves a load that never reached the upstream to errored so
// the next activation can retry.
func (s *Service) abortPlans(ctx context.Context, id string, cause error) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.Update(ctx, id, func(st *State) error {
		return s.fetcher.Complete(ctx, &st.Plans, nil, cause)
	}); err != nil {
		s.log.ErrorContext(ctx, "failed to reset plan load", logger.Session(id), logger.Error(err))
	}
}

// Catalog fetches the catalog without touching any page.
func (s *Service) Catalog(ctx context.Context) (plans.Catalog, error) {
	return s.fetcher.Fetch(ctx)
}

// TokenCheckout validates the token flow and returns the gateway URL.
func (s *Service) TokenCheckout(ctx context.Context, id string, sync func(*State)) (State, string, error) {
	var (
		target   string
		checkErr error
	)
	st, err := s.Update(ctx, id, func(st *State) error {
		if sync != nil {
			sync(st)
		}
		var (
			account string
			tokens  int
		)
		account, tokens, checkErr = st.TokenCheckout()
		if checkErr == nil {
			target = s.gateway.TokenCheckoutURL(account, tokens, st.Currency)
		}
		return nil
	})
	if err != nil {
		return st, "", err
	}
	if checkErr != nil {
		return st, "", checkErr
	}
	s.log.InfoContext(ctx, "token checkout",
		logger.Session(id),
		logger.Account(st.TrimmedAccount()),
		slog.Int("tokens", st.Tokens),
		slog.String("currency", st.Currency),
	)
	return st, target, nil
}

// PremiumCheckout validates the premium flow, creates the payment page and
// returns its URL. busy is called with the busy state before the upstream
// call. On failure the returned state carries the error for the visitor.
func (s *Service) PremiumCheckout(ctx context.Context, id string, sync func(*State), busy func(State) error) (State, string, error) {
	var (
		account, plan string
		beginErr      error
	)
	st, err := s.Update(ctx, id, func(st *State) error {
		if sync != nil {
			sync(st)
		}
		account, plan, beginErr = st.BeginPremium()
		if beginErr == nil && !s.allowPremium(ctx, id) {
			st.RejectPremium(premiumRateLimited())
			beginErr = ErrTooManyAttempts
		}
		return nil
	})
	if err != nil {
		return st, "", err
	}
	if beginErr != nil {
		return st, "", beginErr
	}

	var createErr error
	if busy != nil {
		createErr = busy(st)
	}
	var pageURL string
	if createErr == nil {
		pageURL, createErr = s.gateway.CreatePremium(ctx, account, plan, s.premiumCurrency)
	}
	if createErr != nil {
		createErr = errors.Join(ErrPremiumCreateFailed, createErr)
	}

	st, err = s.Update(context.WithoutCancel(ctx), id, func(st *State) error {
		st.FinishPremium(createErr)
		return nil
	})
	if err != nil {
		return st, "", err
	}
	if createErr != nil {
		s.log.WarnContext(ctx, "premium checkout failed",
			logger.Session(id),
			logger.Account(account),
			logger.PlanCode(plan),
			logger.Error(createErr),
		)
		return st, "", createErr
	}

	s.log.InfoContext(ctx, "premium checkout",
		logger.Session(id),
		logger.Account(account),
		logger.PlanCode(plan),
	)
	return st, pageURL, nil
}

// allowPremium counts attempts of all the session's pages together. It
// fails open when the limiter errors.
func (s *Service) allowPremium(ctx context.Context, id string) bool {
	if s.limiter == nil {
		return true
	}
	res, err := s.limiter.Allow(ctx, "premium:"+sessionOf(id))
	if err != nil {
		s.log.WarnContext(ctx, "premium limiter failed", logger.Session(id), logger.Error(err))
		return true
	}
	if !res.Allowed() {
		s.log.InfoContext(ctx, "premium checkout throttled", logger.Session(id))
	}
	return res.Allowed()
}

// Ready reports whether the state store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}
