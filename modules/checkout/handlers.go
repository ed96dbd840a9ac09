package checkout

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ludens-school/paywidget/handler"
	"github.com/ludens-school/paywidget/pkg/binder"
	"github.com/ludens-school/paywidget/pkg/logger"
	"github.com/ludens-school/paywidget/pkg/sanitizer"
	"github.com/ludens-school/paywidget/pkg/validator"
)

// Signals are the client-side values datastar sends with every action.
// PageID ties the action to the page that rendered it.
type Signals struct {
	PageID      string `json:"pageId"`
	Account     string `json:"account"`
	TokensInput string `json:"tokensInput"`
	TokensRange any    `json:"tokensRange"`
	Currency    string `json:"currency"`
}

type TabRequest struct {
	Signals
	Tab string `path:"tab"`
}

type PresetRequest struct {
	Signals
	Value string `path:"value"`
}

type PlanRequest struct {
	Signals
	Days string `path:"days"`
}

type DismissRequest struct {
	Signals
	Tab string `path:"tab"`
}

// Handlers serves the checkout page and its datastar actions.
type Handlers struct {
	svc          *Service
	views        *Views
	sessions     *Sessions
	accounts     AccountStore
	errorHandler handler.ErrorHandler[handler.Context]
	log          *slog.Logger
}

type HandlersOption func(*Handlers)

func WithErrorHandler(h handler.ErrorHandler[handler.Context]) HandlersOption {
	return func(hs *Handlers) {
		if h != nil {
			hs.errorHandler = h
		}
	}
}

func WithHandlersLogger(l *slog.Logger) HandlersOption {
	return func(hs *Handlers) {
		if l != nil {
			hs.log = l
		}
	}
}

func NewHandlers(svc *Service, views *Views, sessions *Sessions, accounts AccountStore, opts ...HandlersOption) *Handlers {
	h := &Handlers{
		svc:      svc,
		views:    views,
		sessions: sessions,
		accounts: accounts,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.errorHandler == nil {
		h.errorHandler = handler.NewErrorHandler(h.log, handler.ErrorHandlerConfig{
			ErrorPage:   views.ErrorPage,
			ErrorToast:  views.Toast,
			ToastTarget: "#" + IDToasts,
			Translate: func(ctx context.Context, key string) string {
				return views.tr.Tc(ctx, key)
			},
		})
	}
	h.errorHandler = pageExpired(h.errorHandler)
	return h
}

// pageExpired answers actions of a forgotten page with 410 Gone so the
// visitor is told to reload instead of acting on blank defaults.
func pageExpired(next handler.ErrorHandler[handler.Context]) handler.ErrorHandler[handler.Context] {
	return func(ctx handler.Context, err error) {
		if errors.Is(err, ErrPageExpired) {
			err = errors.Join(handler.ErrGone, err)
		}
		next(ctx, err)
	}
}

func (h *Handlers) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/", handler.Wrap(h.page,
		handler.WithBinders[handler.Context, PageQuery](binder.Query()),
		handler.WithErrorHandler[handler.Context, PageQuery](h.errorHandler),
	))

	r.Route("/checkout", func(r chi.Router) {
		r.Post("/account", wrapSignals(h.account, h.errorHandler))
		r.Post("/tab/{tab}", wrapSignals(h.switchTab, h.errorHandler))
		r.Post("/tokens/input", wrapSignals(h.tokensInput, h.errorHandler))
		r.Post("/tokens/range", wrapSignals(h.tokensRange, h.errorHandler))
		r.Post("/tokens/preset/{value}", wrapSignals(h.tokensPreset, h.errorHandler))
		r.Post("/tokens/submit", wrapSignals(h.tokensSubmit, h.errorHandler))
		r.Post("/plans/load", wrapSignals(h.plansLoad, h.errorHandler))
		r.Post("/plans/select/{days}", wrapSignals(h.planSelect, h.errorHandler))
		r.Post("/premium/submit", wrapSignals(h.premiumSubmit, h.errorHandler))
		r.Post("/errors/dismiss/{tab}", wrapSignals(h.dismissErrors, h.errorHandler))
	})

	return r
}

func wrapSignals[R any](fn handler.HandlerFunc[handler.Context, R], onError handler.ErrorHandler[handler.Context]) http.HandlerFunc {
	return handler.Wrap(fn,
		handler.WithBinders[handler.Context, R](
			binder.Path(chi.URLParam),
			binder.Signals(),
		),
		handler.WithErrorHandler[handler.Context, R](onError),
	)
}

// session must run before anything is written: it may set a cookie.
func (h *Handlers) session(ctx handler.Context) string {
	return h.sessions.ID(ctx.ResponseWriter(), ctx.Request())
}

// pageKey resolves the state key of the page that sent the action. Only
// the widget's datastar client knows a page id.
func (h *Handlers) pageKey(ctx handler.Context, req Signals) (string, error) {
	if !handler.IsDataStar(ctx.Request()) {
		return "", handler.ErrDataStarRequired
	}
	sid := h.session(ctx)
	if uuid.Validate(req.PageID) != nil {
		return "", ErrPageExpired
	}
	return PageKey(sid, req.PageID), nil
}

func (h *Handlers) page(ctx handler.Context, q PageQuery) handler.Response {
	w, r := ctx.ResponseWriter(), ctx.Request()
	sid := h.session(ctx)

	stored := h.accounts.Get(r)
	if acc := strings.TrimSpace(q.Account); acc != "" {
		h.accounts.Set(w, acc)
	}

	st, err := h.svc.Start(ctx, sid, q, stored)
	if err != nil {
		return handler.Error(err)
	}
	return handler.Templ(h.views.Page(st, h.svc.Currencies()))
}

func (h *Handlers) account(ctx handler.Context, req Signals) handler.Response {
	id, err := h.pageKey(ctx, req)
	if err != nil {
		return handler.Error(err)
	}
	var trimmed string
	st, err := h.svc.Update(ctx, id, func(st *State) error {
		trimmed = st.SetAccount(req.Account)
		return nil
	})
	if err != nil {
		return handler.Error(err)
	}
	h.accounts.Set(ctx.ResponseWriter(), trimmed)
	return handler.TemplMulti(
		handler.Patch(h.views.PayButton(st)),
		handler.Patch(h.views.PremiumButton(st)),
	)
}

func (h *Handlers) switchTab(ctx handler.Context, req TabRequest) handler.Response {
	tab, ok := ParseTab(req.Tab)
	if !ok {
		return handler.Error(errors.Join(handler.ErrNotFound, ErrUnknownTab))
	}
	id, err := h.pageKey(ctx, req.Signals)
	if err != nil {
		return handler.Error(err)
	}
	st, err := h.svc.Update(ctx, id, func(st *State) error {
		st.SetTab(tab)
		return nil
	})
	if err != nil {
		return handler.Error(err)
	}
	h.log.DebugContext(ctx, "tab switched", logger.Session(id), logger.Tab(string(tab)))

	return handler.SSE(func(s handler.StreamContext) error {
		widget := func(st State) error {
			return s.SendComponent(h.views.Widget(st, h.svc.Currencies()))
		}
		if tab != TabPremium {
			return widget(st)
		}
		return h.streamPlans(s, id, widget)
	})
}

func (h *Handlers) plansLoad(ctx handler.Context, req Signals) handler.Response {
	id, err := h.pageKey(ctx, req)
	if err != nil {
		return handler.Error(err)
	}
	return handler.SSE(func(s handler.StreamContext) error {
		return h.streamPlans(s, id, func(st State) error {
			return s.SendMultiple(
				handler.Patch(h.views.Plans(st)),
				handler.Patch(h.views.PremiumErrors(st)),
			)
		})
	})
}

// streamPlans loads the catalog for the page and patches the outcome.
// show renders the loading state, or the current state when no load runs.
func (h *Handlers) streamPlans(s handler.StreamContext, id string, show func(State) error) error {
	st, ran, err := h.svc.LoadPlans(s, id, show)
	if err != nil {
		return err
	}
	if !ran {
		return show(st)
	}
	return s.SendMultiple(
		handler.Patch(h.views.Plans(st)),
		handler.Patch(h.views.PremiumButton(st)),
	)
}

func (h *Handlers) tokensInput(ctx handler.Context, req Signals) handler.Response {
	return h.updateTokens(ctx, req, func(st *State) bool {
		return st.InputTokens(req.TokensInput)
	})
}

func (h *Handlers) tokensRange(ctx handler.Context, req Signals) handler.Response {
	return h.updateTokens(ctx, req, func(st *State) bool {
		st.SetTokens(numberFromSignal(req.TokensRange))
		return true
	})
}

func (h *Handlers) tokensPreset(ctx handler.Context, req PresetRequest) handler.Response {
	n, err := strconv.Atoi(req.Value)
	if err != nil || !slices.Contains(Presets, n) {
		return handler.Error(errors.Join(handler.ErrNotFound, ErrUnknownPreset))
	}
	return h.updateTokens(ctx, req.Signals, func(st *State) bool {
		st.SetTokens(float64(n))
		return true
	})
}

// updateTokens applies fn and, when it reports a new amount, writes the
// amount back to the field and the slider.
func (h *Handlers) updateTokens(ctx handler.Context, req Signals, fn func(*State) bool) handler.Response {
	id, err := h.pageKey(ctx, req)
	if err != nil {
		return handler.Error(err)
	}
	var changed bool
	st, err := h.svc.Update(ctx, id, func(st *State) error {
		changed = fn(st)
		return nil
	})
	if err != nil {
		return handler.Error(err)
	}
	return handler.SSE(func(s handler.StreamContext) error {
		if changed {
			if err := s.SendSignals(map[string]any{
				"tokensInput": st.TokensInput,
				"tokensRange": st.SliderValue(),
			}); err != nil {
				return err
			}
		}
		return s.SendComponent(h.views.TokenErrors(st))
	})
}

func (h *Handlers) planSelect(ctx handler.Context, req PlanRequest) handler.Response {
	days, err := strconv.Atoi(req.Days)
	if err != nil {
		return handler.Error(errors.Join(handler.ErrNotFound, ErrUnknownDuration))
	}
	id, err := h.pageKey(ctx, req.Signals)
	if err != nil {
		return handler.Error(err)
	}
	st, err := h.svc.Update(ctx, id, func(st *State) error {
		return st.SelectPlan(days)
	})
	switch {
	case errors.Is(err, ErrUnknownDuration):
		return handler.Error(errors.Join(handler.ErrNotFound, err))
	case err != nil:
		return handler.Error(err)
	}
	return handler.TemplMulti(
		handler.Patch(h.views.Plans(st)),
		handler.Patch(h.views.PremiumButton(st)),
	)
}

func (h *Handlers) dismissErrors(ctx handler.Context, req DismissRequest) handler.Response {
	tab, ok := ParseTab(req.Tab)
	if !ok {
		return handler.Error(errors.Join(handler.ErrNotFound, ErrUnknownTab))
	}
	id, err := h.pageKey(ctx, req.Signals)
	if err != nil {
		return handler.Error(err)
	}
	var dismissed bool
	st, err := h.svc.Update(ctx, id, func(st *State) error {
		dismissed = st.DismissErrors(tab)
		return nil
	})
	if err != nil {
		return handler.Error(err)
	}
	if !dismissed {
		return handler.NoContent()
	}
	if tab == TabPremium {
		return handler.Templ(h.views.PremiumErrors(st))
	}
	return handler.Templ(h.views.TokenErrors(st))
}

// syncSignals copies the submitted field values into the state. The token
// text is kept raw so it is validated as typed.
func (h *Handlers) syncSignals(req Signals) func(*State) {
	return func(st *State) {
		st.SetAccount(req.Account)
		st.TokensInput = req.TokensInput
		st.SetCurrency(req.Currency, h.svc.Currencies())
	}
}

func (h *Handlers) tokensSubmit(ctx handler.Context, req Signals) handler.Response {
	id, err := h.pageKey(ctx, req)
	if err != nil {
		return handler.Error(err)
	}
	st, target, err := h.svc.TokenCheckout(ctx, id, h.syncSignals(req))
	switch {
	case errors.Is(err, validator.ErrValidationFailed):
		return handler.TemplMulti(
			handler.Patch(h.views.TokenErrors(st)),
			handler.Patch(h.views.PayButton(st)),
		)
	case err != nil:
		return handler.Error(err)
	}
	return handler.Redirect(target)
}

func (h *Handlers) premiumSubmit(ctx handler.Context, req Signals) handler.Response {
	id, err := h.pageKey(ctx, req)
	if err != nil {
		return handler.Error(err)
	}
	return handler.SSE(func(s handler.StreamContext) error {
		st, pageURL, err := h.svc.PremiumCheckout(s, id, h.syncSignals(req), func(st State) error {
			return s.SendMultiple(
				handler.Patch(h.views.PremiumErrors(st)),
				handler.Patch(h.views.PremiumButton(st)),
			)
		})
		if err == nil {
			return s.Redirect(pageURL)
		}
		if !visitorError(err) {
			return err
		}
		return s.SendMultiple(
			handler.Patch(h.views.PremiumErrors(st)),
			handler.Patch(h.views.PremiumButton(st)),
		)
	})
}

// visitorError reports whether err is shown inline rather than as a toast.
func visitorError(err error) bool {
	return errors.Is(err, validator.ErrValidationFailed) ||
		errors.Is(err, ErrCheckoutInFlight) ||
		errors.Is(err, ErrTooManyAttempts) ||
		errors.Is(err, ErrPremiumCreateFailed)
}

// numberFromSignal converts a bound input value with JS Number() rules.
// A missing value is NaN.
func numberFromSignal(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		return sanitizer.ParseNumber(n)
	case bool:
		if n {
			return 1
		}
		return 0
	}
	return math.NaN()
}
