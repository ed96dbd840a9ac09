package checkout

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ludens-school/paywidget/handler"
	"github.com/ludens-school/paywidget/pkg/logger"
	"github.com/ludens-school/paywidget/pkg/plans"
)

// PlansAPI exposes the normalised catalog as JSON for consumers that do
// not render the widget.
type PlansAPI struct {
	svc *Service
	log *slog.Logger
}

func NewPlansAPI(svc *Service, log *slog.Logger) *PlansAPI {
	if log == nil {
		log = logger.Nop()
	}
	return &PlansAPI{svc: svc, log: log}
}

func (a *PlansAPI) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/plans", handler.Wrap(a.plans))
	return r
}

func (a *PlansAPI) plans(ctx handler.Context, _ struct{}) handler.Response {
	cat, err := a.svc.Catalog(ctx)
	if err != nil {
		a.log.WarnContext(ctx, "plans api upstream failure", logger.Error(err), logger.Component("plans_api"))
		return handler.JSONError(errors.Join(handler.ErrBadGateway, err))
	}
	return handler.JSON(cat.Ordered(), handler.WithJSONMeta(map[string]any{
		"currency":  a.svc.PremiumCurrency(),
		"durations": plans.Durations,
	}))
}
