package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ludens-school/paywidget/modules/checkout"
	"github.com/ludens-school/paywidget/pkg/clientip"
	"github.com/ludens-school/paywidget/pkg/cookie"
	"github.com/ludens-school/paywidget/pkg/environment"
	"github.com/ludens-school/paywidget/pkg/httpserver"
	"github.com/ludens-school/paywidget/pkg/i18n"
	"github.com/ludens-school/paywidget/pkg/logger"
	"github.com/ludens-school/paywidget/pkg/payapi"
	"github.com/ludens-school/paywidget/pkg/plans"
	"github.com/ludens-school/paywidget/pkg/ratelimiter"
	"github.com/ludens-school/paywidget/pkg/redis"
	"github.com/ludens-school/paywidget/pkg/requestid"
)

func newLogger(cfg appConfig) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.environment(), cfg.Name),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
			environment.LoggerExtractor(),
		),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	return logger.New(opts...)
}

func newFetcher(cfg appConfig, log *slog.Logger) (*payapi.Client, *plans.Fetcher, error) {
	client, err := payapi.NewFromConfig(cfg.Pay, payapi.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	fetcher, err := plans.NewFetcher(client, cfg.Pay.PremiumCurrency, plans.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return client, fetcher, nil
}

// app is the wired HTTP surface and the resources to release on exit.
type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newApp(ctx context.Context, cfg appConfig, log *slog.Logger) (*app, error) {
	a := &app{}

	premiumLimiter, err := ratelimiter.New(cfg.PremiumLimit)
	if err != nil {
		return nil, err
	}
	apiLimiter, err := ratelimiter.New(cfg.APILimit)
	if err != nil {
		return nil, err
	}

	client, fetcher, err := newFetcher(cfg, log)
	if err != nil {
		return nil, err
	}

	var (
		store     checkout.Store
		readiness []func(context.Context) error
	)
	if cfg.Checkout.Store == checkout.StoreRedis {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		readiness = append(readiness, redis.Healthcheck(rdb))
		store, err = checkout.NewStore(cfg.Checkout, rdb)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
	} else if store, err = checkout.NewStore(cfg.Checkout, nil); err != nil {
		return nil, err
	}

	svc, err := checkout.NewService(store, fetcher, client,
		checkout.WithCurrencies(cfg.Pay.TokenCurrencies...),
		checkout.WithPremiumLimiter(premiumLimiter),
		checkout.WithServiceLogger(log),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	readiness = append(readiness, svc.Ready)

	tr, err := checkout.LoadTranslations(cfg.Checkout.DefaultLanguage, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	widget := checkout.NewHandlers(svc,
		checkout.NewViews(tr),
		checkout.NewSessions(cookies, cfg.Checkout.StateTTL),
		checkout.NewCookieAccountStore(cookies),
		checkout.WithHandlersLogger(log),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(clientip.Middleware)
	r.Use(requestid.Middleware)
	r.Use(environment.Middleware(cfg.environment()))
	r.Use(i18n.Middleware(i18n.NewNegotiator(tr.Languages()...)))

	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Get("/readyz", httpserver.HealthCheckHandler(log, readiness...))
	r.Mount("/", checkout.Router(checkout.RouterOptions{
		Widget:         widget,
		API:            checkout.NewPlansAPI(svc, log),
		APIMiddlewares: []func(http.Handler) http.Handler{ratelimiter.Middleware(apiLimiter, clientip.Key)},
	}))

	sweepCtx, stopSweep := context.WithCancel(context.WithoutCancel(ctx))
	go premiumLimiter.Run(sweepCtx, time.Minute)
	go apiLimiter.Run(sweepCtx, time.Minute)
	a.closers = append(a.closers, func() error { stopSweep(); return nil })

	a.handler = r
	return a, nil
}
