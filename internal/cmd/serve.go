package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ludens-school/paywidget/pkg/httpserver"
	"github.com/ludens-school/paywidget/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the checkout widget (default when no subcommand is given)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", logger.Error(err))
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("failed to release resources", logger.Error(err))
		}
	}()

	log.Info("paywidget starting",
		"version", version,
		logger.Upstream(cfg.Pay.BaseURL),
		"store", cfg.Checkout.Store,
	)
	if err := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, a.handler); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("paywidget stopped")
	return nil
}
