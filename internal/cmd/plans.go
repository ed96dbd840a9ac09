package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ludens-school/paywidget/pkg/i18n"
	"github.com/ludens-school/paywidget/pkg/logger"
	"github.com/ludens-school/paywidget/pkg/plans"
)

func newPlansCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "plans",
		Short: "Fetch and print the normalised Premium plan catalog",
		Args:  cobra.NoArgs,
		RunE:  runPlans,
	}
	c.Flags().String("currency", "", "catalog currency (defaults to PAY_PREMIUM_CURRENCY)")
	c.Flags().Bool("json", false, "print JSON instead of a table")
	c.Flags().Int("retries", 0, "extra attempts after a failed fetch")
	return c
}

func runPlans(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if currency, _ := cmd.Flags().GetString("currency"); currency != "" {
		cfg.Pay.PremiumCurrency = currency
	}

	_, fetcher, err := newFetcher(cfg, logger.Nop())
	if err != nil {
		return err
	}
	retries, _ := cmd.Flags().GetInt("retries")
	snap, err := loadCatalog(cmd.Context(), fetcher, retries)
	if err != nil {
		return fmt.Errorf("fetch plans: %w", err)
	}
	cat := snap.Catalog

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cat.Ordered())
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "DAYS\tCODE\tPRICE (%s)\n", fetcher.Currency())
	for _, days := range plans.Durations {
		p, ok := cat.Lookup(days)
		if !ok {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t-\n", days, plans.PlaceholderCode(days))
			continue
		}
		price := "-"
		if p.HasAmount {
			price = i18n.FormatAmountMinor("en", float64(p.AmountMinor))
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", days, p.Code, price)
	}
	return tw.Flush()
}

// loadCatalog runs the same load lifecycle the widget uses, retrying a
// failed load up to retries times.
func loadCatalog(ctx context.Context, fetcher *plans.Fetcher, retries int) (plans.Snapshot, error) {
	var (
		snap plans.Snapshot
		err  error
	)
	for attempt := 0; attempt <= retries && snap.NeedsLoad(ctx); attempt++ {
		err = fetcher.Load(ctx, &snap)
	}
	return snap, err
}
