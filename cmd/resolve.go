package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/polyforecast/polyforecast/internal/calibration"
	"github.com/polyforecast/polyforecast/internal/resolver"
)

//nolint:gochecknoglobals // Cobra boilerplate
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Run one resolution sweep",
	Long: `Checks every market with unresolved predictions against the Gamma API
and scores predictions for markets that have settled.`,
	RunE: runResolve,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, logger, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	client, err := newMarketClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("create market client: %w", err)
	}

	tracker, err := calibration.NewTracker(store, logger)
	if err != nil {
		return fmt.Errorf("create tracker: %w", err)
	}

	sweeper, err := resolver.New(&resolver.Config{
		Store:    store,
		Markets:  client,
		Tracker:  tracker,
		Interval: cfg.ResolverInterval,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create resolver: %w", err)
	}

	sweeper.Sweep(ctx)
	fmt.Println("Resolution sweep complete.")

	return nil
}
