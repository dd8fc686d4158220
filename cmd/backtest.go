package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/polyforecast/polyforecast/internal/backtest"
	"github.com/polyforecast/polyforecast/internal/calibration"
	"github.com/polyforecast/polyforecast/internal/forecast"
	"github.com/polyforecast/polyforecast/internal/llm"
)

//nolint:gochecknoglobals // Cobra boilerplate
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay the pipeline over settled markets",
	Long: `Fetches already-resolved markets, forecasts each one as if it were
still open, scores the forecasts against the known outcomes, and prints
a calibration summary. Costs one model call per market.`,
	RunE: runBacktest,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.Flags().IntP("limit", "l", 20, "Number of settled markets to replay")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	cfg, logger, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	limit, _ := cmd.Flags().GetInt("limit")

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

	aggregator, err := newAggregator(cfg, logger)
	if err != nil {
		return fmt.Errorf("create news aggregator: %w", err)
	}

	generator, err := llm.NewClient(&llm.Config{
		APIKey:            cfg.AnthropicAPIKey,
		Model:             cfg.ClaudeModel,
		MaxTokens:         int64(cfg.ClaudeMaxTokens),
		RequestsPerMinute: cfg.AnthropicRPM,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("create llm client: %w", err)
	}

	engine, err := forecast.New(&forecast.Config{
		News:        aggregator,
		Generator:   generator,
		Store:       store,
		MaxArticles: cfg.MaxArticles,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	tracker, err := calibration.NewTracker(store, logger)
	if err != nil {
		return fmt.Errorf("create tracker: %w", err)
	}

	runner, err := backtest.New(&backtest.Config{
		Markets: client,
		Engine:  engine,
		Tracker: tracker,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("create backtest runner: %w", err)
	}

	fmt.Printf("Backtesting up to %d settled markets...\n", limit)

	summary, err := runner.Run(ctx, limit)
	if err != nil {
		return fmt.Errorf("run backtest: %w", err)
	}

	backtest.WriteSummary(os.Stdout, summary)

	return nil
}
