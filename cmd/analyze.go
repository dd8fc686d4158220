package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/polyforecast/polyforecast/internal/forecast"
	"github.com/polyforecast/polyforecast/internal/llm"
)

// cliRequestedBy tags forecasts made from the command line.
const cliRequestedBy = "cli"

//nolint:gochecknoglobals // Cobra boilerplate
var analyzeCmd = &cobra.Command{
	Use:   "analyze <url|slug|condition_id>",
	Short: "Run a superforecasting analysis on one market",
	Long: `Runs the full pipeline on a single market: fetches recent news,
asks the model for independent probability estimates, and compares them
to the market's prices. The forecast is saved so it can be scored once
the market resolves.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Bool("no-save", false, "Do not persist the forecast")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	cfg, logger, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	noSave, _ := cmd.Flags().GetBool("no-save")

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

	engineCfg := &forecast.Config{
		News:        aggregator,
		Generator:   generator,
		MaxArticles: cfg.MaxArticles,
		Logger:      logger,
	}
	if !noSave {
		store, err := newStorage(cfg, logger)
		if err != nil {
			return fmt.Errorf("create storage: %w", err)
		}
		defer func() {
			_ = store.Close()
		}()
		engineCfg.Store = store
	}

	engine, err := forecast.New(engineCfg)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	market, err := client.GetMarket(ctx, args[0])
	if err != nil {
		return fmt.Errorf("fetch market: %w", err)
	}
	if market == nil {
		return fmt.Errorf("market not found: %s", args[0])
	}

	fmt.Printf("Analyzing: %s\n\n", market.Question)

	result, err := engine.AnalyzeMarket(ctx, market, cliRequestedBy)
	if err != nil {
		return fmt.Errorf("analyze market: %w", err)
	}

	printForecast(os.Stdout, result)

	return nil
}

func printForecast(w io.Writer, result *forecast.Result) {
	table := tablewriter.NewWriter(w)
	table.Header("Outcome", "Model", "Market", "EV/$", "Kelly", "Signal")

	for _, o := range result.Outcomes {
		table.Append(
			o.Outcome,
			fmt.Sprintf("%.1f%%", o.BotProbability*100),
			fmt.Sprintf("%.1f%%", o.MarketProbability*100),
			fmt.Sprintf("%+.3f", o.EVPerDollar),
			fmt.Sprintf("%.1f%%", o.KellyFraction*100),
			string(o.Recommendation),
		)
	}

	table.Render()

	fmt.Fprintf(w, "\nNews articles used: %d\n", result.ArticleCount)

	if best := result.BestOpportunity(); best != nil {
		fmt.Fprintf(w, "Best opportunity: %s %s (EV %+.3f per $1)\n",
			string(best.Recommendation), best.Outcome, best.EVPerDollar)
	}

	fmt.Fprintf(w, "\n--- Reasoning ---\n%s\n", result.Reasoning)
}
