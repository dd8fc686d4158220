package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/polyforecast/polyforecast/internal/calibration"
)

//nolint:gochecknoglobals // Cobra boilerplate
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the calibration report",
	Long: `Prints Brier score, calibration buckets and BUY win rate over all
resolved predictions.`,
	RunE: runStats,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().String("requested-by", "", "Only score forecasts requested by this id (user id, cli, backtest)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	requestedBy, _ := cmd.Flags().GetString("requested-by")

	store, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	tracker, err := calibration.NewTracker(store, logger)
	if err != nil {
		return fmt.Errorf("create tracker: %w", err)
	}

	report, err := tracker.Report(ctx, requestedBy)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	if report.Total == 0 {
		fmt.Println("No resolved predictions yet.")
		return nil
	}

	fmt.Printf("Resolved predictions: %d\n", report.Total)
	if report.HasBrier {
		fmt.Printf("Brier score: %.4f (lower is better; 0.25 = coin flip)\n", report.Brier)
	}
	if report.HasWinRate {
		fmt.Printf("Win rate on BUY signals: %.1f%% (%d/%d)\n",
			report.WinRate*100, report.BuyWins, report.BuyTotal)
	}

	if len(report.Buckets) > 0 {
		fmt.Println()

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Bucket", "Predicted", "Actual", "Count")

		for _, b := range report.Buckets {
			table.Append(
				fmt.Sprintf("%.0f%%-%.0f%%", b.Lower*100, b.Upper*100),
				fmt.Sprintf("%.2f", b.PredictedAvg),
				fmt.Sprintf("%.2f", b.ActualFrequency),
				fmt.Sprintf("%d", b.Count),
			)
		}

		table.Render()
	}

	return nil
}
