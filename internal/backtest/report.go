package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

// WriteSummary renders a human-readable backtest summary.
func WriteSummary(w io.Writer, s *Summary) {
	fmt.Fprintf(w, "\nBacktest: %d markets fetched, %d tested, %d skipped, %d failed (%s)\n",
		s.MarketsFetched, s.MarketsTested, s.MarketsSkipped, s.MarketsFailed,
		s.Duration.Round(10*time.Millisecond))
	fmt.Fprintf(w, "Predictions resolved: %d\n", s.Resolved)

	report := s.Report
	if report == nil || report.Total == 0 {
		fmt.Fprintln(w, "No resolved predictions to score.")
		return
	}

	if report.HasBrier {
		fmt.Fprintf(w, "Brier score: %.4f (lower is better; 0.25 = coin flip)\n", report.Brier)
	}
	if report.HasWinRate {
		fmt.Fprintf(w, "Win rate on BUY signals: %.1f%% (%d/%d)\n",
			report.WinRate*100, report.BuyWins, report.BuyTotal)
	}

	if len(report.Buckets) == 0 {
		return
	}

	fmt.Fprintln(w, "\nCalibration by confidence bucket:")

	table := tablewriter.NewWriter(w)
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
