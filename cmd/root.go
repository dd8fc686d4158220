package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polyforecast",
	Short: "Superforecasting bot for Polymarket",
	Long: `Polyforecast analyzes Polymarket prediction markets with a
superforecasting pipeline: it gathers recent news, asks a language model
for independent probability estimates, compares them to market prices,
and sizes positions with fractional Kelly.

Forecasts are persisted so resolved markets feed a calibration report
(Brier score, confidence buckets, win rate on BUY signals).`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
