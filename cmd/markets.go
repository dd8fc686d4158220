package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List active markets by volume",
	Long:  `Fetches active markets from the Polymarket Gamma API, optionally filtered by category, sorted by volume.`,
	RunE:  runMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(marketsCmd)
	marketsCmd.Flags().IntP("limit", "l", 10, "Maximum number of markets to show")
	marketsCmd.Flags().StringP("category", "c", "", "Category filter (politics, crypto, science, sports, finance)")
}

func runMarkets(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, logger, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	limit, _ := cmd.Flags().GetInt("limit")
	category, _ := cmd.Flags().GetString("category")

	client, err := newMarketClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("create market client: %w", err)
	}

	list, err := client.ListMarkets(ctx, category, limit)
	if err != nil {
		return fmt.Errorf("list markets: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No active markets found.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Question", "Slug", "Volume", "Prices")

	for i := range list {
		market := &list[i]

		question := market.Question
		if len(question) > 60 {
			question = question[:57] + "..."
		}

		prices := ""
		for j, token := range market.Tokens {
			if j > 0 {
				prices += " / "
			}
			prices += fmt.Sprintf("%s %.0f%%", token.Outcome, token.Price*100)
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			question,
			market.Slug,
			fmt.Sprintf("$%.0f", market.Volume),
			prices,
		)
	}

	table.Render()

	return nil
}
