package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var newsCmd = &cobra.Command{
	Use:   "news <topic>",
	Short: "Search recent news across all providers",
	Long:  `Queries every configured news provider, deduplicates by URL, and prints the merged results newest first.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNews,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(newsCmd)
	newsCmd.Flags().IntP("limit", "l", 10, "Maximum number of articles")
}

func runNews(cmd *cobra.Command, args []string) error {
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
	topic := strings.Join(args, " ")

	aggregator, err := newAggregator(cfg, logger)
	if err != nil {
		return fmt.Errorf("create news aggregator: %w", err)
	}

	articles := aggregator.Fetch(ctx, topic, limit)
	if len(articles) == 0 {
		fmt.Println("No recent news found.")
		return nil
	}

	for i, a := range articles {
		date := "unknown"
		if a.PublishedAt != nil {
			date = a.PublishedAt.Format("2006-01-02")
		}
		fmt.Printf("%d. [%s] %s (%s)\n   %s\n", i+1, a.Source, a.Title, date, a.URL)
	}

	return nil
}
