package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/polyforecast/polyforecast/internal/pricefeed"
	"github.com/polyforecast/polyforecast/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var watchCmd = &cobra.Command{
	Use:   "watch <url|slug|condition_id>",
	Short: "Stream live outcome prices for one market",
	Long: `Subscribes to the CLOB market WebSocket channel for every outcome of
the given market and re-renders the price table whenever a price moves.
Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := newMarketClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("create market client: %w", err)
	}

	market, err := client.GetMarket(ctx, args[0])
	if err != nil {
		return fmt.Errorf("fetch market: %w", err)
	}
	if market == nil {
		return fmt.Errorf("market not found: %s", args[0])
	}
	if len(market.Tokens) == 0 {
		return fmt.Errorf("market %s has no outcome tokens", market.ConditionID)
	}

	if cfg.PricefeedWSURL == "" {
		return fmt.Errorf("PRICEFEED_WS_URL must be set to watch live prices")
	}

	feed, err := pricefeed.New(pricefeed.Config{
		URL:                   cfg.PricefeedWSURL,
		DialTimeout:           10 * time.Second,
		PingInterval:          10 * time.Second,
		ReconnectInitialDelay: time.Second,
		ReconnectMaxDelay:     time.Minute,
		ReconnectBackoffMult:  2.0,
		MessageBufferSize:     1000,
		Logger:                logger,
	})
	if err != nil {
		return fmt.Errorf("create price feed: %w", err)
	}

	err = feed.Start()
	if err != nil {
		return fmt.Errorf("start price feed: %w", err)
	}
	defer func() {
		_ = feed.Close()
	}()

	tokenIDs := make([]string, 0, len(market.Tokens))
	prices := make(map[string]float64, len(market.Tokens))
	for _, token := range market.Tokens {
		tokenIDs = append(tokenIDs, token.TokenID)
		prices[token.TokenID] = token.Price
	}

	err = feed.Subscribe(ctx, tokenIDs)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	fmt.Printf("Watching: %s\n(Ctrl-C to stop)\n\n", market.Question)
	printPrices(market, prices)

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopped.")
			return nil
		case msg, ok := <-feed.Messages():
			if !ok {
				return nil
			}
			if msg.Price == "" {
				continue
			}
			if _, tracked := prices[msg.AssetID]; !tracked {
				continue
			}
			prices[msg.AssetID] = msg.PriceValue()
			fmt.Printf("\n[%s] %s\n", time.Now().Format("15:04:05"), msg.EventType)
			printPrices(market, prices)
		}
	}
}

func printPrices(market *types.Market, prices map[string]float64) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Outcome", "Price", "Implied")

	for _, token := range market.Tokens {
		price := prices[token.TokenID]
		table.Append(
			token.Outcome,
			fmt.Sprintf("%.4f", price),
			fmt.Sprintf("%.1f%%", price*100),
		)
	}

	table.Render()
}
