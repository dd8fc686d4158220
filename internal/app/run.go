package app

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("storage-driver", a.cfg.StorageDriver),
		zap.String("model", a.cfg.ClaudeModel),
		zap.String("log-level", a.cfg.LogLevel))

	err := a.startComponents()
	if err != nil {
		return err
	}

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.Bool("telegram-bot", a.bot != nil),
		zap.Bool("price-feed", a.priceFeed != nil))

	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	// Start price feed. A feed outage degrades price freshness but never
	// blocks forecasting, so a failed dial is logged rather than fatal.
	a.startPriceFeed()

	// Start resolution sweeper
	a.wg.Add(1)
	go a.runResolver()

	// Start Telegram bot
	if a.bot != nil {
		a.wg.Add(1)
		go a.runBot()
	}

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runResolver() {
	defer a.wg.Done()
	err := a.resolver.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("resolver-error", zap.Error(err))
	}
}

func (a *App) runBot() {
	defer a.wg.Done()
	err := a.bot.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("telegram-bot-error", zap.Error(err))
	}
}

func (a *App) startPriceFeed() {
	if a.priceFeed == nil {
		return
	}

	err := a.priceFeed.Start()
	if err != nil {
		a.logger.Warn("price-feed-start-failed",
			zap.Error(err),
			zap.String("note", "continuing without live prices"))
		a.priceFeed = nil
		return
	}

	a.wg.Add(2)
	go a.consumePriceUpdates()
	go a.trackOpenMarkets()
}

// consumePriceUpdates drops cached market entries when their price moves
// so the next lookup refetches fresh prices.
func (a *App) consumePriceUpdates() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case msg, ok := <-a.priceFeed.Messages():
			if !ok {
				return
			}
			if msg.Market != "" {
				a.cachedSource.Invalidate(msg.Market)
			}
		}
	}
}

// trackOpenMarkets keeps the price feed subscribed to every market that
// still has unresolved predictions.
func (a *App) trackOpenMarkets() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.MarketCacheTTL)
	defer ticker.Stop()

	a.subscribeOpenMarkets()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.subscribeOpenMarkets()
		}
	}
}

func (a *App) subscribeOpenMarkets() {
	ids, err := a.store.UnresolvedMarketIDs(a.ctx)
	if err != nil {
		a.logger.Warn("open-market-load-failed", zap.Error(err))
		return
	}

	var tokenIDs []string
	for _, id := range ids {
		market, err := a.marketSource.GetMarket(a.ctx, id)
		if err != nil || market == nil {
			continue
		}
		for _, token := range market.Tokens {
			if token.TokenID != "" {
				tokenIDs = append(tokenIDs, token.TokenID)
			}
		}
	}

	if len(tokenIDs) == 0 {
		return
	}

	err = a.priceFeed.Subscribe(a.ctx, tokenIDs)
	if err != nil {
		a.logger.Warn("price-feed-subscribe-failed",
			zap.Int("tokens", len(tokenIDs)),
			zap.Error(err))
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
