package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	// Cancel context to signal all components
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err := a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	if a.priceFeed != nil {
		err = a.priceFeed.Close()
		if err != nil {
			a.logger.Error("price-feed-close-error", zap.Error(err))
		}
	}

	// Wait for the bot, resolver and watcher goroutines before closing
	// the stores they read from.
	a.wg.Wait()

	err = a.store.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	a.marketCache.Close()

	a.logger.Info("application-shutdown-complete")

	return nil
}
