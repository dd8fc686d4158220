package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/internal/markets"
	"github.com/polyforecast/polyforecast/internal/news"
	"github.com/polyforecast/polyforecast/internal/storage"
	"github.com/polyforecast/polyforecast/pkg/config"
)

// loadEnv loads .env (best effort), the configuration, and a logger.
func loadEnv() (*config.Config, *zap.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}

func newMarketClient(cfg *config.Config, logger *zap.Logger) (*markets.Client, error) {
	return markets.NewClient(&markets.Config{
		GammaURL: cfg.GammaURL,
		ClobURL:  cfg.ClobURL,
		Logger:   logger,
	})
}

func newStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageDriver == "postgres" {
		return storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
	}

	return storage.NewSQLiteStorage(&storage.SQLiteConfig{
		Path:   cfg.SQLitePath,
		Logger: logger,
	})
}

func newAggregator(cfg *config.Config, logger *zap.Logger) (*news.Aggregator, error) {
	providers := []news.Provider{
		news.NewGoogleNewsProvider(logger),
		news.NewRSSProvider(logger),
	}
	if cfg.NewsAPIKey != "" {
		providers = append(providers, news.NewNewsAPIProvider(cfg.NewsAPIKey, cfg.NewsAPIRPM, logger))
	}
	if cfg.GuardianAPIKey != "" {
		providers = append(providers, news.NewGuardianProvider(cfg.GuardianAPIKey, logger))
	}

	return news.New(&news.Config{
		Providers:        providers,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerCooldown:  cfg.BreakerCooldown,
		Logger:           logger,
	})
}
