package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/internal/bot"
	"github.com/polyforecast/polyforecast/internal/calibration"
	"github.com/polyforecast/polyforecast/internal/forecast"
	"github.com/polyforecast/polyforecast/internal/llm"
	"github.com/polyforecast/polyforecast/internal/markets"
	"github.com/polyforecast/polyforecast/internal/news"
	"github.com/polyforecast/polyforecast/internal/pricefeed"
	"github.com/polyforecast/polyforecast/internal/resolver"
	"github.com/polyforecast/polyforecast/internal/storage"
	"github.com/polyforecast/polyforecast/pkg/cache"
	"github.com/polyforecast/polyforecast/pkg/config"
	"github.com/polyforecast/polyforecast/pkg/healthprobe"
	"github.com/polyforecast/polyforecast/pkg/httpserver"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New("polyforecast")
	httpServer := setupHTTPServer(cfg, logger, healthChecker)

	marketCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	store, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	cachedSource, err := setupMarketSource(cfg, logger, marketCache)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup market source: %w", err)
	}

	aggregator, err := setupNewsAggregator(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup news aggregator: %w", err)
	}

	engine, err := setupEngine(cfg, logger, aggregator, store)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup forecast engine: %w", err)
	}

	tracker, err := calibration.NewTracker(store, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup calibration tracker: %w", err)
	}

	sweeper, err := resolver.New(&resolver.Config{
		Store:    store,
		Markets:  cachedSource,
		Tracker:  tracker,
		Interval: cfg.ResolverInterval,
		Logger:   logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup resolver: %w", err)
	}

	priceFeed, err := setupPriceFeed(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup price feed: %w", err)
	}

	tgBot, err := setupBot(cfg, logger, engine, cachedSource, aggregator, tracker, store)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup telegram bot: %w", err)
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		marketCache:   marketCache,
		marketSource:  cachedSource,
		cachedSource:  cachedSource,
		store:         store,
		engine:        engine,
		aggregator:    aggregator,
		tracker:       tracker,
		resolver:      sweeper,
		priceFeed:     priceFeed,
		bot:           tgBot,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupHTTPServer(cfg *config.Config, logger *zap.Logger, healthChecker *healthprobe.HealthChecker) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
	})
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000, // 10x expected max items (1000 markets)
		MaxCost:     1000,  // Maximum 1000 items in cache
		BufferItems: 64,    // Buffer size for Get operations
		Logger:      logger,
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageDriver == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	sqliteStorage, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
		Path:   cfg.SQLitePath,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create sqlite storage: %w", err)
	}
	return sqliteStorage, nil
}

func setupMarketSource(cfg *config.Config, logger *zap.Logger, marketCache cache.Cache) (*markets.CachedSource, error) {
	client, err := markets.NewClient(&markets.Config{
		GammaURL: cfg.GammaURL,
		ClobURL:  cfg.ClobURL,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create market client: %w", err)
	}

	return markets.NewCachedSource(&markets.CacheConfig{
		Source: client,
		Cache:  marketCache,
		TTL:    cfg.MarketCacheTTL,
		Logger: logger,
	})
}

func setupNewsAggregator(cfg *config.Config, logger *zap.Logger) (*news.Aggregator, error) {
	providers := []news.Provider{
		news.NewGoogleNewsProvider(logger),
		news.NewRSSProvider(logger),
	}

	if cfg.NewsAPIKey != "" {
		providers = append(providers, news.NewNewsAPIProvider(cfg.NewsAPIKey, cfg.NewsAPIRPM, logger))
	} else {
		logger.Info("newsapi-provider-disabled", zap.String("reason", "NEWSAPI_KEY not set"))
	}

	if cfg.GuardianAPIKey != "" {
		providers = append(providers, news.NewGuardianProvider(cfg.GuardianAPIKey, logger))
	} else {
		logger.Info("guardian-provider-disabled", zap.String("reason", "GUARDIAN_API_KEY not set"))
	}

	return news.New(&news.Config{
		Providers:        providers,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerCooldown:  cfg.BreakerCooldown,
		Logger:           logger,
	})
}

func setupEngine(cfg *config.Config, logger *zap.Logger, aggregator *news.Aggregator, store storage.Storage) (*forecast.Engine, error) {
	generator, err := llm.NewClient(&llm.Config{
		APIKey:            cfg.AnthropicAPIKey,
		Model:             cfg.ClaudeModel,
		MaxTokens:         int64(cfg.ClaudeMaxTokens),
		RequestsPerMinute: cfg.AnthropicRPM,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}

	return forecast.New(&forecast.Config{
		News:        aggregator,
		Generator:   generator,
		Store:       store,
		MaxArticles: cfg.MaxArticles,
		Logger:      logger,
	})
}

func setupPriceFeed(cfg *config.Config, logger *zap.Logger) (*pricefeed.Feed, error) {
	if cfg.PricefeedWSURL == "" {
		logger.Info("price-feed-disabled", zap.String("reason", "POLYMARKET_WS_URL not set"))
		return nil, nil
	}

	return pricefeed.New(pricefeed.Config{
		URL:                   cfg.PricefeedWSURL,
		DialTimeout:           10 * time.Second,
		PingInterval:          10 * time.Second,
		ReconnectInitialDelay: time.Second,
		ReconnectMaxDelay:     time.Minute,
		ReconnectBackoffMult:  2.0,
		MessageBufferSize:     1000,
		Logger:                logger,
	})
}

func setupBot(
	cfg *config.Config,
	logger *zap.Logger,
	engine *forecast.Engine,
	source markets.Source,
	aggregator *news.Aggregator,
	tracker *calibration.Tracker,
	store storage.Storage,
) (*bot.Bot, error) {
	if cfg.TelegramToken == "" {
		logger.Warn("telegram-bot-disabled", zap.String("reason", "TELEGRAM_BOT_TOKEN not set"))
		return nil, nil
	}

	return bot.New(&bot.Config{
		Token:           cfg.TelegramToken,
		AuthorizedUsers: cfg.TelegramAuthorizedUsers,
		Engine:          engine,
		Markets:         source,
		News:            aggregator,
		Tracker:         tracker,
		Store:           store,
		Logger:          logger,
	})
}
