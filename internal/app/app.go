package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/internal/bot"
	"github.com/polyforecast/polyforecast/internal/calibration"
	"github.com/polyforecast/polyforecast/internal/forecast"
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

// App is the main application orchestrator. It wires the market client,
// news aggregation, forecasting engine, calibration tracking, the
// resolution sweeper, the live price feed and the Telegram bot.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	marketCache   cache.Cache
	marketSource  markets.Source
	cachedSource  *markets.CachedSource
	store         storage.Storage
	engine        *forecast.Engine
	aggregator    *news.Aggregator
	tracker       *calibration.Tracker
	resolver      *resolver.Resolver
	priceFeed     *pricefeed.Feed
	bot           *bot.Bot
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}
