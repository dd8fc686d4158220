package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/internal/calibration"
	"github.com/polyforecast/polyforecast/internal/forecast"
	"github.com/polyforecast/polyforecast/internal/markets"
	"github.com/polyforecast/polyforecast/pkg/types"
)

// RequestedBy tags backtest forecasts in storage so they can be reported
// separately from user-requested ones.
const RequestedBy = "backtest"

// Analyzer runs the forecasting pipeline for one market.
type Analyzer interface {
	AnalyzeMarket(ctx context.Context, market *types.Market, requestedBy string) (*forecast.Result, error)
}

// Runner replays the pipeline over already-settled markets: forecast each
// one as if it were still open, resolve against the known winner, and
// report calibration over the run.
type Runner struct {
	markets markets.Source
	engine  Analyzer
	tracker *calibration.Tracker
	logger  *zap.Logger
}

// Config holds backtest configuration.
type Config struct {
	Markets markets.Source
	Engine  Analyzer
	Tracker *calibration.Tracker
	Logger  *zap.Logger
}

// Summary is the outcome of one backtest run.
type Summary struct {
	MarketsFetched int
	MarketsTested  int
	MarketsSkipped int
	MarketsFailed  int
	Resolved       int
	Duration       time.Duration
	Report         *calibration.Report
}

// New creates a backtest runner.
func New(cfg *Config) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Markets == nil {
		return nil, fmt.Errorf("markets source cannot be nil")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg.Tracker == nil {
		return nil, fmt.Errorf("tracker cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Runner{
		markets: cfg.Markets,
		engine:  cfg.Engine,
		tracker: cfg.Tracker,
		logger:  cfg.Logger,
	}, nil
}

// Run backtests up to limit settled markets. Markets without a clear
// winning outcome are skipped; a single failing market never aborts the
// run.
func (r *Runner) Run(ctx context.Context, limit int) (*Summary, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	start := time.Now()
	RunsTotal.Inc()

	settled, err := r.markets.ListClosedMarkets(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list closed markets: %w", err)
	}

	summary := &Summary{MarketsFetched: len(settled)}

	for i := range settled {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		market := &settled[i]

		winner, ok := market.WinningOutcome()
		if !ok {
			summary.MarketsSkipped++
			r.logger.Debug("backtest-market-skipped",
				zap.String("condition-id", market.ConditionID),
				zap.String("reason", "no winning outcome"))
			continue
		}

		n, err := r.testMarket(ctx, market, winner)
		if err != nil {
			summary.MarketsFailed++
			MarketFailuresTotal.Inc()
			r.logger.Warn("backtest-market-failed",
				zap.String("condition-id", market.ConditionID),
				zap.Error(err))
			continue
		}

		summary.MarketsTested++
		summary.Resolved += n
	}

	report, err := r.tracker.Report(ctx, RequestedBy)
	if err != nil {
		return nil, fmt.Errorf("build calibration report: %w", err)
	}
	summary.Report = report
	summary.Duration = time.Since(start)

	r.logger.Info("backtest-complete",
		zap.Int("markets-fetched", summary.MarketsFetched),
		zap.Int("markets-tested", summary.MarketsTested),
		zap.Int("markets-skipped", summary.MarketsSkipped),
		zap.Int("markets-failed", summary.MarketsFailed),
		zap.Int("predictions-resolved", summary.Resolved),
		zap.Duration("duration", summary.Duration))

	return summary, nil
}

func (r *Runner) testMarket(ctx context.Context, market *types.Market, winner string) (int, error) {
	_, err := r.engine.AnalyzeMarket(ctx, market, RequestedBy)
	if err != nil {
		return 0, fmt.Errorf("analyze market: %w", err)
	}

	n, err := r.tracker.Resolve(ctx, market.ConditionID, winner)
	if err != nil {
		return 0, fmt.Errorf("resolve predictions: %w", err)
	}

	return n, nil
}
