package resolver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/internal/calibration"
	"github.com/polyforecast/polyforecast/internal/markets"
)

// Store is the slice of the storage layer the resolver needs.
type Store interface {
	UnresolvedMarketIDs(ctx context.Context) ([]string, error)
}

// Resolver periodically sweeps unresolved predictions, checks whether
// their markets have settled, and feeds settled outcomes into the
// calibration tracker. One failing market never aborts a sweep.
type Resolver struct {
	store    Store
	markets  markets.Source
	tracker  *calibration.Tracker
	interval time.Duration
	logger   *zap.Logger
}

// Config holds resolver configuration.
type Config struct {
	Store    Store
	Markets  markets.Source
	Tracker  *calibration.Tracker
	Interval time.Duration
	Logger   *zap.Logger
}

// New creates a resolver.
func New(cfg *Config) (*Resolver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.Markets == nil {
		return nil, fmt.Errorf("markets source cannot be nil")
	}
	if cfg.Tracker == nil {
		return nil, fmt.Errorf("tracker cannot be nil")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Resolver{
		store:    cfg.Store,
		markets:  cfg.Markets,
		tracker:  cfg.Tracker,
		interval: cfg.Interval,
		logger:   cfg.Logger,
	}, nil
}

// Run sweeps immediately and then on every tick until the context is
// canceled.
func (r *Resolver) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep checks every market with unresolved predictions once.
func (r *Resolver) Sweep(ctx context.Context) {
	start := time.Now()
	SweepsTotal.Inc()

	ids, err := r.store.UnresolvedMarketIDs(ctx)
	if err != nil {
		r.logger.Error("unresolved-markets-load-failed", zap.Error(err))
		return
	}

	var resolved int
	for _, id := range ids {
		n, err := r.resolveMarket(ctx, id)
		if err != nil {
			r.logger.Warn("market-resolution-check-failed",
				zap.String("condition-id", id),
				zap.Error(err))
			continue
		}
		resolved += n
	}

	r.logger.Info("resolution-sweep-complete",
		zap.Int("markets-checked", len(ids)),
		zap.Int("predictions-resolved", resolved),
		zap.Duration("duration", time.Since(start)))
}

func (r *Resolver) resolveMarket(ctx context.Context, conditionID string) (int, error) {
	market, err := r.markets.GetMarket(ctx, conditionID)
	if err != nil {
		return 0, fmt.Errorf("fetch market: %w", err)
	}
	if market == nil {
		return 0, nil
	}

	winner, settled := market.WinningOutcome()
	if !settled {
		return 0, nil
	}

	n, err := r.tracker.Resolve(ctx, conditionID, winner)
	if err != nil {
		return 0, fmt.Errorf("resolve predictions: %w", err)
	}
	return n, nil
}
