package markets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/pkg/cache"
	"github.com/polyforecast/polyforecast/pkg/types"
)

// CachedSource wraps a Source with a read-through cache keyed by the
// raw reference string. Only single-market lookups are cached; lists
// change with every trade and are always fetched fresh.
type CachedSource struct {
	source Source
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// CacheConfig holds cached source configuration.
type CacheConfig struct {
	Source Source
	Cache  cache.Cache
	TTL    time.Duration
	Logger *zap.Logger
}

// NewCachedSource creates a caching wrapper around a market source.
func NewCachedSource(cfg *CacheConfig) (*CachedSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache cannot be nil")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("ttl must be positive")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &CachedSource{
		source: cfg.Source,
		cache:  cfg.Cache,
		ttl:    cfg.TTL,
		logger: cfg.Logger,
	}, nil
}

// GetMarket implements Source.
func (s *CachedSource) GetMarket(ctx context.Context, ref string) (*types.Market, error) {
	if v, ok := s.cache.Get(ref); ok {
		if market, ok := v.(*types.Market); ok {
			CacheHitsTotal.Inc()
			return market, nil
		}
	}
	CacheMissesTotal.Inc()

	market, err := s.source.GetMarket(ctx, ref)
	if err != nil {
		return nil, err
	}
	if market != nil {
		s.cache.Set(ref, market, s.ttl)
	}
	return market, nil
}

// ListMarkets implements Source.
func (s *CachedSource) ListMarkets(ctx context.Context, category string, limit int) ([]types.Market, error) {
	return s.source.ListMarkets(ctx, category, limit)
}

// ListClosedMarkets implements Source.
func (s *CachedSource) ListClosedMarkets(ctx context.Context, limit int) ([]types.Market, error) {
	return s.source.ListClosedMarkets(ctx, limit)
}

// Invalidate drops one reference from the cache.
func (s *CachedSource) Invalidate(ref string) {
	s.cache.Delete(ref)
}
