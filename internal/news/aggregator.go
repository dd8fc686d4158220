package news

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/internal/circuitbreaker"
)

// Provider is a single news source. Implementations must be safe for
// concurrent use; a provider without the credentials it needs should
// return (nil, nil) rather than an error.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]Article, error)
}

// Aggregator fans a query out to all providers concurrently, merges the
// results with first-wins URL dedup in provider order, and ranks by
// recency. A failing provider contributes nothing; it never fails the
// aggregation.
type Aggregator struct {
	providers []Provider
	breakers  []*circuitbreaker.Breaker
	logger    *zap.Logger
}

// Config holds aggregator configuration.
type Config struct {
	Providers        []Provider
	BreakerThreshold int
	BreakerCooldown  time.Duration
	Logger           *zap.Logger
}

// New creates an aggregator with one circuit breaker per provider.
func New(cfg *Config) (*Aggregator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	breakers := make([]*circuitbreaker.Breaker, len(cfg.Providers))
	for i, p := range cfg.Providers {
		b, err := circuitbreaker.New(&circuitbreaker.Config{
			Name:      p.Name(),
			Threshold: cfg.BreakerThreshold,
			Cooldown:  cfg.BreakerCooldown,
			Logger:    cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create breaker for %s: %w", p.Name(), err)
		}
		breakers[i] = b
	}

	return &Aggregator{
		providers: cfg.Providers,
		breakers:  breakers,
		logger:    cfg.Logger,
	}, nil
}

// FetchForQuestion derives search queries from a market question and
// aggregates articles for the primary query across all providers,
// returning at most maxArticles ranked newest first. It never returns
// an error: with every provider down the result is simply empty.
func (a *Aggregator) FetchForQuestion(ctx context.Context, question string, maxArticles int) []Article {
	query := question
	if queries := DeriveQueries(question); len(queries) > 0 {
		query = queries[0]
	}
	return a.Fetch(ctx, query, maxArticles)
}

// Fetch aggregates articles for a single query across all providers.
func (a *Aggregator) Fetch(ctx context.Context, query string, maxArticles int) []Article {
	start := time.Now()

	lists := a.fanOut(ctx, query)
	merged := Merge(lists)
	SortByRecency(merged)

	if maxArticles > 0 && len(merged) > maxArticles {
		merged = merged[:maxArticles]
	}

	ArticlesReturned.Observe(float64(len(merged)))
	a.logger.Info("news-aggregated",
		zap.String("query", query),
		zap.Int("articles", len(merged)),
		zap.Duration("duration", time.Since(start)))

	return merged
}

// fanOut runs all providers concurrently and returns their article
// lists indexed by provider order, so the merge is deterministic
// regardless of completion order.
func (a *Aggregator) fanOut(ctx context.Context, query string) [][]Article {
	lists := make([][]Article, len(a.providers))

	var wg sync.WaitGroup
	for i, p := range a.providers {
		if !a.breakers[i].Allow() {
			a.logger.Debug("provider-skipped-breaker-open",
				zap.String("provider", p.Name()))
			continue
		}

		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()

			timer := time.Now()
			ProviderRequestsTotal.WithLabelValues(p.Name()).Inc()

			articles, err := p.Search(ctx, query)
			ProviderSearchDuration.WithLabelValues(p.Name()).
				Observe(time.Since(timer).Seconds())
			if err != nil {
				ProviderFailuresTotal.WithLabelValues(p.Name()).Inc()
				a.breakers[i].RecordFailure()
				a.logger.Warn("provider-search-failed",
					zap.String("provider", p.Name()),
					zap.String("query", query),
					zap.Error(err))
				return
			}

			a.breakers[i].RecordSuccess()
			lists[i] = articles
		}(i, p)
	}
	wg.Wait()

	return lists
}

// Merge flattens provider article lists in order, dropping any article
// whose URL was already seen in an earlier list (first occurrence wins,
// including its metadata). Articles without a URL are always kept.
func Merge(lists [][]Article) []Article {
	seen := make(map[string]struct{})
	var merged []Article
	for _, list := range lists {
		for _, a := range list {
			if a.URL != "" {
				if _, dup := seen[a.URL]; dup {
					continue
				}
				seen[a.URL] = struct{}{}
			}
			merged = append(merged, a)
		}
	}
	return merged
}

// SortByRecency orders articles newest first; articles without a
// publication time sort last, keeping their relative order.
func SortByRecency(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		pi, pj := articles[i].PublishedAt, articles[j].PublishedAt
		switch {
		case pi == nil:
			return false
		case pj == nil:
			return true
		default:
			return pi.After(*pj)
		}
	})
}
