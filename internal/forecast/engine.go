package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/internal/llm"
	"github.com/polyforecast/polyforecast/internal/news"
	"github.com/polyforecast/polyforecast/pkg/types"
)

// Fallback inputs for the decision layer. An outcome the extractor
// missed gets a uniform prior over the market's outcomes; a token with
// no observed price is treated as a coin flip.
const defaultMarketProbability = 0.5

// NewsFetcher supplies ranked articles for a market question.
type NewsFetcher interface {
	FetchForQuestion(ctx context.Context, question string, maxArticles int) []news.Article
}

// Store persists completed forecasts. The engine treats persistence as
// best-effort: a storage failure is logged but never fails an analysis.
type Store interface {
	SaveForecast(ctx context.Context, result *Result, requestedBy string) error
}

// Engine runs the full analysis pipeline for one market: fetch news,
// prompt the model, extract probabilities, score every outcome against
// the market price, and optionally persist the result.
type Engine struct {
	news        NewsFetcher
	generator   llm.Generator
	extractor   Extractor
	store       Store
	maxArticles int
	logger      *zap.Logger
	now         func() time.Time
}

// Config holds engine configuration. Store is optional.
type Config struct {
	News        NewsFetcher
	Generator   llm.Generator
	Store       Store
	MaxArticles int
	Logger      *zap.Logger
}

// New creates a forecasting engine.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.News == nil {
		return nil, fmt.Errorf("news fetcher cannot be nil")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator cannot be nil")
	}
	if cfg.MaxArticles <= 0 {
		return nil, fmt.Errorf("max articles must be positive")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Engine{
		news:        cfg.News,
		generator:   cfg.Generator,
		extractor:   RegexExtractor{},
		store:       cfg.Store,
		maxArticles: cfg.MaxArticles,
		logger:      cfg.Logger,
		now:         time.Now,
	}, nil
}

// AnalyzeMarket runs the pipeline for one market. requestedBy tags the
// stored forecast with who asked for it.
func (e *Engine) AnalyzeMarket(ctx context.Context, market *types.Market, requestedBy string) (*Result, error) {
	if len(market.Tokens) == 0 {
		return nil, fmt.Errorf("market %s has no outcomes", market.ConditionID)
	}

	start := time.Now()
	AnalysesTotal.Inc()

	articles := e.news.FetchForQuestion(ctx, market.Question, e.maxArticles)

	outcomes := market.OutcomeLabels()
	prompt := BuildUserPrompt(PromptInput{
		Question:    market.Question,
		Description: market.Description,
		Outcomes:    outcomes,
		EndDate:     market.EndDate,
		Today:       e.now().UTC(),
		Articles:    articles,
	})

	reasoning, err := e.generator.Generate(ctx, SystemPrompt(), prompt)
	if err != nil {
		AnalysisFailuresTotal.Inc()
		return nil, fmt.Errorf("generate forecast: %w", err)
	}

	probs := e.extractor.Extract(reasoning, outcomes)
	if len(probs) < len(outcomes) {
		ExtractionMissesTotal.Add(float64(len(outcomes) - len(probs)))
		e.logger.Warn("probability-extraction-incomplete",
			zap.String("condition-id", market.ConditionID),
			zap.Int("extracted", len(probs)),
			zap.Int("outcomes", len(outcomes)))
	}

	var probTotal float64
	for _, v := range probs {
		probTotal += v
	}
	if len(probs) == len(outcomes) && (probTotal <= 0.9 || probTotal >= 1.1) {
		// The extractor only renormalizes near-misses; a sum this far
		// off is used as-is and flagged as a low-quality extraction.
		ExtractionBadSumsTotal.Inc()
		e.logger.Warn("probability-sum-out-of-range",
			zap.String("condition-id", market.ConditionID),
			zap.Float64("total", probTotal))
	}

	uniform := 1.0 / float64(len(outcomes))
	forecasts := make([]OutcomeForecast, 0, len(market.Tokens))
	for _, token := range market.Tokens {
		botProb, ok := probs[token.Outcome]
		if !ok {
			botProb = uniform
		}
		marketProb := token.Price
		if marketProb <= 0 {
			marketProb = defaultMarketProbability
		}
		forecasts = append(forecasts, EvaluateOutcome(token.Outcome, botProb, marketProb))
	}

	result := &Result{
		ID:             uuid.New().String(),
		ConditionID:    market.ConditionID,
		Question:       market.Question,
		Slug:           market.Slug,
		Reasoning:      reasoning,
		Outcomes:       forecasts,
		PromptVersion:  PromptVersion,
		ArticleCount:   len(articles),
		ExtractedCount: len(probs),
	}

	if e.store != nil {
		if err := e.store.SaveForecast(ctx, result, requestedBy); err != nil {
			e.logger.Error("forecast-persist-failed",
				zap.String("condition-id", market.ConditionID),
				zap.Error(err))
		}
	}

	AnalysisDuration.Observe(time.Since(start).Seconds())
	e.logger.Info("market-analyzed",
		zap.String("forecast-id", result.ID),
		zap.String("condition-id", market.ConditionID),
		zap.String("question", market.Question),
		zap.Int("articles", len(articles)),
		zap.Int("outcomes", len(outcomes)),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}
