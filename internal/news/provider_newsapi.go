package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// NewsAPIProvider searches the NewsAPI /v2/everything endpoint over a
// 7-day window. Without an API key it degrades to a no-op provider that
// returns no articles and no error.
type NewsAPIProvider struct {
	apiKey  string
	baseURL string
	limiter *rate.Limiter
	fetch   *fetcher
	logger  *zap.Logger
}

// NewNewsAPIProvider creates a NewsAPI provider rate-limited to rpm
// requests per minute.
func NewNewsAPIProvider(apiKey string, rpm int, logger *zap.Logger) *NewsAPIProvider {
	return &NewsAPIProvider{
		apiKey:  apiKey,
		baseURL: newsAPIBaseURL,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		fetch:   newFetcher(),
		logger:  logger,
	}
}

// Name implements Provider.
func (p *NewsAPIProvider) Name() string { return "newsapi" }

// Search implements Provider.
func (p *NewsAPIProvider) Search(ctx context.Context, query string) ([]Article, error) {
	if p.apiKey == "" {
		return nil, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("from", time.Now().AddDate(0, 0, -7).Format("2006-01-02"))
	params.Set("sortBy", "relevancy")
	params.Set("language", "en")
	params.Set("pageSize", "10")
	params.Set("apiKey", p.apiKey)

	body, err := p.fetch.get(ctx, p.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch newsapi results: %w", err)
	}

	var payload struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Articles []struct {
			Title  string `json:"title"`
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Description string `json:"description"`
		} `json:"articles"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode newsapi response: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi error response: %s", payload.Message)
	}

	articles := make([]Article, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.Title == "" {
			continue
		}
		art := Article{
			Title:       a.Title,
			Source:      a.Source.Name,
			URL:         a.URL,
			Description: a.Description,
		}
		if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			art.PublishedAt = &ts
		}
		articles = append(articles, art)
	}

	return articles, nil
}
