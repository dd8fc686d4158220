package news

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

const (
	googleNewsBaseURL  = "https://news.google.com/rss/search"
	googleNewsMaxItems = 10
)

// GoogleNewsProvider searches the Google News RSS endpoint. No API key
// is needed, which makes it the fallback provider when the keyed APIs
// are unconfigured.
type GoogleNewsProvider struct {
	baseURL string
	fetch   *fetcher
	parser  *gofeed.Parser
	logger  *zap.Logger
}

// NewGoogleNewsProvider creates a Google News RSS provider.
func NewGoogleNewsProvider(logger *zap.Logger) *GoogleNewsProvider {
	return &GoogleNewsProvider{
		baseURL: googleNewsBaseURL,
		fetch:   newFetcher(),
		parser:  gofeed.NewParser(),
		logger:  logger,
	}
}

// Name implements Provider.
func (p *GoogleNewsProvider) Name() string { return "google-news" }

// Search implements Provider.
func (p *GoogleNewsProvider) Search(ctx context.Context, query string) ([]Article, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")

	body, err := p.fetch.get(ctx, p.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch google news feed: %w", err)
	}

	feed, err := p.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse google news feed: %w", err)
	}

	articles := make([]Article, 0, googleNewsMaxItems)
	for _, item := range feed.Items {
		if len(articles) == googleNewsMaxItems {
			break
		}
		if item.Title == "" {
			continue
		}
		articles = append(articles, Article{
			Title:       item.Title,
			Source:      "Google News",
			URL:         item.Link,
			PublishedAt: item.PublishedParsed,
			Description: item.Description,
		})
	}

	return articles, nil
}
