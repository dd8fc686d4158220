package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const guardianBaseURL = "https://content.guardianapis.com/search"

// GuardianProvider searches the Guardian Open Platform content API.
// Without an API key it returns no articles and no error.
type GuardianProvider struct {
	apiKey  string
	baseURL string
	fetch   *fetcher
	logger  *zap.Logger
}

// NewGuardianProvider creates a Guardian content API provider.
func NewGuardianProvider(apiKey string, logger *zap.Logger) *GuardianProvider {
	return &GuardianProvider{
		apiKey:  apiKey,
		baseURL: guardianBaseURL,
		fetch:   newFetcher(),
		logger:  logger,
	}
}

// Name implements Provider.
func (p *GuardianProvider) Name() string { return "guardian" }

// Search implements Provider.
func (p *GuardianProvider) Search(ctx context.Context, query string) ([]Article, error) {
	if p.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("order-by", "relevance")
	params.Set("page-size", "10")
	params.Set("show-fields", "trailText")
	params.Set("api-key", p.apiKey)

	body, err := p.fetch.get(ctx, p.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch guardian results: %w", err)
	}

	var payload struct {
		Response struct {
			Status  string `json:"status"`
			Results []struct {
				WebTitle           string `json:"webTitle"`
				WebURL             string `json:"webUrl"`
				WebPublicationDate string `json:"webPublicationDate"`
				Fields             struct {
					TrailText string `json:"trailText"`
				} `json:"fields"`
			} `json:"results"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode guardian response: %w", err)
	}
	if payload.Response.Status != "ok" {
		return nil, fmt.Errorf("guardian error response: status %s", payload.Response.Status)
	}

	articles := make([]Article, 0, len(payload.Response.Results))
	for _, r := range payload.Response.Results {
		if r.WebTitle == "" {
			continue
		}
		art := Article{
			Title:       r.WebTitle,
			Source:      "The Guardian",
			URL:         r.WebURL,
			Description: r.Fields.TrailText,
		}
		if ts, err := time.Parse(time.RFC3339, r.WebPublicationDate); err == nil {
			art.PublishedAt = &ts
		}
		articles = append(articles, art)
	}

	return articles, nil
}
