package markets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/pkg/types"
)

const (
	clientTimeout    = 30 * time.Second
	maxListLimit     = 100
	listOverfetch    = 3
	maxMergedDescLen = 3000
)

// Fuzzy category matching keywords for list filtering. Gamma's tag
// filter alone misses many markets, so listed markets are additionally
// matched against these in question/description/category text.
//
//nolint:gochecknoglobals // fixed vocabulary
var categoryKeywords = map[string][]string{
	"politics":      {"politics", "election", "government", "president", "congress"},
	"crypto":        {"crypto", "bitcoin", "ethereum", "defi", "blockchain", "token"},
	"science":       {"science", "tech", "ai", "space", "climate", "health"},
	"sports":        {"sports", "nfl", "nba", "soccer", "football", "baseball"},
	"finance":       {"finance", "economy", "stock", "fed", "inflation", "gdp"},
	"entertainment": {"entertainment", "oscars", "grammy", "movie", "music"},
}

// Source resolves and lists Polymarket markets.
type Source interface {
	// GetMarket resolves a URL, slug, or condition ID to one market.
	// Multi-outcome events are merged into a single virtual market.
	GetMarket(ctx context.Context, ref string) (*types.Market, error)
	// ListMarkets returns active markets ordered by volume, optionally
	// filtered by category.
	ListMarkets(ctx context.Context, category string, limit int) ([]types.Market, error)
	// ListClosedMarkets returns settled markets ordered by volume.
	ListClosedMarkets(ctx context.Context, limit int) ([]types.Market, error)
}

// Client talks to the Gamma API for market metadata and the CLOB API
// for prices Gamma is missing.
type Client struct {
	gammaURL string
	clobURL  string
	http     *http.Client
	logger   *zap.Logger
}

// Config holds markets client configuration.
type Config struct {
	GammaURL string
	ClobURL  string
	Logger   *zap.Logger
}

// NewClient creates a Polymarket markets client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.GammaURL == "" {
		return nil, fmt.Errorf("gamma url cannot be empty")
	}
	if cfg.ClobURL == "" {
		return nil, fmt.Errorf("clob url cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Client{
		gammaURL: strings.TrimSuffix(cfg.GammaURL, "/"),
		clobURL:  strings.TrimSuffix(cfg.ClobURL, "/"),
		http:     &http.Client{Timeout: clientTimeout},
		logger:   cfg.Logger,
	}, nil
}

// GetMarket implements Source.
func (c *Client) GetMarket(ctx context.Context, ref string) (*types.Market, error) {
	parsed := ParseRef(ref)

	switch {
	case parsed.ConditionID != "":
		return c.marketByQuery(ctx, url.Values{"condition_ids": {parsed.ConditionID}})
	case parsed.EventSlug != "":
		// A URL may name a specific sub-market; prefer it.
		if parsed.Slug != "" {
			if m, err := c.marketByQuery(ctx, url.Values{"slug": {parsed.Slug}}); err == nil && m != nil {
				return m, nil
			}
		}
		return c.marketByEventSlug(ctx, parsed.EventSlug)
	case parsed.Slug != "":
		m, err := c.marketByQuery(ctx, url.Values{"slug": {parsed.Slug}})
		if err != nil {
			return nil, err
		}
		if m == nil {
			// Bare slugs are often event slugs.
			return c.marketByEventSlug(ctx, parsed.Slug)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unparseable market reference %q", ref)
	}
}

// ListMarkets implements Source.
func (c *Client) ListMarkets(ctx context.Context, category string, limit int) ([]types.Market, error) {
	params := url.Values{
		"active":    {"true"},
		"closed":    {"false"},
		"order":     {"volume"},
		"ascending": {"false"},
	}
	// Overfetch so the keyword filter still fills the requested page.
	fetch := limit * listOverfetch
	if fetch > maxListLimit {
		fetch = maxListLimit
	}
	params.Set("limit", strconv.Itoa(fetch))
	if category != "" {
		params.Set("tag", category)
	}

	raw, err := c.gammaGet(ctx, "/markets", params)
	if err != nil {
		return nil, err
	}

	var all []types.Market
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("decode markets list: %w", err)
	}

	markets := make([]types.Market, 0, limit)
	for i := range all {
		if category != "" && !matchesCategory(&all[i], category) {
			continue
		}
		markets = append(markets, all[i])
		if len(markets) == limit {
			break
		}
	}

	for i := range markets {
		c.enrichPrices(ctx, &markets[i])
	}

	return markets, nil
}

// ListClosedMarkets implements Source.
func (c *Client) ListClosedMarkets(ctx context.Context, limit int) ([]types.Market, error) {
	params := url.Values{
		"closed":    {"true"},
		"order":     {"volume"},
		"ascending": {"false"},
		"limit":     {strconv.Itoa(limit)},
	}

	raw, err := c.gammaGet(ctx, "/markets", params)
	if err != nil {
		return nil, err
	}

	var markets []types.Market
	if err := json.Unmarshal(raw, &markets); err != nil {
		return nil, fmt.Errorf("decode markets list: %w", err)
	}
	return markets, nil
}

func (c *Client) marketByQuery(ctx context.Context, params url.Values) (*types.Market, error) {
	raw, err := c.gammaGet(ctx, "/markets", params)
	if err != nil {
		return nil, err
	}

	var markets []types.Market
	if err := json.Unmarshal(raw, &markets); err != nil {
		return nil, fmt.Errorf("decode market: %w", err)
	}
	if len(markets) == 0 {
		return nil, nil
	}

	market := &markets[0]
	c.enrichPrices(ctx, market)
	return market, nil
}

func (c *Client) marketByEventSlug(ctx context.Context, slug string) (*types.Market, error) {
	raw, err := c.gammaGet(ctx, "/events", url.Values{"slug": {slug}})
	if err != nil {
		return nil, err
	}

	var events []types.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if len(events) == 0 || len(events[0].Markets) == 0 {
		return nil, nil
	}

	event := &events[0]
	for i := range event.Markets {
		c.enrichPrices(ctx, &event.Markets[i])
	}

	if len(event.Markets) == 1 {
		return &event.Markets[0], nil
	}
	return MergeEventMarkets(event), nil
}

// MergeEventMarkets folds an event's binary sub-markets into one
// virtual multi-outcome market. Each sub-market's Yes price becomes the
// implied probability of that outcome.
func MergeEventMarkets(event *types.Event) *types.Market {
	merged := &types.Market{
		ConditionID: event.ID,
		Question:    event.Title,
		Slug:        event.Slug,
		Description: event.Description,
		Category:    event.Category,
		Active:      true,
	}
	if merged.ConditionID == "" {
		merged.ConditionID = event.Markets[0].ConditionID
	}
	if merged.Question == "" {
		merged.Question = event.Markets[0].Question
	}

	var descParts []string
	for i := range event.Markets {
		m := &event.Markets[i]

		var yesTokenID string
		var yesPrice float64
		for _, tok := range m.Tokens {
			if strings.EqualFold(tok.Outcome, "yes") {
				yesTokenID = tok.TokenID
				yesPrice = tok.Price
				break
			}
		}

		merged.Tokens = append(merged.Tokens, types.Token{
			TokenID: yesTokenID,
			Outcome: ExtractOutcomeName(m.Question),
			Price:   yesPrice,
		})
		merged.Volume += m.Volume
		merged.Liquidity += m.Liquidity
		if m.EndDate != nil {
			merged.EndDate = m.EndDate
		}
		if m.Description != "" && len(descParts) < 3 {
			descParts = append(descParts, m.Description)
		}
	}

	if merged.Description == "" {
		merged.Description = strings.Join(descParts, "\n---\n")
	}
	if len(merged.Description) > maxMergedDescLen {
		merged.Description = merged.Description[:maxMergedDescLen]
	}

	return merged
}

// enrichPrices fills token prices from the CLOB for tokens Gamma left
// unpriced. Failures are logged and leave the token at price 0.
func (c *Client) enrichPrices(ctx context.Context, market *types.Market) {
	for i := range market.Tokens {
		tok := &market.Tokens[i]
		if tok.Price > 0 || tok.TokenID == "" {
			continue
		}
		price, err := c.clobPrice(ctx, tok.TokenID)
		if err != nil {
			c.logger.Debug("clob-price-fetch-failed",
				zap.String("token-id", tok.TokenID),
				zap.Error(err))
			continue
		}
		tok.Price = price
	}
}

func (c *Client) clobPrice(ctx context.Context, tokenID string) (float64, error) {
	params := url.Values{"token_id": {tokenID}, "side": {"buy"}}
	raw, err := c.getJSON(ctx, c.clobURL+"/price?"+params.Encode())
	if err != nil {
		return 0, err
	}

	var price types.ClobPrice
	if err := json.Unmarshal(raw, &price); err != nil {
		return 0, fmt.Errorf("decode price: %w", err)
	}
	return strconv.ParseFloat(price.Price, 64)
}

func (c *Client) gammaGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.getJSON(ctx, c.gammaURL+path+"?"+params.Encode())
}

func (c *Client) getJSON(ctx context.Context, fullURL string) ([]byte, error) {
	var body []byte

	op := func() error {
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		RequestDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			body = data
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		RequestFailuresTotal.Inc()
		return nil, err
	}

	RequestsTotal.Inc()
	return body, nil
}

func matchesCategory(market *types.Market, category string) bool {
	category = strings.ToLower(category)
	keywords, ok := categoryKeywords[category]
	if !ok {
		keywords = []string{category}
	}
	searchable := strings.ToLower(market.Question + " " + market.Description + " " + market.Category)
	for _, kw := range keywords {
		if strings.Contains(searchable, kw) {
			return true
		}
	}
	return false
}
