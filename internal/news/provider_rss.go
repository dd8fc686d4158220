package news

import (
	"context"
	"strings"
	"sync"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

const rssMaxPerFeed = 5

type rssFeed struct {
	name string
	url  string
}

// Curated feeds per market category. The "general" feeds are consulted
// for every query; the others only when the query matches the category's
// keyword set.
//
//nolint:gochecknoglobals // fixed feed table
var rssFeeds = map[string][]rssFeed{
	"general": {
		{"Reuters", "https://feeds.reuters.com/reuters/topNews"},
		{"BBC News", "https://feeds.bbci.co.uk/news/rss.xml"},
		{"AP News", "https://rsshub.app/apnews/topics/apf-topnews"},
	},
	"politics": {
		{"Politico", "https://www.politico.com/rss/politicopicks.xml"},
		{"The Hill", "https://thehill.com/feed/"},
	},
	"crypto": {
		{"CoinDesk", "https://www.coindesk.com/arc/outboundfeeds/rss/"},
		{"Cointelegraph", "https://cointelegraph.com/rss"},
	},
	"science": {
		{"Science Daily", "https://www.sciencedaily.com/rss/all.xml"},
		{"Nature", "https://www.nature.com/nature.rss"},
	},
	"sports": {
		{"ESPN", "https://www.espn.com/espn/rss/news"},
	},
	"economy": {
		{"CNBC", "https://www.cnbc.com/id/100003114/device/rss/rss.html"},
		{"MarketWatch", "https://feeds.marketwatch.com/marketwatch/topstories/"},
	},
	"geopolitics": {
		{"Al Jazeera", "https://www.aljazeera.com/xml/rss/all.xml"},
		{"Kyiv Independent", "https://kyivindependent.com/feed/"},
		{"Defense One", "https://www.defenseone.com/rss/"},
		{"BBC World", "https://feeds.bbci.co.uk/news/world/rss.xml"},
		{"Reuters World", "https://feeds.reuters.com/Reuters/worldNews"},
	},
}

// Category match order, fixed so feed selection is deterministic.
//
//nolint:gochecknoglobals // fixed vocabulary
var rssCategories = []string{"politics", "crypto", "science", "sports", "economy", "geopolitics"}

// Keywords are single tokens: a category matches when the query's token
// set intersects its keyword set.
//
//nolint:gochecknoglobals // fixed vocabulary
var categoryKeywords = map[string][]string{
	"politics": {"election", "president", "congress", "senate", "vote", "governor",
		"democrat", "republican", "parliament", "minister", "impeach", "nominee",
		"government", "shutdown"},
	"crypto": {"bitcoin", "ethereum", "crypto", "btc", "eth", "solana", "token",
		"blockchain", "defi", "stablecoin"},
	"science": {"nasa", "spacex", "launch", "vaccine", "climate", "research",
		"quantum", "fusion", "telescope", "asteroid", "openai", "chip", "gpu"},
	"sports": {"nba", "nfl", "mlb", "nhl", "championship", "olympics", "playoff",
		"tournament"},
	"economy": {"fed", "inflation", "gdp", "recession", "unemployment", "tariff",
		"treasury", "stocks", "rates"},
	"geopolitics": {"war", "ukraine", "russia", "ceasefire", "nato", "military",
		"conflict", "invasion", "troops", "sanctions", "putin", "zelensky",
		"missile", "drone", "china", "taiwan", "iran", "israel", "gaza", "hamas",
		"nuclear", "treaty"},
}

// RSSProvider fans a query out to curated RSS feeds selected by the
// query's inferred categories and keeps items whose titles share a
// significant token with the query.
type RSSProvider struct {
	feeds  map[string][]rssFeed
	fetch  *fetcher
	parser *gofeed.Parser
	logger *zap.Logger
}

// NewRSSProvider creates a curated-RSS provider.
func NewRSSProvider(logger *zap.Logger) *RSSProvider {
	return &RSSProvider{
		feeds:  rssFeeds,
		fetch:  newFetcher(),
		parser: gofeed.NewParser(),
		logger: logger,
	}
}

// Name implements Provider.
func (p *RSSProvider) Name() string { return "rss" }

// Search implements Provider.
func (p *RSSProvider) Search(ctx context.Context, query string) ([]Article, error) {
	var feeds []rssFeed
	for _, category := range categoriesFor(query) {
		feeds = append(feeds, p.feeds[category]...)
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		articles []Article
	)
	for _, feed := range feeds {
		wg.Add(1)
		go func(feed rssFeed) {
			defer wg.Done()

			items, err := p.fetchFeed(ctx, feed, query)
			if err != nil {
				p.logger.Debug("rss-feed-fetch-failed",
					zap.String("feed", feed.name),
					zap.Error(err))
				return
			}

			mu.Lock()
			articles = append(articles, items...)
			mu.Unlock()
		}(feed)
	}
	wg.Wait()

	return articles, nil
}

func (p *RSSProvider) fetchFeed(ctx context.Context, feed rssFeed, query string) ([]Article, error) {
	body, err := p.fetch.get(ctx, feed.url)
	if err != nil {
		return nil, err
	}

	parsed, err := p.parser.ParseString(string(body))
	if err != nil {
		return nil, err
	}

	tokens := significantTokens(query)

	var articles []Article
	for _, item := range parsed.Items {
		if len(articles) == rssMaxPerFeed {
			break
		}
		if item.Title == "" || !titleMatches(item.Title, tokens) {
			continue
		}
		articles = append(articles, Article{
			Title:       item.Title,
			Source:      feed.name,
			URL:         item.Link,
			PublishedAt: item.PublishedParsed,
			Description: item.Description,
		})
	}

	return articles, nil
}

// categoriesFor infers feed categories from the query's token set. The
// general feeds are always included. Whole-token matching, not
// substring: "whether" must not hit "eth".
func categoriesFor(query string) []string {
	tokens := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(query)) {
		tokens[word] = struct{}{}
	}

	categories := []string{"general"}
	for _, category := range rssCategories {
		for _, kw := range categoryKeywords[category] {
			if _, ok := tokens[kw]; ok {
				categories = append(categories, category)
				break
			}
		}
	}
	return categories
}

func significantTokens(query string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) > 3 {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

func titleMatches(title string, tokens []string) bool {
	lower := strings.ToLower(title)
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}
