package markets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/pkg/types"
)

const gammaMarketJSON = `[{
	"id": "1",
	"conditionId": "0xabc",
	"question": "Will Jerome Powell resign before 2026?",
	"slug": "powell-resign-2026",
	"description": "Resolves YES if...",
	"active": true,
	"closed": false,
	"endDate": "2026-12-31T00:00:00Z",
	"volume": "125000.5",
	"outcomes": "[\"Yes\", \"No\"]",
	"outcomePrices": "[\"0.25\", \"0.75\"]",
	"clobTokenIds": "[\"111\", \"222\"]"
}]`

func newTestClient(t *testing.T, gammaURL, clobURL string) *Client {
	t.Helper()

	c, err := NewClient(&Config{
		GammaURL: gammaURL,
		ClobURL:  clobURL,
		Logger:   zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return c
}

func TestGetMarket_BySlug(t *testing.T) {
	gamma := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("slug"); got != "powell-resign-2026" {
			t.Errorf("slug = %q", got)
		}
		_, _ = w.Write([]byte(gammaMarketJSON))
	}))
	defer gamma.Close()

	c := newTestClient(t, gamma.URL, "http://clob.invalid")

	market, err := c.GetMarket(context.Background(), "powell-resign-2026")
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if market == nil {
		t.Fatal("expected a market")
	}
	if market.ConditionID != "0xabc" || len(market.Tokens) != 2 {
		t.Errorf("market = %+v", market)
	}
	if market.Tokens[0].Price != 0.25 {
		t.Errorf("Yes price = %v", market.Tokens[0].Price)
	}
}

func TestGetMarket_ByConditionID(t *testing.T) {
	conditionID := "0x" + strings.Repeat("ab", 32)

	gamma := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("condition_ids"); got != conditionID {
			t.Errorf("condition_ids = %q", got)
		}
		_, _ = w.Write([]byte(gammaMarketJSON))
	}))
	defer gamma.Close()

	c := newTestClient(t, gamma.URL, "http://clob.invalid")

	market, err := c.GetMarket(context.Background(), conditionID)
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if market == nil {
		t.Fatal("expected a market")
	}
}

func TestGetMarket_EventMerging(t *testing.T) {
	eventJSON := `[{
		"id": "777",
		"title": "Who will win the 2026 election?",
		"slug": "election-2026",
		"description": "Event description.",
		"markets": [
			{
				"conditionId": "0x1",
				"question": "Will Alice Johnson win the 2026 election?",
				"volume": "1000",
				"outcomes": "[\"Yes\", \"No\"]",
				"outcomePrices": "[\"0.60\", \"0.40\"]",
				"clobTokenIds": "[\"a-yes\", \"a-no\"]"
			},
			{
				"conditionId": "0x2",
				"question": "Will Bob Smith win the 2026 election?",
				"volume": "500",
				"outcomes": "[\"Yes\", \"No\"]",
				"outcomePrices": "[\"0.35\", \"0.65\"]",
				"clobTokenIds": "[\"b-yes\", \"b-no\"]"
			}
		]
	}]`

	gamma := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/events":
			_, _ = w.Write([]byte(eventJSON))
		case "/markets":
			_, _ = w.Write([]byte(`[]`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer gamma.Close()

	c := newTestClient(t, gamma.URL, "http://clob.invalid")

	market, err := c.GetMarket(context.Background(), "https://polymarket.com/event/election-2026")
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if market == nil {
		t.Fatal("expected a merged market")
	}

	if market.Question != "Who will win the 2026 election?" {
		t.Errorf("question = %q", market.Question)
	}
	if len(market.Tokens) != 2 {
		t.Fatalf("tokens = %+v", market.Tokens)
	}
	if market.Tokens[0].Outcome != "Alice Johnson" || market.Tokens[0].Price != 0.60 {
		t.Errorf("first outcome = %+v", market.Tokens[0])
	}
	if market.Tokens[1].Outcome != "Bob Smith" || market.Tokens[1].Price != 0.35 {
		t.Errorf("second outcome = %+v", market.Tokens[1])
	}
	if market.Volume != 1500 {
		t.Errorf("volume = %v, want summed 1500", market.Volume)
	}
}

func TestGetMarket_NotFound(t *testing.T) {
	gamma := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer gamma.Close()

	c := newTestClient(t, gamma.URL, "http://clob.invalid")

	market, err := c.GetMarket(context.Background(), "no-such-market")
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if market != nil {
		t.Errorf("expected nil market, got %+v", market)
	}
}

func TestGetMarket_EnrichesPricesFromClob(t *testing.T) {
	unpriced := `[{
		"conditionId": "0xabc",
		"question": "q",
		"slug": "s",
		"outcomes": "[\"Yes\", \"No\"]",
		"clobTokenIds": "[\"111\", \"222\"]"
	}]`

	gamma := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(unpriced))
	}))
	defer gamma.Close()

	clob := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/price" {
			t.Errorf("path = %q", r.URL.Path)
		}
		switch r.URL.Query().Get("token_id") {
		case "111":
			_, _ = w.Write([]byte(`{"price": "0.42"}`))
		case "222":
			_, _ = w.Write([]byte(`{"price": "0.58"}`))
		}
	}))
	defer clob.Close()

	c := newTestClient(t, gamma.URL, clob.URL)

	market, err := c.GetMarket(context.Background(), "s")
	if err != nil {
		t.Fatalf("get market: %v", err)
	}
	if market.Tokens[0].Price != 0.42 || market.Tokens[1].Price != 0.58 {
		t.Errorf("tokens = %+v", market.Tokens)
	}
}

func TestListMarkets_CategoryFilter(t *testing.T) {
	list := `[
		{"conditionId": "0x1", "question": "Will Bitcoin hit 150k?", "slug": "btc",
		 "outcomes": "[\"Yes\", \"No\"]", "outcomePrices": "[\"0.2\", \"0.8\"]"},
		{"conditionId": "0x2", "question": "Will it rain tomorrow?", "slug": "rain",
		 "outcomes": "[\"Yes\", \"No\"]", "outcomePrices": "[\"0.5\", \"0.5\"]"}
	]`

	gamma := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tag"); got != "crypto" {
			t.Errorf("tag = %q", got)
		}
		_, _ = w.Write([]byte(list))
	}))
	defer gamma.Close()

	c := newTestClient(t, gamma.URL, "http://clob.invalid")

	markets, err := c.ListMarkets(context.Background(), "crypto", 10)
	if err != nil {
		t.Fatalf("list markets: %v", err)
	}
	if len(markets) != 1 || markets[0].ConditionID != "0x1" {
		t.Errorf("markets = %+v", markets)
	}
}

func TestListMarkets_OverfetchCap(t *testing.T) {
	gamma := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "100" {
			t.Errorf("limit = %q, want capped 100", got)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer gamma.Close()

	c := newTestClient(t, gamma.URL, "http://clob.invalid")

	if _, err := c.ListMarkets(context.Background(), "", 50); err != nil {
		t.Fatalf("list markets: %v", err)
	}
}

func TestMergeEventMarkets_DescriptionFallback(t *testing.T) {
	end := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)
	event := &types.Event{
		ID:    "9",
		Title: "t",
		Markets: []types.Market{
			{ConditionID: "0x1", Question: "Will A win?", Description: "first",
				EndDate: &end, Tokens: []types.Token{{TokenID: "y1", Outcome: "Yes", Price: 0.5}}},
			{ConditionID: "0x2", Question: "Will B win?", Description: "second",
				Tokens: []types.Token{{TokenID: "y2", Outcome: "Yes", Price: 0.3}}},
		},
	}

	merged := MergeEventMarkets(event)

	if !strings.Contains(merged.Description, "first") || !strings.Contains(merged.Description, "---") {
		t.Errorf("description = %q", merged.Description)
	}
	if merged.EndDate == nil || !merged.EndDate.Equal(end) {
		t.Errorf("end date = %v", merged.EndDate)
	}
}

func TestMatchesCategory_UnknownCategoryLiteralMatch(t *testing.T) {
	m := &types.Market{Question: "Will the weather improve?"}

	if !matchesCategory(m, "weather") {
		t.Error("unknown category should match as a literal keyword")
	}
	if matchesCategory(m, "crypto") {
		t.Error("crypto should not match a weather question")
	}
}
