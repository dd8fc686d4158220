package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/polyforecast/polyforecast/internal/calibration"
	"github.com/polyforecast/polyforecast/internal/forecast"
	"github.com/polyforecast/polyforecast/internal/news"
	"github.com/polyforecast/polyforecast/internal/storage"
	"github.com/polyforecast/polyforecast/internal/testutil"
	"github.com/polyforecast/polyforecast/pkg/types"
)

type fakeAnalyzer struct {
	result      *forecast.Result
	err         error
	requestedBy string
}

func (f *fakeAnalyzer) AnalyzeMarket(_ context.Context, _ *types.Market, requestedBy string) (*forecast.Result, error) {
	f.requestedBy = requestedBy
	return f.result, f.err
}

type fakeMarkets struct {
	market   *types.Market
	list     []types.Market
	err      error
	category string
}

func (f *fakeMarkets) GetMarket(_ context.Context, _ string) (*types.Market, error) {
	return f.market, f.err
}

func (f *fakeMarkets) ListMarkets(_ context.Context, category string, _ int) ([]types.Market, error) {
	f.category = category
	return f.list, f.err
}

func (f *fakeMarkets) ListClosedMarkets(_ context.Context, _ int) ([]types.Market, error) {
	return nil, nil
}

type fakeNewsSearcher struct {
	articles []news.Article
}

func (f *fakeNewsSearcher) Fetch(_ context.Context, _ string, _ int) []news.Article {
	return f.articles
}

type fakeStorage struct {
	categories map[int64][]string
	saved      map[int64][]string
	recent     []storage.PredictionRow
	resolved   []storage.PredictionRow
}

func (f *fakeStorage) SaveForecast(_ context.Context, _ *forecast.Result, _ string) error {
	return nil
}

func (f *fakeStorage) UnresolvedMarketIDs(_ context.Context) ([]string, error) { return nil, nil }

func (f *fakeStorage) UnresolvedByMarket(_ context.Context, _ string) ([]storage.PredictionRow, error) {
	return nil, nil
}

func (f *fakeStorage) MarkResolved(_ context.Context, _ int64, _ string, _ float64) error {
	return nil
}

func (f *fakeStorage) ResolvedRows(_ context.Context, _ string) ([]storage.PredictionRow, error) {
	return f.resolved, nil
}

func (f *fakeStorage) RecentPredictions(_ context.Context, _ string, _ int) ([]storage.PredictionRow, error) {
	return f.recent, nil
}

func (f *fakeStorage) UserCategories(_ context.Context, userID int64) ([]string, error) {
	if c, ok := f.categories[userID]; ok {
		return c, nil
	}
	return append([]string(nil), storage.DefaultCategories...), nil
}

func (f *fakeStorage) SetUserCategories(_ context.Context, userID int64, categories []string) error {
	if f.saved == nil {
		f.saved = make(map[int64][]string)
	}
	f.saved[userID] = categories
	return nil
}

func (f *fakeStorage) Close() error { return nil }

func newTestBot(t *testing.T, analyzer *fakeAnalyzer, mkts *fakeMarkets, store *fakeStorage) *Bot {
	t.Helper()

	tracker, err := calibration.NewTracker(store, zap.NewNop())
	if err != nil {
		t.Fatalf("create tracker: %v", err)
	}

	return &Bot{
		engine:  analyzer,
		markets: mkts,
		news:    &fakeNewsSearcher{},
		tracker: tracker,
		store:   store,
		logger:  zap.NewNop(),
	}
}

func TestDispatch_Analyze(t *testing.T) {
	analyzer := &fakeAnalyzer{result: testutil.Forecast("0xabc", "Will it happen?")}
	mkts := &fakeMarkets{market: &types.Market{ConditionID: "0xabc", Question: "Will it happen?"}}

	b := newTestBot(t, analyzer, mkts, &fakeStorage{})

	reply := b.dispatch(context.Background(), "analyze", "powell-resign-2026", 42)

	if !strings.Contains(reply, "Analysis: Will it happen?") {
		t.Errorf("reply missing header: %q", reply)
	}
	if !strings.Contains(reply, "STRONG_BUY") {
		t.Errorf("reply missing recommendation: %q", reply)
	}
	if analyzer.requestedBy != "42" {
		t.Errorf("requestedBy = %q, want the user id", analyzer.requestedBy)
	}
}

func TestDispatch_AnalyzeNoArgs(t *testing.T) {
	b := newTestBot(t, &fakeAnalyzer{}, &fakeMarkets{}, &fakeStorage{})

	reply := b.dispatch(context.Background(), "analyze", "", 42)

	if !strings.Contains(reply, "Usage:") {
		t.Errorf("expected usage hint, got %q", reply)
	}
}

func TestDispatch_AnalyzeMarketNotFound(t *testing.T) {
	b := newTestBot(t, &fakeAnalyzer{}, &fakeMarkets{market: nil}, &fakeStorage{})

	reply := b.dispatch(context.Background(), "analyze", "no-such", 42)

	if !strings.Contains(reply, "Could not find") {
		t.Errorf("got %q", reply)
	}
}

func TestDispatch_AnalyzeErrorEscaped(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("boom <tag>")}
	mkts := &fakeMarkets{market: &types.Market{ConditionID: "0xabc"}}

	b := newTestBot(t, analyzer, mkts, &fakeStorage{})

	reply := b.dispatch(context.Background(), "analyze", "ref", 42)

	if strings.Contains(reply, "<tag>") {
		t.Errorf("error text must be HTML-escaped: %q", reply)
	}
}

func TestDispatch_MarketsUsesSavedCategory(t *testing.T) {
	mkts := &fakeMarkets{list: []types.Market{{Question: "q", Slug: "s"}}}
	store := &fakeStorage{categories: map[int64][]string{42: {"sports", "crypto"}}}

	b := newTestBot(t, &fakeAnalyzer{}, mkts, store)

	reply := b.dispatch(context.Background(), "markets", "", 42)

	if mkts.category != "sports" {
		t.Errorf("category = %q, want first saved", mkts.category)
	}
	if !strings.Contains(reply, "Category: sports") {
		t.Errorf("reply missing category header: %q", reply)
	}
}

func TestDispatch_MarketsExplicitCategory(t *testing.T) {
	mkts := &fakeMarkets{list: []types.Market{{Question: "q", Slug: "s"}}}

	b := newTestBot(t, &fakeAnalyzer{}, mkts, &fakeStorage{})

	b.dispatch(context.Background(), "markets", "Crypto", 42)

	if mkts.category != "crypto" {
		t.Errorf("category = %q, want lowercased argument", mkts.category)
	}
}

func TestDispatch_SetCategories(t *testing.T) {
	store := &fakeStorage{}
	b := newTestBot(t, &fakeAnalyzer{}, &fakeMarkets{}, store)

	reply := b.dispatch(context.Background(), "setcategories", "crypto bogus SPORTS", 42)

	if !strings.Contains(reply, "Categories saved: crypto, sports") {
		t.Errorf("got %q", reply)
	}
	if got := store.saved[42]; len(got) != 2 || got[0] != "crypto" || got[1] != "sports" {
		t.Errorf("saved = %v", got)
	}
}

func TestDispatch_SetCategoriesAllInvalid(t *testing.T) {
	b := newTestBot(t, &fakeAnalyzer{}, &fakeMarkets{}, &fakeStorage{})

	reply := b.dispatch(context.Background(), "setcategories", "bogus nonsense", 42)

	if !strings.Contains(reply, "No valid categories") {
		t.Errorf("got %q", reply)
	}
}

func TestDispatch_SetCategoriesNoArgsShowsCurrent(t *testing.T) {
	store := &fakeStorage{categories: map[int64][]string{42: {"politics"}}}
	b := newTestBot(t, &fakeAnalyzer{}, &fakeMarkets{}, store)

	reply := b.dispatch(context.Background(), "setcategories", "", 42)

	if !strings.Contains(reply, "Current categories: politics") {
		t.Errorf("got %q", reply)
	}
}

func TestDispatch_PortfolioEmpty(t *testing.T) {
	b := newTestBot(t, &fakeAnalyzer{}, &fakeMarkets{}, &fakeStorage{})

	reply := b.dispatch(context.Background(), "portfolio", "", 42)

	if !strings.Contains(reply, "No predictions yet") {
		t.Errorf("got %q", reply)
	}
}

func TestDispatch_CalibrationEmpty(t *testing.T) {
	b := newTestBot(t, &fakeAnalyzer{}, &fakeMarkets{}, &fakeStorage{})

	reply := b.dispatch(context.Background(), "calibration", "", 42)

	if !strings.Contains(reply, "No resolved predictions") {
		t.Errorf("got %q", reply)
	}
}

func TestDispatch_News(t *testing.T) {
	b := newTestBot(t, &fakeAnalyzer{}, &fakeMarkets{}, &fakeStorage{})
	b.news = &fakeNewsSearcher{articles: testutil.Articles(2)}

	reply := b.dispatch(context.Background(), "news", "powell", 42)

	if !strings.Contains(reply, "Headline A") || !strings.Contains(reply, "Headline B") {
		t.Errorf("articles missing: %q", reply)
	}
}

func TestDispatch_NewsNoArgs(t *testing.T) {
	b := newTestBot(t, &fakeAnalyzer{}, &fakeMarkets{}, &fakeStorage{})

	reply := b.dispatch(context.Background(), "news", "", 42)

	if !strings.Contains(reply, "Usage:") {
		t.Errorf("got %q", reply)
	}
}

func TestDispatch_Unknown(t *testing.T) {
	b := newTestBot(t, &fakeAnalyzer{}, &fakeMarkets{}, &fakeStorage{})

	reply := b.dispatch(context.Background(), "frobnicate", "", 42)

	if !strings.Contains(reply, "Unknown command") {
		t.Errorf("got %q", reply)
	}
}

func TestReplyTo_UnauthorizedUserGetsRejection(t *testing.T) {
	b := newTestBot(t, &fakeAnalyzer{}, &fakeMarkets{}, &fakeStorage{})
	b.authorized = map[int64]struct{}{42: {}}

	command := func(userID int64, text string) *tgbotapi.Message {
		return &tgbotapi.Message{
			From:     &tgbotapi.User{ID: userID},
			Text:     text,
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
		}
	}

	if got := b.replyTo(context.Background(), command(99, "/markets")); got != unauthorizedReply {
		t.Errorf("reply = %q, want the rejection message", got)
	}
	if got := b.replyTo(context.Background(), command(42, "/portfolio")); got == unauthorizedReply {
		t.Error("listed user must not be rejected")
	}
}

func TestIsAuthorized(t *testing.T) {
	open := &Bot{authorized: map[int64]struct{}{}}
	if !open.isAuthorized(99) {
		t.Error("empty allow list must be open access")
	}

	restricted := &Bot{authorized: map[int64]struct{}{42: {}}}
	if !restricted.isAuthorized(42) {
		t.Error("listed user must be authorized")
	}
	if restricted.isAuthorized(99) {
		t.Error("unlisted user must be rejected")
	}
}
