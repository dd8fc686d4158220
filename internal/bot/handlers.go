package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

//nolint:gochecknoglobals // fixed vocabulary
var validCategories = map[string]struct{}{
	"politics": {}, "crypto": {}, "science": {},
	"sports": {}, "finance": {}, "entertainment": {},
}

// dispatch routes a command to its handler and returns the reply text.
// An empty reply means nothing is sent.
func (b *Bot) dispatch(ctx context.Context, command, args string, userID int64) string {
	switch command {
	case "start":
		return b.handleStart()
	case "help":
		return b.handleHelp()
	case "markets":
		return b.handleMarkets(ctx, args, userID)
	case "analyze":
		return b.handleAnalyze(ctx, args, userID)
	case "setcategories":
		return b.handleSetCategories(ctx, args, userID)
	case "portfolio":
		return b.handlePortfolio(ctx, userID)
	case "calibration":
		return b.handleCalibration(ctx, userID)
	case "news":
		return b.handleNews(ctx, args)
	default:
		return "Unknown command. Try /help."
	}
}

func (b *Bot) handleStart() string {
	return "<b>Welcome to Polyforecast!</b>\n\n" +
		"I'm a superforecasting assistant for Polymarket.\n\n" +
		"Commands:\n" +
		"/markets [category] - Browse active markets\n" +
		"/analyze &lt;url or slug&gt; - Full analysis with EV\n" +
		"/setcategories - Set default categories\n" +
		"/portfolio - Your tracked predictions\n" +
		"/calibration - Calibration table\n" +
		"/news &lt;topic&gt; - Latest news\n" +
		"/help - Command reference"
}

func (b *Bot) handleHelp() string {
	return "<b>Polyforecast Commands</b>\n\n" +
		"<b>/markets</b> [category]\n" +
		"  Show top active markets. Categories: politics, crypto, science, sports, finance\n\n" +
		"<b>/analyze</b> &lt;url or slug or condition_id&gt;\n" +
		"  Run superforecasting analysis. Fetches news, gets an independent estimate, compares to market.\n\n" +
		"<b>/setcategories</b> cat1 cat2 ...\n" +
		"  Set your default categories for /markets\n\n" +
		"<b>/portfolio</b>\n" +
		"  View your tracked predictions and accuracy stats\n\n" +
		"<b>/calibration</b>\n" +
		"  Show the calibration table for resolved predictions\n\n" +
		"<b>/news</b> &lt;topic&gt;\n" +
		"  Search for recent news on a topic"
}

func (b *Bot) handleMarkets(ctx context.Context, args string, userID int64) string {
	category := strings.ToLower(strings.TrimSpace(args))
	if category == "" {
		categories, err := b.store.UserCategories(ctx, userID)
		if err != nil {
			b.logger.Warn("user-categories-load-failed",
				zap.Int64("user-id", userID), zap.Error(err))
		} else if len(categories) > 0 {
			category = categories[0]
		}
	}

	list, err := b.markets.ListMarkets(ctx, category, marketListLimit)
	if err != nil {
		b.logger.Error("markets-fetch-failed", zap.Error(err))
		return "Failed to fetch markets. Please try again later."
	}

	text := formatMarketList(list)
	if category != "" {
		text = fmt.Sprintf("<b>Category: %s</b>\n\n%s", escapeHTML(category), text)
	}
	return text
}

func (b *Bot) handleAnalyze(ctx context.Context, args string, userID int64) string {
	ref := strings.TrimSpace(args)
	if ref == "" {
		return "Usage: /analyze &lt;polymarket URL, slug, or condition ID&gt;"
	}

	market, err := b.markets.GetMarket(ctx, ref)
	if err != nil {
		b.logger.Error("market-resolve-failed", zap.String("ref", ref), zap.Error(err))
		return "Failed to fetch that market. Please try again later."
	}
	if market == nil {
		return "Could not find that market."
	}

	result, err := b.engine.AnalyzeMarket(ctx, market, strconv.FormatInt(userID, 10))
	if err != nil {
		b.logger.Error("analysis-failed",
			zap.String("condition-id", market.ConditionID), zap.Error(err))
		return "Analysis failed: " + escapeHTML(err.Error())
	}

	return formatForecast(result)
}

func (b *Bot) handleSetCategories(ctx context.Context, args string, userID int64) string {
	valid := make([]string, 0, len(validCategories))
	for c := range validCategories {
		valid = append(valid, c)
	}
	sort.Strings(valid)

	fields := strings.Fields(strings.ToLower(args))
	if len(fields) == 0 {
		current, err := b.store.UserCategories(ctx, userID)
		if err != nil {
			b.logger.Warn("user-categories-load-failed", zap.Error(err))
			current = nil
		}
		return fmt.Sprintf("Current categories: %s\n\nUsage: /setcategories cat1 cat2 ...\nValid: %s",
			strings.Join(current, ", "), strings.Join(valid, ", "))
	}

	var chosen []string
	for _, f := range fields {
		if _, ok := validCategories[f]; ok {
			chosen = append(chosen, f)
		}
	}
	if len(chosen) == 0 {
		return "No valid categories. Choose from: " + strings.Join(valid, ", ")
	}

	if err := b.store.SetUserCategories(ctx, userID, chosen); err != nil {
		b.logger.Error("user-categories-save-failed", zap.Error(err))
		return "Failed to save categories. Please try again."
	}
	return "Categories saved: " + strings.Join(chosen, ", ")
}

func (b *Bot) handlePortfolio(ctx context.Context, userID int64) string {
	requester := strconv.FormatInt(userID, 10)

	predictions, err := b.store.RecentPredictions(ctx, requester, 20)
	if err != nil {
		b.logger.Error("predictions-load-failed", zap.Error(err))
		return "Failed to load your portfolio. Please try again later."
	}

	report, err := b.tracker.Report(ctx, requester)
	if err != nil {
		b.logger.Error("calibration-report-failed", zap.Error(err))
		return "Failed to load your portfolio. Please try again later."
	}

	return formatPortfolio(predictions, report)
}

func (b *Bot) handleCalibration(ctx context.Context, userID int64) string {
	report, err := b.tracker.Report(ctx, strconv.FormatInt(userID, 10))
	if err != nil {
		b.logger.Error("calibration-report-failed", zap.Error(err))
		return "Failed to load calibration data. Please try again later."
	}
	return formatCalibration(report)
}

func (b *Bot) handleNews(ctx context.Context, args string) string {
	topic := strings.TrimSpace(args)
	if topic == "" {
		return "Usage: /news &lt;topic&gt;"
	}

	articles := b.news.Fetch(ctx, topic, 10)
	return formatNewsArticles(articles)
}
