package bot

import (
	"fmt"
	"strings"

	"github.com/polyforecast/polyforecast/internal/calibration"
	"github.com/polyforecast/polyforecast/internal/forecast"
	"github.com/polyforecast/polyforecast/internal/news"
	"github.com/polyforecast/polyforecast/internal/storage"
	"github.com/polyforecast/polyforecast/pkg/types"
)

// maxMessageLen stays under Telegram's 4096-character limit with room
// for HTML entities.
const maxMessageLen = 4000

//nolint:gochecknoglobals // fixed rendering table
var recTags = map[forecast.Recommendation]string{
	forecast.StrongBuy: "!!!",
	forecast.Buy:       ">>",
	forecast.Hold:      "--",
	forecast.Avoid:     "xx",
}

func escapeHTML(text string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(text)
}

func pct(v float64) string  { return fmt.Sprintf("%.0f%%", v*100) }
func pct1(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }
func spct(v float64) string { return fmt.Sprintf("%+.2f%%", v*100) }

func formatMarketList(markets []types.Market) string {
	if len(markets) == 0 {
		return "No active markets found."
	}

	var blocks []string
	for i, m := range markets {
		var prices []string
		for _, tok := range m.Tokens {
			if tok.Price > 0 {
				prices = append(prices, fmt.Sprintf("%s: %s", tok.Outcome, pct(tok.Price)))
			}
		}
		volume := "n/a"
		if m.Volume > 0 {
			volume = fmt.Sprintf("$%.0f", m.Volume)
		}
		ref := m.Slug
		if ref == "" && len(m.ConditionID) >= 16 {
			ref = m.ConditionID[:16]
		}
		blocks = append(blocks, fmt.Sprintf(
			"<b>%d.</b> %s\n   Prices: %s\n   Volume: %s\n   <code>%s</code>",
			i+1, escapeHTML(m.Question), strings.Join(prices, " / "), volume, ref))
	}
	return strings.Join(blocks, "\n\n")
}

func formatForecast(result *forecast.Result) string {
	lines := []string{fmt.Sprintf("<b>Analysis: %s</b>\n", escapeHTML(result.Question))}

	for _, of := range result.Outcomes {
		lines = append(lines, fmt.Sprintf(
			"  <b>%s</b>\n    Bot: %s  |  Market: %s\n    EV/dollar: %s  |  Kelly: %s\n    Rec: <b>%s</b> %s",
			escapeHTML(of.Outcome),
			pct1(of.BotProbability), pct1(of.MarketProbability),
			spct(of.EVPerDollar), pct1(of.KellyFraction),
			of.Recommendation, recTags[of.Recommendation]))
	}

	if best := result.BestOpportunity(); best != nil {
		lines = append(lines, fmt.Sprintf(
			"\nBest opportunity: <b>%s</b> (EV %s)",
			escapeHTML(best.Outcome), spct(best.EVPerDollar)))
	}

	preview := result.Reasoning
	if len(preview) > 1500 {
		preview = preview[:1500] + "..."
	}
	lines = append(lines,
		fmt.Sprintf("\n<b>Reasoning:</b>\n<i>%s</i>", escapeHTML(preview)),
		fmt.Sprintf("\nNews articles used: %d", result.ArticleCount),
		fmt.Sprintf("Prompt version: %s", result.PromptVersion))

	return strings.Join(lines, "\n")
}

func formatPortfolio(predictions []storage.PredictionRow, report *calibration.Report) string {
	lines := []string{"<b>Portfolio Summary</b>\n"}

	if report.HasBrier {
		lines = append(lines, fmt.Sprintf("Brier score: %.4f (lower is better)", report.Brier))
	}
	if report.HasWinRate {
		lines = append(lines, fmt.Sprintf("Win rate (BUY+): %d/%d (%s)",
			report.BuyWins, report.BuyTotal, pct(report.WinRate)))
	}

	if len(predictions) == 0 {
		lines = append(lines, "\nNo predictions yet. Use /analyze to get started.")
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "\n<b>Recent predictions:</b>")
	seen := make(map[string]struct{})
	for _, p := range predictions {
		if _, dup := seen[p.ConditionID]; dup {
			continue
		}
		seen[p.ConditionID] = struct{}{}

		question := p.Question
		if len(question) > 60 {
			question = question[:60]
		}
		status := "Open"
		if p.Resolved {
			status = "Resolved"
		}
		lines = append(lines, fmt.Sprintf(
			"\n  %s\n    %s: bot %s vs market %s\n    Rec: %s | %s",
			escapeHTML(question), escapeHTML(p.Outcome),
			pct(p.BotProbability), pct(p.MarketProbability),
			p.Recommendation, status))

		if len(seen) == 10 {
			break
		}
	}

	return strings.Join(lines, "\n")
}

func formatCalibration(report *calibration.Report) string {
	if len(report.Buckets) == 0 {
		return "No resolved predictions yet for calibration data."
	}

	lines := []string{"<b>Calibration Table</b>\n", "<pre>"}
	lines = append(lines, fmt.Sprintf("%10s %6s %6s %5s", "Bucket", "Pred", "Actual", "Count"))
	lines = append(lines, strings.Repeat("-", 30))
	for _, b := range report.Buckets {
		bucket := fmt.Sprintf("%s-%s", pct(b.Lower), pct(b.Upper))
		lines = append(lines, fmt.Sprintf("%10s %6s %6s %5d",
			bucket, pct(b.PredictedAvg), pct(b.ActualFrequency), b.Count))
	}
	lines = append(lines, "</pre>")

	if report.HasBrier {
		lines = append(lines, fmt.Sprintf("\nBrier score: %.4f over %d predictions",
			report.Brier, report.Total))
	}

	return strings.Join(lines, "\n")
}

func formatNewsArticles(articles []news.Article) string {
	if len(articles) == 0 {
		return "No articles found."
	}

	var blocks []string
	for i, a := range articles {
		date := "unknown date"
		if a.PublishedAt != nil {
			date = a.PublishedAt.Format("2006-01-02")
		}
		blocks = append(blocks, fmt.Sprintf(
			"<b>%d.</b> %s\n   <i>%s</i> - %s\n   %s",
			i+1, escapeHTML(a.Title), escapeHTML(a.Source), date, escapeHTML(a.URL)))
	}
	return strings.Join(blocks, "\n\n")
}

// splitMessage breaks text into chunks under maxMessageLen, preferring
// paragraph boundaries, then line boundaries, then a hard cut.
func splitMessage(text string) []string {
	if len(text) <= maxMessageLen {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for len(remaining) > 0 {
		if len(remaining) <= maxMessageLen {
			chunks = append(chunks, remaining)
			break
		}
		cut := strings.LastIndex(remaining[:maxMessageLen], "\n\n")
		if cut == -1 {
			cut = strings.LastIndex(remaining[:maxMessageLen], "\n")
		}
		if cut <= 0 {
			cut = maxMessageLen
		}
		chunks = append(chunks, remaining[:cut])
		remaining = strings.TrimLeft(remaining[cut:], "\n")
	}
	return chunks
}
