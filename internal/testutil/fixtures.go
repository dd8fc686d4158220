// Package testutil provides shared fixtures for tests.
package testutil

import (
	"time"

	"github.com/polyforecast/polyforecast/internal/forecast"
	"github.com/polyforecast/polyforecast/internal/news"
	"github.com/polyforecast/polyforecast/pkg/types"
)

// SettledMarket returns a closed binary market where winner has resolved
// to 1.0.
func SettledMarket(conditionID, winner string) types.Market {
	return types.Market{
		ConditionID: conditionID,
		Closed:      true,
		Tokens: []types.Token{
			{TokenID: "tok-" + winner, Outcome: winner, Price: 1.0},
			{TokenID: "tok-other", Outcome: "other", Price: 0.0},
		},
	}
}

// BinaryMarket returns an open Yes/No market at the given Yes price.
func BinaryMarket(conditionID, question string, yesPrice float64) types.Market {
	return types.Market{
		ConditionID: conditionID,
		Question:    question,
		Active:      true,
		Tokens: []types.Token{
			{TokenID: "tok-yes", Outcome: "Yes", Price: yesPrice},
			{TokenID: "tok-no", Outcome: "No", Price: 1 - yesPrice},
		},
	}
}

// Articles returns n distinct dated articles, newest first.
func Articles(n int) []news.Article {
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	out := make([]news.Article, 0, n)
	for i := 0; i < n; i++ {
		published := base.Add(-time.Duration(i) * 24 * time.Hour)
		out = append(out, news.Article{
			Title:       "Headline " + string(rune('A'+i)),
			Source:      "Test Wire",
			URL:         "https://example.com/" + string(rune('a'+i)),
			PublishedAt: &published,
		})
	}
	return out
}

// Forecast returns a single-outcome forecast result.
func Forecast(conditionID, question string) *forecast.Result {
	return &forecast.Result{
		ConditionID:   conditionID,
		Question:      question,
		Reasoning:     "test reasoning",
		PromptVersion: forecast.PromptVersion,
		Outcomes: []forecast.OutcomeForecast{
			{
				Outcome:           "Yes",
				BotProbability:    0.62,
				MarketProbability: 0.25,
				EVPerDollar:       0.37,
				KellyFraction:     0.165,
				Recommendation:    forecast.StrongBuy,
			},
		},
	}
}
