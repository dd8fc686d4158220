package forecast

// Recommendation classifies an outcome's edge over the market price.
type Recommendation string

const (
	StrongBuy Recommendation = "STRONG_BUY"
	Buy       Recommendation = "BUY"
	Hold      Recommendation = "HOLD"
	Avoid     Recommendation = "AVOID"
)

// OutcomeForecast is the per-outcome verdict: the model's probability
// against the market's implied one and the derived trade signal.
type OutcomeForecast struct {
	Outcome           string         `json:"outcome"`
	BotProbability    float64        `json:"bot_probability"`
	MarketProbability float64        `json:"market_probability"`
	EVPerDollar       float64        `json:"ev_per_dollar"`
	KellyFraction     float64        `json:"kelly_fraction"`
	Recommendation    Recommendation `json:"recommendation"`
}

// Result is one complete market analysis. ID is assigned per analysis
// and correlates log lines across the pipeline.
type Result struct {
	ID             string            `json:"id"`
	ConditionID    string            `json:"condition_id"`
	Question       string            `json:"question"`
	Slug           string            `json:"slug"`
	Reasoning      string            `json:"reasoning"`
	Outcomes       []OutcomeForecast `json:"outcomes"`
	PromptVersion  string            `json:"prompt_version"`
	ArticleCount   int               `json:"news_article_count"`
	ExtractedCount int               `json:"extracted_count"`
}

// BestOpportunity returns the outcome with the highest positive EV, or
// nil when no outcome has an edge.
func (r *Result) BestOpportunity() *OutcomeForecast {
	var best *OutcomeForecast
	for i := range r.Outcomes {
		o := &r.Outcomes[i]
		if o.EVPerDollar <= 0 {
			continue
		}
		if best == nil || o.EVPerDollar > best.EVPerDollar {
			best = o
		}
	}
	return best
}
