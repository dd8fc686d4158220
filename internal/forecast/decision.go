package forecast

import "math"

// Classification thresholds on EV per dollar. Boundaries are exclusive:
// an EV of exactly 0.10 is a BUY, not a STRONG_BUY.
const (
	strongBuyThreshold = 0.10
	buyThreshold       = 0.05
)

// ComputeEV returns the expected value per dollar staked: the model's
// probability minus the market's implied one.
func ComputeEV(botProb, marketProb float64) float64 {
	return botProb - marketProb
}

// ComputeKelly returns the half-Kelly stake fraction for backing an
// outcome at the market price. Degenerate prices (<= 0 or >= 1) and
// negative edges yield 0: never short, never bet without an edge.
func ComputeKelly(botProb, marketProb float64) float64 {
	if marketProb <= 0 || marketProb >= 1 {
		return 0
	}
	b := (1.0 - marketProb) / marketProb
	if b <= 0 {
		return 0
	}
	kelly := (b*botProb - (1.0 - botProb)) / b
	return math.Max(0, kelly*0.5)
}

// Classify maps an EV to a recommendation.
func Classify(ev float64) Recommendation {
	switch {
	case ev > strongBuyThreshold:
		return StrongBuy
	case ev > buyThreshold:
		return Buy
	case ev > 0:
		return Hold
	default:
		return Avoid
	}
}

// Round4 rounds to 4 decimal places, the precision stored and displayed
// for EV and Kelly figures.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// EvaluateOutcome combines EV, Kelly sizing and classification for one
// outcome.
func EvaluateOutcome(outcome string, botProb, marketProb float64) OutcomeForecast {
	ev := ComputeEV(botProb, marketProb)
	return OutcomeForecast{
		Outcome:           outcome,
		BotProbability:    botProb,
		MarketProbability: marketProb,
		EVPerDollar:       Round4(ev),
		KellyFraction:     Round4(ComputeKelly(botProb, marketProb)),
		Recommendation:    Classify(ev),
	}
}
