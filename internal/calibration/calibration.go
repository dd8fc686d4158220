package calibration

import (
	"strings"

	"github.com/polyforecast/polyforecast/internal/storage"
)

// BucketCount fixes the calibration histogram to ten 0.1-wide buckets
// over [0, 1].
const BucketCount = 10

// Bucket is one calibration bucket: how often outcomes predicted in
// [Lower, Upper) actually happened. A calibrated forecaster has
// ActualFrequency close to PredictedAvg in every populated bucket.
type Bucket struct {
	Lower           float64
	Upper           float64
	PredictedAvg    float64
	ActualFrequency float64
	Count           int
}

// Report is the full calibration picture over a set of resolved
// predictions.
type Report struct {
	Total      int
	Brier      float64
	HasBrier   bool
	Buckets    []Bucket
	BuyTotal   int
	BuyWins    int
	WinRate    float64
	HasWinRate bool
}

// BrierComponent returns the squared error of one probability estimate
// against the realized outcome.
func BrierComponent(prob float64, won bool) float64 {
	actual := 0.0
	if won {
		actual = 1.0
	}
	diff := prob - actual
	return diff * diff
}

// MeanBrier averages the stored Brier components. The second return is
// false when no row carries one.
func MeanBrier(rows []storage.PredictionRow) (float64, bool) {
	var sum float64
	var n int
	for _, r := range rows {
		if r.BrierComponent == nil {
			continue
		}
		sum += *r.BrierComponent
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Buckets groups resolved predictions into the ten fixed probability
// buckets. The last bucket is [0.9, 1.0] so a probability of exactly
// 1.0 is not lost. Empty buckets are omitted.
func Buckets(rows []storage.PredictionRow) []Bucket {
	type acc struct {
		predicted float64
		hits      int
		count     int
	}
	accs := make([]acc, BucketCount)

	for _, r := range rows {
		if !r.Resolved {
			continue
		}
		idx := int(r.BotProbability * BucketCount)
		if idx < 0 {
			idx = 0
		}
		if idx >= BucketCount {
			idx = BucketCount - 1
		}
		accs[idx].predicted += r.BotProbability
		accs[idx].count++
		if won(r) {
			accs[idx].hits++
		}
	}

	var buckets []Bucket
	for i, a := range accs {
		if a.count == 0 {
			continue
		}
		buckets = append(buckets, Bucket{
			Lower:           float64(i) / BucketCount,
			Upper:           float64(i+1) / BucketCount,
			PredictedAvg:    a.predicted / float64(a.count),
			ActualFrequency: float64(a.hits) / float64(a.count),
			Count:           a.count,
		})
	}
	return buckets
}

// WinRate computes the hit rate over resolved predictions where the
// recommendation was BUY or STRONG_BUY — the trades the system would
// actually have taken.
func WinRate(rows []storage.PredictionRow) (wins, total int, rate float64, ok bool) {
	for _, r := range rows {
		if !r.Resolved {
			continue
		}
		if r.Recommendation != "BUY" && r.Recommendation != "STRONG_BUY" {
			continue
		}
		total++
		if won(r) {
			wins++
		}
	}
	if total == 0 {
		return 0, 0, 0, false
	}
	return wins, total, float64(wins) / float64(total), true
}

func won(r storage.PredictionRow) bool {
	return strings.EqualFold(r.Outcome, r.ActualOutcome)
}

// BuildReport assembles the calibration report from resolved rows.
func BuildReport(rows []storage.PredictionRow) *Report {
	report := &Report{Total: len(rows)}
	report.Brier, report.HasBrier = MeanBrier(rows)
	report.Buckets = Buckets(rows)
	report.BuyWins, report.BuyTotal, report.WinRate, report.HasWinRate = WinRate(rows)
	return report
}
