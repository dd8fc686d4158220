package forecast

import (
	"regexp"
	"strconv"
	"strings"
)

// Extractor pulls per-outcome probabilities out of a model response.
type Extractor interface {
	Extract(text string, outcomes []string) map[string]float64
}

const probabilitiesMarker = "PROBABILITIES:"

// decimal probability: ".35", "0.35", "1", "1.0", "0.0"
const probabilityPattern = `(0?\.\d+|1\.0+|0+\.0+|1)`

// RegexExtractor parses the PROBABILITIES: block the prompt demands.
// It searches only the text after the last marker occurrence (the model
// may mention the word earlier in its reasoning), matches each outcome
// label case-insensitively, and renormalizes near-misses so the
// probabilities sum to 1.0.
type RegexExtractor struct{}

// Extract implements Extractor. Outcomes without a parseable line are
// absent from the returned map.
func (RegexExtractor) Extract(text string, outcomes []string) map[string]float64 {
	section := text
	if idx := strings.LastIndex(text, probabilitiesMarker); idx >= 0 {
		section = text[idx+len(probabilitiesMarker):]
	}

	probs := make(map[string]float64)
	for _, outcome := range outcomes {
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(outcome) + `\s*:\s*` + probabilityPattern)
		if err != nil {
			continue
		}
		m := re.FindStringSubmatch(section)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		probs[outcome] = v
	}

	renormalize(probs)
	return probs
}

// renormalize rescales probabilities whose sum is close to but not
// exactly 1.0. Sums outside (0.9, 1.1) are left alone: rescaling a
// badly-off total would fabricate confidence out of a parse problem.
func renormalize(probs map[string]float64) {
	if len(probs) == 0 {
		return
	}
	var total float64
	for _, v := range probs {
		total += v
	}
	if total <= 0.9 || total >= 1.1 || total == 1.0 {
		return
	}
	for k, v := range probs {
		probs[k] = v / total
	}
}
