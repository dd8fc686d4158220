package markets

import (
	"regexp"
	"strings"
)

// Ref is a parsed market reference. Exactly one of the fields is set,
// except a full URL which may carry both an event slug and a market
// slug.
type Ref struct {
	Slug        string
	ConditionID string
	EventSlug   string
}

//nolint:gochecknoglobals // compiled once
var (
	polymarketURLRe = regexp.MustCompile(`polymarket\.com/event/([^/?#]+)(?:/([^/?#]+))?`)
	conditionIDRe   = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

	outcomeNameRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^Will\s+(.+?)\s+(?:win|be |become |get |reach |pass |capture )`),
		regexp.MustCompile(`(?i)^(.+?)\s+to\s+(?:win|be |become )`),
	}
)

// ParseRef interprets user input as a Polymarket URL, a condition ID,
// or a bare slug, in that order.
func ParseRef(text string) Ref {
	text = strings.TrimSpace(text)

	if m := polymarketURLRe.FindStringSubmatch(text); m != nil {
		return Ref{EventSlug: m[1], Slug: m[2]}
	}

	if conditionIDRe.MatchString(text) {
		return Ref{ConditionID: text}
	}

	return Ref{Slug: text}
}

// ExtractOutcomeName derives a short outcome label from a binary
// sub-market question. "Will Donald Trump win the 2026 election?"
// becomes "Donald Trump"; questions that resist simplification are
// returned trimmed to 60 characters.
func ExtractOutcomeName(question string) string {
	q := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(question), "?"))

	for _, re := range outcomeNameRes {
		if m := re.FindStringSubmatch(q); m != nil {
			name := strings.TrimSpace(m[1])
			if len(name) > 3 {
				return name
			}
		}
	}

	if len(q) < 60 {
		return q
	}
	return q[:60]
}
