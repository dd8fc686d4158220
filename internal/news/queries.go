package news

import (
	"regexp"
	"strings"
)

// MaxQueries caps the number of search queries derived from a question.
const MaxQueries = 3

//nolint:gochecknoglobals // fixed vocabulary
var stopWords = map[string]struct{}{
	"will": {}, "the": {}, "a": {}, "an": {}, "be": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "been": {}, "by": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "from": {}, "as": {},
	"this": {}, "that": {}, "it": {}, "its": {}, "or": {}, "and": {},
	"not": {}, "no": {}, "yes": {}, "do": {}, "does": {}, "did": {},
	"has": {}, "have": {}, "had": {}, "can": {}, "could": {}, "would": {},
	"should": {}, "may": {}, "might": {}, "shall": {}, "before": {},
	"after": {}, "during": {}, "what": {}, "which": {}, "who": {},
	"whom": {}, "how": {}, "when": {}, "where": {}, "why": {}, "if": {},
	"than": {}, "then": {}, "about": {}, "into": {}, "through": {},
	"above": {}, "below": {}, "between": {}, "up": {}, "down": {},
	"out": {}, "off": {}, "over": {}, "under": {}, "again": {},
	"further": {}, "once": {}, "here": {}, "there": {}, "all": {},
	"each": {}, "every": {}, "both": {}, "few": {}, "more": {},
	"most": {}, "other": {}, "some": {}, "such": {}, "any": {}, "only": {},
}

//nolint:gochecknoglobals // compiled once
var (
	punctPattern  = regexp.MustCompile(`[?!.,;:"']`)
	entityPattern = regexp.MustCompile(`[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*`)
)

// DeriveQueries turns a market question into up to MaxQueries news search
// queries, most-specific first: the cleaned question itself, then
// capitalized runs as named-entity queries, then a stop-word-stripped
// keyword query. Pure text transform, no network or model dependency.
func DeriveQueries(question string) []string {
	cleaned := strings.TrimSpace(punctPattern.ReplaceAllString(question, ""))

	queries := []string{cleaned}

	// Crude named-entity heuristic: runs of capitalized words, with
	// capitalized stop words trimmed off the ends so a sentence-initial
	// "Will" does not swallow the name that follows it.
	for _, run := range entityPattern.FindAllString(question, -1) {
		entity := trimStopWords(run)
		if len(entity) <= 2 {
			continue
		}
		if _, stop := stopWords[strings.ToLower(entity)]; stop {
			continue
		}
		queries = append(queries, entity)
	}

	// Keyword query from the first 6 significant tokens.
	var keywords []string
	for _, word := range strings.Fields(cleaned) {
		if _, stop := stopWords[strings.ToLower(word)]; stop || len(word) <= 2 {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == 6 {
			break
		}
	}
	if len(keywords) > 0 {
		queries = append(queries, strings.Join(keywords, " "))
	}

	// Case-insensitive dedup preserving first-seen order.
	seen := make(map[string]struct{}, len(queries))
	unique := make([]string, 0, len(queries))
	for _, q := range queries {
		key := strings.ToLower(q)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, q)
	}

	if len(unique) > MaxQueries {
		unique = unique[:MaxQueries]
	}

	return unique
}

// trimStopWords drops stop words from both ends of a capitalized run,
// turning "Will Jerome Powell" into "Jerome Powell".
func trimStopWords(run string) string {
	words := strings.Fields(run)
	for len(words) > 0 {
		if _, stop := stopWords[strings.ToLower(words[0])]; !stop {
			break
		}
		words = words[1:]
	}
	for len(words) > 0 {
		if _, stop := stopWords[strings.ToLower(words[len(words)-1])]; !stop {
			break
		}
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}
