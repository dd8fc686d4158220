package markets

import (
	"strings"
	"testing"
)

func TestParseRef(t *testing.T) {
	conditionID := "0x" + strings.Repeat("ab", 32)

	tests := []struct {
		name  string
		input string
		want  Ref
	}{
		{
			"event-url",
			"https://polymarket.com/event/powell-out-2026",
			Ref{EventSlug: "powell-out-2026"},
		},
		{
			"event-url-with-market",
			"https://polymarket.com/event/powell-out-2026/will-powell-resign",
			Ref{EventSlug: "powell-out-2026", Slug: "will-powell-resign"},
		},
		{
			"url-with-query",
			"https://polymarket.com/event/powell-out-2026?tid=123",
			Ref{EventSlug: "powell-out-2026"},
		},
		{
			"condition-id",
			conditionID,
			Ref{ConditionID: conditionID},
		},
		{
			"short-hex-is-slug",
			"0xabc",
			Ref{Slug: "0xabc"},
		},
		{
			"bare-slug",
			"powell-out-2026",
			Ref{Slug: "powell-out-2026"},
		},
		{
			"whitespace-trimmed",
			"  powell-out-2026  ",
			Ref{Slug: "powell-out-2026"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRef(tt.input); got != tt.want {
				t.Errorf("ParseRef(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExtractOutcomeName(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{"will-x-win", "Will Donald Trump win the 2026 election?", "Donald Trump"},
		{"x-to-win", "Gavin Newsom to win the primary?", "Gavin Newsom"},
		{"will-x-reach", "Will Bitcoin reach $150k?", "Bitcoin"},
		{"short-question-kept", "Above 3.5 inches?", "Above 3.5 inches"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractOutcomeName(tt.question); got != tt.want {
				t.Errorf("ExtractOutcomeName(%q) = %q, want %q", tt.question, got, tt.want)
			}
		})
	}
}

func TestExtractOutcomeName_LongQuestionTruncated(t *testing.T) {
	long := strings.Repeat("x", 100)
	if got := ExtractOutcomeName(long); len(got) != 60 {
		t.Errorf("len = %d, want 60", len(got))
	}
}
