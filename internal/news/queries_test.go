package news

import (
	"strings"
	"testing"
)

func TestDeriveQueries_Question(t *testing.T) {
	queries := DeriveQueries("Will Jerome Powell resign before 2026?")

	if len(queries) == 0 || len(queries) > MaxQueries {
		t.Fatalf("expected 1..%d queries, got %d: %v", MaxQueries, len(queries), queries)
	}
	if queries[0] != "Will Jerome Powell resign before 2026" {
		t.Errorf("first query should be the cleaned question, got %q", queries[0])
	}

	var hasEntity bool
	for _, q := range queries {
		if q == "Jerome Powell" {
			hasEntity = true
		}
	}
	if !hasEntity {
		t.Errorf("expected entity query %q in %v", "Jerome Powell", queries)
	}
}

func TestDeriveQueries_TrimsStopWordsFromEntities(t *testing.T) {
	queries := DeriveQueries("Will The Federal Reserve cut rates in March?")

	for _, q := range queries {
		if q == "Will The Federal Reserve" || q == "The Federal Reserve" {
			t.Errorf("entity query %q keeps leading stop words", q)
		}
	}

	var hasEntity bool
	for _, q := range queries {
		if q == "Federal Reserve" {
			hasEntity = true
		}
	}
	if !hasEntity {
		t.Errorf("expected entity query %q in %v", "Federal Reserve", queries)
	}
}

func TestDeriveQueries_StripsPunctuation(t *testing.T) {
	for _, q := range DeriveQueries(`Will "BTC" hit $100k?!`) {
		if strings.ContainsAny(q, `?!"'`) {
			t.Errorf("query %q contains punctuation", q)
		}
	}
}

func TestDeriveQueries_Dedup(t *testing.T) {
	queries := DeriveQueries("Bitcoin")

	seen := make(map[string]struct{})
	for _, q := range queries {
		key := strings.ToLower(q)
		if _, dup := seen[key]; dup {
			t.Errorf("duplicate query %q in %v", q, queries)
		}
		seen[key] = struct{}{}
	}
}

func TestDeriveQueries_StopWordOnlyQuestion(t *testing.T) {
	queries := DeriveQueries("Will it be?")

	if len(queries) == 0 {
		t.Fatal("expected at least the cleaned question")
	}
	if queries[0] != "Will it be" {
		t.Errorf("got %q", queries[0])
	}
}

func TestDeriveQueries_CapsAtMax(t *testing.T) {
	question := "Will Donald Trump meet Xi Jinping and Vladimir Putin in Geneva Switzerland?"
	if got := len(DeriveQueries(question)); got > MaxQueries {
		t.Errorf("expected at most %d queries, got %d", MaxQueries, got)
	}
}
