package types

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func TestMarket_UnmarshalGamma(t *testing.T) {
	raw := `{
		"id": "12345",
		"conditionId": "0xabc",
		"question": "Will Jerome Powell resign before 2026?",
		"slug": "powell-resign-2026",
		"active": true,
		"closed": false,
		"endDate": "2026-01-01T00:00:00Z",
		"volume": "152340.5",
		"liquidity": "8891.25",
		"outcomes": "[\"Yes\", \"No\"]",
		"outcomePrices": "[\"0.12\", \"0.88\"]",
		"clobTokenIds": "[\"tok-yes\", \"tok-no\"]"
	}`

	var m Market
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(m.Tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(m.Tokens))
	}
	if m.Tokens[0].Outcome != "Yes" || m.Tokens[1].Outcome != "No" {
		t.Errorf("outcome order not preserved: %+v", m.Tokens)
	}
	if m.Tokens[0].Price != 0.12 {
		t.Errorf("expected Yes price 0.12, got %f", m.Tokens[0].Price)
	}
	if m.Tokens[0].TokenID != "tok-yes" {
		t.Errorf("expected tok-yes, got %q", m.Tokens[0].TokenID)
	}
	if m.Volume != 152340.5 {
		t.Errorf("expected volume 152340.5, got %f", m.Volume)
	}
	if m.EndDate == nil || !m.EndDate.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected end date: %v", m.EndDate)
	}
}

func TestMarket_UnmarshalNumericVolume(t *testing.T) {
	// Some Gamma responses carry volume as a bare number, not a string.
	raw := `{"question": "q", "volume": 42.5, "outcomes": "[\"Yes\", \"No\"]"}`

	var m Market
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Volume != 42.5 {
		t.Errorf("expected volume 42.5, got %f", m.Volume)
	}
	if len(m.Tokens) != 2 {
		t.Errorf("expected 2 tokens without IDs or prices, got %d", len(m.Tokens))
	}
}

func TestMarket_OutcomeLabels(t *testing.T) {
	m := Market{Tokens: []Token{{Outcome: "Alice"}, {Outcome: "Bob"}, {Outcome: "Carol"}}}

	labels := m.OutcomeLabels()
	if len(labels) != 3 || labels[0] != "Alice" || labels[2] != "Carol" {
		t.Errorf("unexpected labels: %v", labels)
	}
}

func TestMarket_WinningOutcome(t *testing.T) {
	tests := []struct {
		name     string
		market   Market
		want     string
		wantOK   bool
	}{
		{
			name: "settled-yes",
			market: Market{Closed: true, Tokens: []Token{
				{Outcome: "Yes", Price: 0.999},
				{Outcome: "No", Price: 0.001},
			}},
			want:   "Yes",
			wantOK: true,
		},
		{
			name: "still-open",
			market: Market{Closed: false, Tokens: []Token{
				{Outcome: "Yes", Price: 0.999},
			}},
			wantOK: false,
		},
		{
			name: "closed-but-unconverged",
			market: Market{Closed: true, Tokens: []Token{
				{Outcome: "Yes", Price: 0.6},
				{Outcome: "No", Price: 0.4},
			}},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.market.WinningOutcome()
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if ok && got != tt.want {
				t.Errorf("expected winner %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPriceMessage_Unmarshal(t *testing.T) {
	raw := `{"event_type": "price_change", "asset_id": "tok-1", "market": "0xabc", "price": "0.42", "timestamp": "1724673600000"}`

	var msg PriceMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.EventType != "price_change" {
		t.Errorf("unexpected event type %q", msg.EventType)
	}
	if msg.PriceValue() != 0.42 {
		t.Errorf("expected price 0.42, got %f", msg.PriceValue())
	}
	if msg.Timestamp != 1724673600000 {
		t.Errorf("expected parsed timestamp, got %d", msg.Timestamp)
	}
}
