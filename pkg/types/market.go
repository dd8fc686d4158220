package types

import (
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Market represents a Polymarket market from the Gamma API.
//
// Gamma encodes the per-outcome fields (outcomes, outcomePrices,
// clobTokenIds) as JSON strings inside the JSON document; UnmarshalJSON
// decodes them into the ordered Tokens slice so callers never touch the
// raw string forms.
type Market struct {
	ID          string     `json:"id"`
	ConditionID string     `json:"conditionId"`
	Question    string     `json:"question"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Active      bool       `json:"active"`
	Closed      bool       `json:"closed"`
	Category    string     `json:"category"`
	EndDate     *time.Time `json:"-"`
	Volume      float64    `json:"-"`
	Liquidity   float64    `json:"-"`
	Tokens      []Token    `json:"-"`

	// Raw string-encoded list fields as Gamma sends them.
	Outcomes      string `json:"outcomes"`
	OutcomePrices string `json:"outcomePrices"`
	ClobTokens    string `json:"clobTokenIds"`
}

// Token represents one market outcome and its current price.
// Price 0 means no observed price; the decision layer maps that to its
// own default rather than treating it as a real quote.
type Token struct {
	TokenID string  `json:"token_id"`
	Outcome string  `json:"outcome"`
	Price   float64 `json:"price,omitempty"`
}

// UnmarshalJSON decodes a Gamma market, including the string-encoded
// outcomes/outcomePrices/clobTokenIds lists and the loosely typed
// endDate/volume/liquidity fields.
func (m *Market) UnmarshalJSON(data []byte) error {
	type Alias Market
	aux := &struct {
		*Alias
		EndDateRaw   string      `json:"endDate"`
		VolumeRaw    json.Number `json:"volume"`
		LiquidityRaw json.Number `json:"liquidity"`
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if aux.EndDateRaw != "" {
		if t, err := time.Parse(time.RFC3339, aux.EndDateRaw); err == nil {
			m.EndDate = &t
		}
	}
	if v, err := aux.VolumeRaw.Float64(); err == nil {
		m.Volume = v
	}
	if v, err := aux.LiquidityRaw.Float64(); err == nil {
		m.Liquidity = v
	}

	m.Tokens = decodeTokens(m.Outcomes, m.ClobTokens, m.OutcomePrices)

	return nil
}

// decodeTokens builds the ordered token list from Gamma's string-encoded
// parallel lists. Missing token IDs or prices leave zero values; outcome
// order is always preserved.
func decodeTokens(outcomesRaw, tokenIDsRaw, pricesRaw string) []Token {
	var outcomes []string
	if outcomesRaw == "" || json.Unmarshal([]byte(outcomesRaw), &outcomes) != nil {
		return nil
	}

	var tokenIDs []string
	if tokenIDsRaw != "" {
		_ = json.Unmarshal([]byte(tokenIDsRaw), &tokenIDs)
	}

	var priceStrs []string
	if pricesRaw != "" {
		_ = json.Unmarshal([]byte(pricesRaw), &priceStrs)
	}

	tokens := make([]Token, 0, len(outcomes))
	for i, outcome := range outcomes {
		token := Token{Outcome: outcome}
		if i < len(tokenIDs) {
			token.TokenID = tokenIDs[i]
		}
		if i < len(priceStrs) {
			if p, err := strconv.ParseFloat(priceStrs[i], 64); err == nil {
				token.Price = p
			}
		}
		tokens = append(tokens, token)
	}

	return tokens
}

// OutcomeLabels returns the ordered outcome labels for this market.
func (m *Market) OutcomeLabels() []string {
	labels := make([]string, len(m.Tokens))
	for i, token := range m.Tokens {
		labels[i] = token.Outcome
	}
	return labels
}

// WinningOutcome returns the settled outcome for a closed market: the
// outcome whose final price has converged to 1. Returns false when the
// market is still open or no price has converged.
func (m *Market) WinningOutcome() (string, bool) {
	if !m.Closed {
		return "", false
	}
	for _, token := range m.Tokens {
		if token.Price >= 0.99 {
			return token.Outcome, true
		}
	}
	return "", false
}

// Event represents a Polymarket event (a group of related markets) from
// the Gamma API. Multi-outcome questions are represented as one event
// holding one binary sub-market per outcome.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Markets     []Market `json:"markets"`
}

// ClobPrice is the CLOB /price endpoint response.
type ClobPrice struct {
	Price string `json:"price"`
}
