package types

import (
	"strconv"

	json "github.com/goccy/go-json"
)

// PriceMessage represents a message from the Polymarket market WebSocket
// channel. Only the events the price watcher cares about are modeled:
// "price_change" and "last_trade_price".
type PriceMessage struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	Market    string `json:"market"`
	Price     string `json:"price,omitempty"`
	Timestamp int64  `json:"-"`
}

// UnmarshalJSON handles the string-encoded timestamp the feed sends.
func (p *PriceMessage) UnmarshalJSON(data []byte) error {
	type Alias PriceMessage
	aux := &struct {
		TimestampStr string `json:"timestamp"`
		*Alias
	}{
		Alias: (*Alias)(p),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if aux.TimestampStr != "" {
		ts, err := strconv.ParseInt(aux.TimestampStr, 10, 64)
		if err != nil {
			return err
		}
		p.Timestamp = ts
	}

	return nil
}

// PriceValue parses the string price, returning 0 when absent or malformed.
func (p *PriceMessage) PriceValue() float64 {
	v, err := strconv.ParseFloat(p.Price, 64)
	if err != nil {
		return 0
	}
	return v
}
