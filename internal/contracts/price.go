package contracts

import "time"

// Price is one daily OHLCV bar for a ticker.
type Price struct {
	Ticker string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// PriceField selects which price (or price combination) feeds the
// normalized series used by detection and backtesting.
type PriceField string

// Recognized price fields.
const (
	FieldHigh  PriceField = "High"
	FieldLow   PriceField = "Low"
	FieldClose PriceField = "Close"
	FieldHL2   PriceField = "HL2"  // (High + Low) / 2
	FieldHLC3  PriceField = "HLC3" // (High + Low + Close) / 3
)

// Valid reports whether the field is one of the recognized modes.
func (f PriceField) Valid() bool {
	switch f {
	case FieldHigh, FieldLow, FieldClose, FieldHL2, FieldHLC3:
		return true
	}
	return false
}

// Value extracts the field value from a bar.
func (f PriceField) Value(p Price) float64 {
	switch f {
	case FieldHigh:
		return p.High
	case FieldLow:
		return p.Low
	case FieldClose:
		return p.Close
	case FieldHL2:
		return (p.High + p.Low) / 2
	case FieldHLC3:
		return (p.High + p.Low + p.Close) / 3
	default:
		return p.Close
	}
}
