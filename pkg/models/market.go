package models

import (
	"encoding/json"
	"strconv"
)

// Metric is a single quote metric: a real value or the N/A sentinel.
type Metric struct {
	Value     float64
	Available bool
}

// Value constructs an available metric.
func Value(v float64) Metric { return Metric{Value: v, Available: true} }

// Unavailable is the metric used when the upstream snapshot lacks a field.
var Unavailable = Metric{}

// String renders the value, or N/A.
func (m Metric) String() string {
	if !m.Available {
		return NotApplicable
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

// MarshalJSON renders the value as a JSON number, or the string "N/A".
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Available {
		return json.Marshal(NotApplicable)
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts a JSON number, or any string (treated as N/A).
func (m *Metric) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*m = Value(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = Unavailable
	return nil
}

// QuoteSnapshot maps metric names (e.g. "ForwardPE") to their values.
// Every recognized metric is always present.
type QuoteSnapshot map[string]Metric

// PriceSeries maps "YYYY-MM-DD HH:MM:SS" keys to prices.
type PriceSeries map[string]float64

// Window is a historical lookback period.
type Window string

const (
	Window5Day   Window = "5d"
	Window1Month Window = "1mo"
	Window3Month Window = "3mo"
	Window6Month Window = "6mo"
	Window1Year  Window = "1y"
)

// Windows lists every lookback window in ascending length.
var Windows = []Window{Window5Day, Window1Month, Window3Month, Window6Month, Window1Year}

// Component is one price component of a candle.
type Component string

const (
	ComponentOpen  Component = "open"
	ComponentHigh  Component = "high"
	ComponentLow   Component = "low"
	ComponentClose Component = "close"
)

// Components lists every price component.
var Components = []Component{ComponentOpen, ComponentHigh, ComponentLow, ComponentClose}

// WindowHistory holds the four component series of one lookback window.
type WindowHistory map[Component]PriceSeries

// MarketData is the normalized quote snapshot plus price history of a symbol.
type MarketData struct {
	Symbol   string                   `json:"symbol"`
	Name     string                   `json:"name,omitempty"`
	Currency string                   `json:"currency,omitempty"`
	Quote    QuoteSnapshot            `json:"quote"`
	History  map[Window]WindowHistory `json:"history"`
	Timezone string                   `json:"timezone"`
}
