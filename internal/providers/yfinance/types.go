package yfinance

import "encoding/json"

// --- Yahoo Finance API response types ---

// yfChartResponse wraps the v8 chart API response.
type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol               string `json:"symbol"`
	Currency             string `json:"currency"`
	ExchangeName         string `json:"exchangeName"`
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	DataGranularity      string `json:"dataGranularity"`
	Range                string `json:"range"`
}

type yfIndicators struct {
	Quote []yfOHLC `json:"quote"`
}

type yfOHLC struct {
	Open  []*float64 `json:"open"`
	High  []*float64 `json:"high"`
	Low   []*float64 `json:"low"`
	Close []*float64 `json:"close"`
}

// yfQuoteSummaryResponse wraps the v10 quoteSummary API response. Each
// result is kept as module name → field name → raw value, since the
// fields of interest are looked up across several modules.
type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]map[string]json.RawMessage `json:"result"`
		Error  *yfError                                `json:"error"`
	} `json:"quoteSummary"`
}

// yfFinVal is Yahoo's formatted number wrapper: {"raw": 1.5, "fmt": "1.50"}.
// Missing values arrive as {}.
type yfFinVal struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *yfError) Error() string {
	return e.Code + ": " + e.Description
}
