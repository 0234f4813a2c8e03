package yfinance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/seenimoa/finny/internal/provider"
	"github.com/seenimoa/finny/pkg/models"
)

// fieldSource is one place a quote field may appear in a quoteSummary result.
type fieldSource struct {
	module string
	key    string
}

// QuoteField is a snapshot metric and the quoteSummary locations it is
// read from, in order of preference.
type QuoteField struct {
	Name    string
	sources []fieldSource
}

func field(name string, pairs ...string) QuoteField {
	f := QuoteField{Name: name}
	for i := 0; i+1 < len(pairs); i += 2 {
		f.sources = append(f.sources, fieldSource{module: pairs[i], key: pairs[i+1]})
	}
	return f
}

// QuoteFields is the fixed metric set of every QuoteSnapshot.
var QuoteFields = []QuoteField{
	field("CurrentPrice", "price", "regularMarketPrice", "financialData", "currentPrice"),
	field("PreviousClose", "summaryDetail", "previousClose", "price", "regularMarketPreviousClose"),
	field("Open", "summaryDetail", "open", "price", "regularMarketOpen"),
	field("DayHigh", "summaryDetail", "dayHigh", "price", "regularMarketDayHigh"),
	field("DayLow", "summaryDetail", "dayLow", "price", "regularMarketDayLow"),
	field("Volume", "summaryDetail", "volume", "price", "regularMarketVolume"),
	field("AverageVolume", "summaryDetail", "averageVolume"),
	field("MarketCap", "summaryDetail", "marketCap", "price", "marketCap"),
	field("TrailingPE", "summaryDetail", "trailingPE"),
	field("ForwardPE", "summaryDetail", "forwardPE", "defaultKeyStatistics", "forwardPE"),
	field("PriceToBook", "defaultKeyStatistics", "priceToBook"),
	field("EnterpriseValue", "defaultKeyStatistics", "enterpriseValue"),
	field("Beta", "summaryDetail", "beta", "defaultKeyStatistics", "beta"),
	field("FiftyTwoWeekHigh", "summaryDetail", "fiftyTwoWeekHigh"),
	field("FiftyTwoWeekLow", "summaryDetail", "fiftyTwoWeekLow"),
	field("DividendYield", "summaryDetail", "dividendYield"),
	field("SharesOutstanding", "defaultKeyStatistics", "sharesOutstanding"),
	field("FloatShares", "defaultKeyStatistics", "floatShares"),
	field("SharesShort", "defaultKeyStatistics", "sharesShort"),
	field("ShortRatio", "defaultKeyStatistics", "shortRatio"),
	field("ShortPercentOfFloat", "defaultKeyStatistics", "shortPercentOfFloat"),
	field("SharesShortPriorMonth", "defaultKeyStatistics", "sharesShortPriorMonth"),
}

// QuoteFieldNames returns the names of QuoteFields in order.
func QuoteFieldNames() []string {
	names := make([]string, len(QuoteFields))
	for i, f := range QuoteFields {
		names[i] = f.Name
	}
	return names
}

// QuoteResult is a quote snapshot with the instrument display name and currency.
type QuoteResult struct {
	Snapshot models.QuoteSnapshot
	Name     string
	Currency string
}

// Quote fetches the quoteSummary for yfTicker and builds the snapshot.
func (p *Provider) Quote(ctx context.Context, yfTicker string) (*QuoteResult, error) {
	const op = "yfinance quote"

	payload, err := p.Get(ctx, op, p.quoteURL(yfTicker))
	if err != nil {
		return nil, notFoundOn404(op, err)
	}

	var resp yfQuoteSummaryResponse
	if err := payload.Decode(&resp); err != nil {
		return nil, &provider.Error{Kind: provider.KindParse, Op: op, Err: fmt.Errorf("parse JSON: %w", err)}
	}
	if e := resp.QuoteSummary.Error; e != nil {
		return nil, classifyYahooError(op, e)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, provider.Errorf(provider.KindNoData, op, "no quote for %s", yfTicker)
	}

	modules := resp.QuoteSummary.Result[0]
	return &QuoteResult{
		Snapshot: BuildSnapshot(modules),
		Name:     lookupString(modules, "price", "longName", "shortName"),
		Currency: lookupString(modules, "price", "currency"),
	}, nil
}

// BuildSnapshot reads every QuoteFields entry from a quoteSummary result.
// Fields absent from every source are present with the N/A sentinel.
func BuildSnapshot(modules map[string]map[string]json.RawMessage) models.QuoteSnapshot {
	snap := make(models.QuoteSnapshot, len(QuoteFields))
	for _, f := range QuoteFields {
		snap[f.Name] = models.Unavailable
		for _, src := range f.sources {
			if v, ok := lookupNumber(modules[src.module][src.key]); ok {
				snap[f.Name] = models.Value(v)
				break
			}
		}
	}
	return snap
}

// lookupNumber accepts a bare number or a {"raw": n} wrapper.
func lookupNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var fv yfFinVal
	if err := json.Unmarshal(raw, &fv); err == nil && fv.Raw != nil {
		return *fv.Raw, true
	}
	return 0, false
}

func lookupString(modules map[string]map[string]json.RawMessage, module string, keys ...string) string {
	for _, k := range keys {
		var s string
		if err := json.Unmarshal(modules[module][k], &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}
