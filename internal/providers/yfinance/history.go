package yfinance

import (
	"context"
	"fmt"
	"time"

	"github.com/seenimoa/finny/internal/provider"
	"github.com/seenimoa/finny/pkg/models"
	"github.com/seenimoa/finny/pkg/utils"
)

// WindowResult is the normalized history of one lookback window.
type WindowResult struct {
	Series   models.WindowHistory
	Timezone string
	Currency string
}

// History fetches one lookback window and returns its four component
// series keyed by exchange-local timestamps.
func (p *Provider) History(ctx context.Context, yfTicker string, w models.Window) (WindowResult, error) {
	op := "yfinance history " + string(w)

	payload, err := p.Get(ctx, op, p.chartURL(yfTicker, w))
	if err != nil {
		return WindowResult{}, notFoundOn404(op, err)
	}

	var resp yfChartResponse
	if err := payload.Decode(&resp); err != nil {
		return WindowResult{}, &provider.Error{Kind: provider.KindParse, Op: op, Err: fmt.Errorf("parse JSON: %w", err)}
	}
	if e := resp.Chart.Error; e != nil {
		return WindowResult{}, classifyYahooError(op, e)
	}
	if len(resp.Chart.Result) == 0 {
		return WindowResult{}, provider.Errorf(provider.KindNoData, op, "no chart for %s", yfTicker)
	}

	result := resp.Chart.Result[0]
	return WindowResult{
		Series:   parseSeries(result),
		Timezone: utils.LoadLocation(result.Meta.ExchangeTimezoneName).String(),
		Currency: result.Meta.Currency,
	}, nil
}

// parseSeries converts a chart result into open/high/low/close series. All
// four go through the same timestamp formatting in the exchange time zone;
// null points are skipped.
func parseSeries(result yfChartResult) models.WindowHistory {
	loc := utils.LoadLocation(result.Meta.ExchangeTimezoneName)

	var q yfOHLC
	if len(result.Indicators.Quote) > 0 {
		q = result.Indicators.Quote[0]
	}
	raw := map[models.Component][]*float64{
		models.ComponentOpen:  q.Open,
		models.ComponentHigh:  q.High,
		models.ComponentLow:   q.Low,
		models.ComponentClose: q.Close,
	}

	history := make(models.WindowHistory, len(models.Components))
	for _, c := range models.Components {
		history[c] = formatSeries(result.Timestamp, raw[c], loc)
	}
	return history
}

func formatSeries(timestamps []int64, values []*float64, loc *time.Location) models.PriceSeries {
	series := make(models.PriceSeries, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(values) || values[i] == nil {
			continue
		}
		series[utils.FormatUnix(ts, loc)] = *values[i]
	}
	return series
}
