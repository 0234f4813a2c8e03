// Package yfinance implements the Yahoo Finance data provider.
// It wraps the v10 quoteSummary and v8 chart APIs into one normalized
// market data result: a fixed-field quote snapshot plus open/high/low/close
// series for every lookback window.
//
// Yahoo Finance is a free, no-API-key provider.
package yfinance

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/finny/internal/infra"
	"github.com/seenimoa/finny/internal/provider"
	"github.com/seenimoa/finny/pkg/models"
	"github.com/seenimoa/finny/pkg/utils"
)

const (
	providerName    = "yfinance"
	yfBaseURL       = "https://query1.finance.yahoo.com"
	yfUserAgent     = "Mozilla/5.0"
	quoteModules    = "summaryDetail,price,defaultKeyStatistics,financialData"
	defaultInterval = "1d"
)

// Config holds Yahoo Finance provider settings.
type Config struct {
	BaseURL    string
	UserAgent  string
	Interval   string
	MaxRetries int
	RetryDelay time.Duration

	// HistoryConcurrency bounds parallel chart calls. 1 (the default)
	// fetches the windows one after another.
	HistoryConcurrency int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseURL:            yfBaseURL,
		UserAgent:          yfUserAgent,
		Interval:           defaultInterval,
		MaxRetries:         3,
		RetryDelay:         2 * time.Second,
		HistoryConcurrency: 1,
	}
}

// Provider implements provider.Provider for Yahoo Finance.
type Provider struct {
	provider.BaseProvider
	cfg Config
}

// New creates a new YFinance provider.
func New(cfg Config, opts ...infra.Option) *Provider {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Interval == "" {
		cfg.Interval = def.Interval
	}
	if cfg.HistoryConcurrency < 1 {
		cfg.HistoryConcurrency = 1
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Provider{
		BaseProvider: provider.NewBaseProvider(
			provider.ProviderInfo{
				Name:        providerName,
				Description: "Yahoo Finance - free global quotes, fundamentals and price history",
				Website:     "https://finance.yahoo.com",
				Models: []provider.ModelType{
					provider.ModelQuoteSnapshot,
					provider.ModelPriceHistory,
				},
			},
			infra.NewFetcher(opts...),
			provider.RetryPolicy{MaxRetries: cfg.MaxRetries, Delay: cfg.RetryDelay},
			jsonHeaders(cfg.UserAgent),
		),
		cfg: cfg,
	}
}

// Ping checks connectivity to Yahoo Finance.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := p.GetWith(ctx, "yfinance ping", p.chartURL("AAPL", models.Window5Day), provider.RetryPolicy{MaxRetries: 1})
	return err
}

// MarketData returns the quote snapshot and every window's price history
// for symbol. Any failure fails the whole call; no partial result is
// returned.
func (p *Provider) MarketData(ctx context.Context, symbol string) (*models.MarketData, error) {
	sym := utils.NormalizeTicker(symbol)
	if sym == "" {
		return nil, provider.Errorf(provider.KindBadInput, "yfinance quote", "empty ticker")
	}
	yfTicker := utils.ToYFinanceTicker(sym)

	quote, err := p.Quote(ctx, yfTicker)
	if err != nil {
		return nil, err
	}

	windows, err := p.historyAll(ctx, yfTicker)
	if err != nil {
		return nil, err
	}

	md := &models.MarketData{
		Symbol:   sym,
		Name:     quote.Name,
		Currency: quote.Currency,
		Quote:    quote.Snapshot,
		History:  make(map[models.Window]models.WindowHistory, len(windows)),
		Timezone: time.UTC.String(),
	}
	for i, w := range models.Windows {
		md.History[w] = windows[i].Series
		if i == 0 && windows[i].Timezone != "" {
			md.Timezone = windows[i].Timezone
		}
	}
	if md.Currency == "" && len(windows) > 0 {
		md.Currency = windows[0].Currency
	}

	log.Printf("providers/yfinance: %s: %d quote fields, %d windows", sym, len(md.Quote), len(md.History))
	return md, nil
}

// historyAll fetches every window, serially unless HistoryConcurrency > 1.
// Results are indexed by position in models.Windows.
func (p *Provider) historyAll(ctx context.Context, yfTicker string) ([]WindowResult, error) {
	results := make([]WindowResult, len(models.Windows))

	if p.cfg.HistoryConcurrency <= 1 {
		for i, w := range models.Windows {
			r, err := p.History(ctx, yfTicker, w)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.HistoryConcurrency)
	for i, w := range models.Windows {
		g.Go(func() error {
			r, err := p.History(gctx, yfTicker, w)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// --- URL builders ---

func (p *Provider) quoteURL(yfTicker string) string {
	return fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		p.cfg.BaseURL, url.PathEscape(yfTicker), quoteModules)
}

func (p *Provider) chartURL(yfTicker string, w models.Window) string {
	return fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		p.cfg.BaseURL, url.PathEscape(yfTicker), w, p.cfg.Interval)
}

// --- Shared helpers ---

func jsonHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent": userAgent,
		"Accept":     "application/json",
	}
}

// classifyYahooError maps an upstream error body to a provider error.
func classifyYahooError(op string, e *yfError) error {
	kind := provider.KindProtocol
	if strings.EqualFold(e.Code, "Not Found") {
		kind = provider.KindNotFound
	}
	return &provider.Error{Kind: kind, Op: op, Err: e}
}

// notFoundOn404 reclassifies an exhausted 404 as an unknown symbol.
func notFoundOn404(op string, err error) error {
	if provider.UpstreamStatus(err) == 404 {
		return &provider.Error{Kind: provider.KindNotFound, Op: op, Status: 404, Err: err}
	}
	return err
}
