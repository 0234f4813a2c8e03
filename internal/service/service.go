// Package service is the boundary callers use: it wires the SEC and Yahoo
// Finance providers from configuration and exposes one operation per use
// case, each returning normalized data or a classified *provider.Error.
package service

import (
	"context"
	"errors"

	"github.com/seenimoa/finny/internal/config"
	"github.com/seenimoa/finny/internal/provider"
	"github.com/seenimoa/finny/internal/providers"
	"github.com/seenimoa/finny/internal/providers/sec"
	"github.com/seenimoa/finny/internal/providers/yfinance"
	"github.com/seenimoa/finny/internal/summary"
	"github.com/seenimoa/finny/pkg/models"
)

// Service serves filings, filing documents, market data and summaries.
type Service struct {
	sec      *sec.Provider
	yahoo    *yfinance.Provider
	registry *provider.Registry
}

// New builds a service from configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	set, err := providers.New(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithProviders(set.SEC, set.Yahoo)
}

// NewWithProviders builds a service from already configured providers.
func NewWithProviders(s *sec.Provider, y *yfinance.Provider) (*Service, error) {
	reg := provider.NewRegistry()
	set := &providers.Set{SEC: s, Yahoo: y}
	if err := set.RegisterAllTo(reg); err != nil {
		return nil, err
	}
	return &Service{sec: s, yahoo: y, registry: reg}, nil
}

// GetFilings returns the filing list of ticker in upstream order.
func (s *Service) GetFilings(ctx context.Context, ticker string) (models.FilingList, error) {
	filings, err := s.sec.Filings(ctx, ticker)
	if err != nil {
		return nil, classify("filings", err)
	}
	return filings, nil
}

// GetFilingDocument returns the raw text of one filing document.
func (s *Service) GetFilingDocument(ctx context.Context, url string) (string, error) {
	doc, err := s.sec.Document(ctx, url)
	if err != nil {
		return "", classify("filing document", err)
	}
	return doc, nil
}

// GetFilingText returns the plain text of a filing document's <document>
// element, or a fixed message when it has none.
func (s *Service) GetFilingText(ctx context.Context, url string) (string, error) {
	text, err := s.sec.DocumentText(ctx, url)
	if err != nil {
		return "", classify("filing text", err)
	}
	return text, nil
}

// GetMarketData returns the quote snapshot and price history of ticker.
func (s *Service) GetMarketData(ctx context.Context, ticker string) (*models.MarketData, error) {
	md, err := s.yahoo.MarketData(ctx, ticker)
	if err != nil {
		return nil, classify("market data", err)
	}
	return md, nil
}

// GetFilingSummary fetches the filings of ticker and summarizes them.
func (s *Service) GetFilingSummary(ctx context.Context, ticker string) (models.FilingSummary, error) {
	filings, err := s.GetFilings(ctx, ticker)
	if err != nil {
		return models.FilingSummary{}, err
	}
	return summary.Summarize(filings), nil
}

// Providers lists the registered providers.
func (s *Service) Providers() []provider.ProviderInfo {
	return s.registry.List()
}

// Health pings every provider.
func (s *Service) Health(ctx context.Context) []provider.Health {
	return s.registry.PingAll(ctx)
}

// ProviderHealth pings the named provider.
func (s *Service) ProviderHealth(ctx context.Context, name string) (provider.Health, error) {
	h, err := s.registry.Ping(ctx, name)
	if err != nil {
		return provider.Health{}, &provider.Error{Kind: provider.KindNotFound, Op: "provider", Err: err}
	}
	return h, nil
}

// Coverage maps each model type the registered providers supply to the
// providers supplying it, in registration order.
func (s *Service) Coverage() map[provider.ModelType][]string {
	out := make(map[provider.ModelType][]string)
	for _, info := range s.registry.List() {
		for _, m := range info.Models {
			if _, done := out[m]; !done {
				out[m] = s.registry.ProvidersFor(m)
			}
		}
	}
	return out
}

// classify guarantees a *provider.Error crosses the boundary.
func classify(op string, err error) error {
	var perr *provider.Error
	if errors.As(err, &perr) {
		return err
	}
	return provider.Wrap(op, err)
}
