// Package providers builds the concrete data providers from configuration
// and registers them with a provider registry.
package providers

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/seenimoa/finny/internal/config"
	"github.com/seenimoa/finny/internal/infra"
	"github.com/seenimoa/finny/internal/provider"
	"github.com/seenimoa/finny/internal/providers/sec"
	"github.com/seenimoa/finny/internal/providers/yfinance"
)

// Set holds one instance of every provider.
type Set struct {
	SEC   *sec.Provider
	Yahoo *yfinance.Provider
}

// New builds every provider from cfg. The providers share the HTTP and
// logging settings but each keeps its own retry policy.
func New(cfg *config.Config) (*Set, error) {
	secCfg, err := SECConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts := FetcherOptions(cfg)
	return &Set{
		SEC:   sec.New(secCfg, opts...),
		Yahoo: yfinance.New(YahooConfig(cfg), opts...),
	}, nil
}

// RegisterAllTo registers every provider of the set to the given registry.
func (s *Set) RegisterAllTo(reg *provider.Registry) error {
	for _, p := range []provider.Provider{s.SEC, s.Yahoo} {
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// SECConfig translates the sec section of cfg.
func SECConfig(cfg *config.Config) (sec.Config, error) {
	src, err := sec.ParseFilingsSource(cfg.SEC.FilingsSource)
	if err != nil {
		return sec.Config{}, err
	}
	return sec.Config{
		UserAgent:        cfg.SEC.UserAgent,
		Host:             cfg.SEC.Host,
		DataHost:         cfg.SEC.DataHost,
		DirectoryURL:     cfg.SEC.DirectoryURL,
		FallbackPath:     cfg.SEC.FallbackPath,
		DirectoryRetries: cfg.SEC.DirectoryRetries,
		DirectoryDelay:   cfg.SEC.DirectoryDelay,
		DirectoryTTL:     cfg.SEC.DirectoryTTL,
		MaxRetries:       cfg.SEC.MaxRetries,
		RetryDelay:       cfg.SEC.RetryDelay,
		Source:           src,
		Count:            cfg.SEC.Count,
		RPS:              cfg.SEC.RateLimit,
	}, nil
}

// YahooConfig translates the yahoo section of cfg.
func YahooConfig(cfg *config.Config) yfinance.Config {
	return yfinance.Config{
		BaseURL:            cfg.Yahoo.BaseURL,
		UserAgent:          cfg.Yahoo.UserAgent,
		Interval:           cfg.Yahoo.Interval,
		MaxRetries:         cfg.Yahoo.MaxRetries,
		RetryDelay:         cfg.Yahoo.RetryDelay,
		HistoryConcurrency: cfg.Yahoo.HistoryConcurrency,
	}
}

// FetcherOptions translates the shared HTTP and logging settings into
// fetcher options.
func FetcherOptions(cfg *config.Config) []infra.Option {
	var opts []infra.Option
	if cfg.HTTP.Timeout > 0 {
		opts = append(opts, infra.WithHTTPClient(&http.Client{Timeout: cfg.HTTP.Timeout}))
	}
	if strings.EqualFold(cfg.HTTP.Backoff, "exponential") {
		opts = append(opts, infra.WithBackoff(infra.ExponentialBackoff(cfg.HTTP.MaxBackoff)))
	}
	if !cfg.Logging.Verbose() {
		opts = append(opts, infra.WithLogger(log.New(io.Discard, "", 0)))
	}
	return opts
}
