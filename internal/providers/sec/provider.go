// Package sec implements the SEC EDGAR data provider: ticker to CIK
// resolution against the company tickers directory (with an on-disk
// fallback snapshot), filing lists from the submissions API, the
// browse-edgar HTML table or its Atom feed, and raw filing documents.
//
// No API key required. Must include a User-Agent header per SEC policy.
// Docs: https://www.sec.gov/edgar/sec-api-documentation
// Rate limit: 10 requests/second per user-agent.
package sec

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/seenimoa/finny/internal/infra"
	"github.com/seenimoa/finny/internal/provider"
	"github.com/seenimoa/finny/pkg/models"
)

const (
	providerName = "sec"

	// SEC EDGAR endpoints.
	edgarHost         = "https://www.sec.gov"
	edgarDataHost     = "https://data.sec.gov"
	edgarDirectoryURL = "https://www.sec.gov/files/company_tickers.json"

	// SEC requires a User-Agent with company name, email for EDGAR requests.
	secUserAgent = "finny/1.0 (github.com/seenimoa/finny)"
)

// FilingsSource selects the upstream shape filings are read from.
type FilingsSource string

const (
	SourceSubmissions FilingsSource = "submissions" // data.sec.gov JSON parallel arrays
	SourceHTML        FilingsSource = "html"        // browse-edgar HTML table
	SourceAtom        FilingsSource = "atom"        // browse-edgar Atom feed
)

// ParseFilingsSource validates a configured source name.
func ParseFilingsSource(s string) (FilingsSource, error) {
	switch src := FilingsSource(strings.ToLower(strings.TrimSpace(s))); src {
	case "":
		return SourceSubmissions, nil
	case SourceSubmissions, SourceHTML, SourceAtom:
		return src, nil
	default:
		return "", fmt.Errorf("unknown filings source %q (want submissions, html or atom)", s)
	}
}

// Config holds SEC provider settings.
type Config struct {
	UserAgent string
	Host      string // links, browse-edgar and Archives
	DataHost  string // submissions API

	DirectoryURL     string
	FallbackPath     string
	DirectoryRetries int
	DirectoryDelay   time.Duration
	DirectoryTTL     time.Duration // 0 disables the per-process cache

	MaxRetries int
	RetryDelay time.Duration

	Source FilingsSource
	Count  int     // rows requested from browse-edgar
	RPS    float64 // requests per second; 0 disables limiting
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		UserAgent:        secUserAgent,
		Host:             edgarHost,
		DataHost:         edgarDataHost,
		DirectoryURL:     edgarDirectoryURL,
		FallbackPath:     "data/company_tickers.json",
		DirectoryRetries: 5,
		DirectoryDelay:   2 * time.Second,
		DirectoryTTL:     24 * time.Hour,
		MaxRetries:       3,
		RetryDelay:       2 * time.Second,
		Source:           SourceSubmissions,
		Count:            40,
		RPS:              10,
	}
}

// Provider implements provider.Provider for SEC EDGAR.
type Provider struct {
	provider.BaseProvider
	cfg      Config
	resolver *Resolver
}

// New creates a new SEC provider. Fetcher options (HTTP client, logger,
// backoff) are applied after the provider's own rate limiter.
func New(cfg Config, opts ...infra.Option) *Provider {
	def := DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.DataHost == "" {
		cfg.DataHost = def.DataHost
	}
	if cfg.DirectoryURL == "" {
		cfg.DirectoryURL = def.DirectoryURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Source == "" {
		cfg.Source = def.Source
	}
	if cfg.Count <= 0 {
		cfg.Count = def.Count
	}
	cfg.Host = strings.TrimRight(cfg.Host, "/")
	cfg.DataHost = strings.TrimRight(cfg.DataHost, "/")

	var fopts []infra.Option
	if cfg.RPS > 0 {
		fopts = append(fopts, infra.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RPS), 1)))
	}
	fopts = append(fopts, opts...)

	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			provider.ProviderInfo{
				Name:        providerName,
				Description: "SEC EDGAR - US Securities filings and company directory",
				Website:     "https://www.sec.gov/edgar",
				Models: []provider.ModelType{
					provider.ModelTickerDirectory,
					provider.ModelFilings,
					provider.ModelFilingDocument,
				},
			},
			infra.NewFetcher(fopts...),
			provider.RetryPolicy{MaxRetries: cfg.MaxRetries, Delay: cfg.RetryDelay},
			secHeaders(cfg.UserAgent),
		),
		cfg: cfg,
	}
	p.resolver = newResolver(&p.BaseProvider, cfg)
	return p
}

// Resolver returns the provider's ticker to CIK resolver.
func (p *Provider) Resolver() *Resolver { return p.resolver }

// Source returns the configured filings source.
func (p *Provider) Source() FilingsSource { return p.cfg.Source }

// Ping checks connectivity to SEC EDGAR.
func (p *Provider) Ping(ctx context.Context) error {
	u := p.submissionsURL("0000320193") // Apple
	if _, err := p.GetWith(ctx, "sec ping", u, provider.RetryPolicy{MaxRetries: 1}); err != nil {
		return err
	}
	return nil
}

// Filings resolves symbol to a CIK and returns its filing list from the
// configured source, in upstream order.
func (p *Provider) Filings(ctx context.Context, symbol string) (models.FilingList, error) {
	return p.FilingsFrom(ctx, symbol, p.cfg.Source)
}

// FilingsFrom is Filings with an explicit source.
func (p *Provider) FilingsFrom(ctx context.Context, symbol string, src FilingsSource) (models.FilingList, error) {
	cik, err := p.resolver.Resolve(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var filings models.FilingList
	switch src {
	case SourceHTML:
		filings, err = p.htmlFilings(ctx, cik)
	case SourceAtom:
		filings, err = p.atomFilings(ctx, cik)
	default:
		filings, err = p.submissionFilings(ctx, cik)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("providers/sec: %s (CIK %s): %d filings from %s", symbol, cik, len(filings), src)
	return filings, nil
}

func (p *Provider) submissionFilings(ctx context.Context, cik string) (models.FilingList, error) {
	payload, err := p.Get(ctx, "sec submissions", p.submissionsURL(cik))
	if err != nil {
		return nil, err
	}
	var resp edgarSubmissionsResponse
	if err := payload.Decode(&resp); err != nil {
		return nil, &provider.Error{Kind: provider.KindParse, Op: "sec submissions", Err: fmt.Errorf("parse SEC JSON: %w", err)}
	}
	return NormalizeSubmissions(resp.Filings.Recent, cik, p.cfg.Host)
}

func (p *Provider) htmlFilings(ctx context.Context, cik string) (models.FilingList, error) {
	payload, err := p.Get(ctx, "sec browse", p.browseURL(cik, false))
	if err != nil {
		return nil, err
	}
	return ParseFilingsHTML(payload.Body, p.cfg.Host)
}

func (p *Provider) atomFilings(ctx context.Context, cik string) (models.FilingList, error) {
	payload, err := p.Get(ctx, "sec atom", p.browseURL(cik, true))
	if err != nil {
		return nil, err
	}
	return ParseFilingsFeed(payload.Text())
}

// --- URL builders ---

func (p *Provider) submissionsURL(cik string) string {
	return fmt.Sprintf("%s/submissions/CIK%s.json", p.cfg.DataHost, cik)
}

func (p *Provider) browseURL(cik string, atom bool) string {
	q := url.Values{}
	q.Set("action", "getcompany")
	q.Set("CIK", cik)
	q.Set("owner", "exclude")
	q.Set("count", fmt.Sprint(p.cfg.Count))
	if atom {
		q.Set("output", "atom")
	}
	return p.cfg.Host + "/cgi-bin/browse-edgar?" + q.Encode()
}

// --- Shared helpers ---

func secHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent": userAgent,
		"Accept":     "application/json, application/atom+xml, text/html",
	}
}
