package provider

import (
	"context"
	"time"

	"github.com/seenimoa/finny/internal/infra"
)

// RetryPolicy is the per-provider retry budget handed to the fetcher.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// BaseProvider provides common functionality for provider implementations.
// Embed this in concrete providers to simplify implementation.
type BaseProvider struct {
	info    ProviderInfo
	fetcher *infra.Fetcher
	retry   RetryPolicy
	headers map[string]string
}

// NewBaseProvider creates a base provider. A nil fetcher gets a default one.
func NewBaseProvider(info ProviderInfo, fetcher *infra.Fetcher, retry RetryPolicy, headers map[string]string) BaseProvider {
	if fetcher == nil {
		fetcher = infra.NewFetcher()
	}
	return BaseProvider{
		info:    info,
		fetcher: fetcher,
		retry:   retry,
		headers: headers,
	}
}

func (bp *BaseProvider) Info() ProviderInfo { return bp.info }

func (bp *BaseProvider) Ping(ctx context.Context) error {
	return nil // Override in concrete providers.
}

// Get fetches url with the provider's headers and default retry policy and
// classifies any failure under op.
func (bp *BaseProvider) Get(ctx context.Context, op, url string) (*infra.Payload, error) {
	return bp.GetWith(ctx, op, url, bp.retry)
}

// GetWith is Get with an explicit retry policy.
func (bp *BaseProvider) GetWith(ctx context.Context, op, url string, retry RetryPolicy) (*infra.Payload, error) {
	p, err := bp.fetcher.Fetch(ctx, infra.Request{
		URL:        url,
		Headers:    bp.headers,
		MaxRetries: retry.MaxRetries,
		RetryDelay: retry.Delay,
	})
	if err != nil {
		return nil, Wrap(op, err)
	}
	return p, nil
}
