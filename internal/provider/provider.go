// Package provider defines the upstream data provider abstraction shared by
// the SEC and Yahoo Finance providers: provider metadata, a registry used for
// health checks, a base implementation wrapping the resilient fetcher, and
// the error taxonomy every core operation reports through.
package provider

import (
	"context"
	"fmt"
)

// ModelType names a kind of data a provider can produce.
type ModelType string

const (
	ModelTickerDirectory ModelType = "TickerDirectory"
	ModelFilings         ModelType = "Filings"
	ModelFilingDocument  ModelType = "FilingDocument"
	ModelQuoteSnapshot   ModelType = "QuoteSnapshot"
	ModelPriceHistory    ModelType = "PriceHistory"
)

// ProviderInfo holds metadata about a registered provider.
type ProviderInfo struct {
	Name        string      `json:"name"`        // e.g., "sec", "yfinance"
	Description string      `json:"description"` // human-readable description
	Website     string      `json:"website"`
	Models      []ModelType `json:"models"`
}

// Provider is the interface that all data providers implement.
type Provider interface {
	// Info returns metadata about this provider.
	Info() ProviderInfo

	// Ping verifies the provider's upstream is reachable.
	Ping(ctx context.Context) error
}

// ErrProviderNotFound is returned when a requested provider is not registered.
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("provider %q not found", e.Name)
}
