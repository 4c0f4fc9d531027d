// Package provider defines the provider contract — metadata plus an
// ordered list of fetch strategies — and a couple of illustrative
// strategy adapters. The wire format of any given provider's API is
// explicitly outside the core; these adapters exist to demonstrate the
// Strategy contract in action, not to be an exhaustive provider catalog.
package provider

import (
	"context"

	"github.com/sawpanic/vibeusage/internal/models"
	"github.com/sawpanic/vibeusage/internal/strategy"
)

// Metadata describes a provider for display and status purposes.
type Metadata struct {
	ID            string
	Name          string
	Description   string
	Homepage      string
	StatusURL     string
	DashboardURL  string
}

// Provider is the top-level contract: its identity, the strategies to
// try (in order) to fetch usage, and how to check its operational
// status.
type Provider interface {
	Metadata() Metadata
	FetchStrategies() []strategy.Strategy
	FetchStatus(ctx context.Context) models.ProviderStatus
}

// Base embeds the common id/name accessors so concrete providers only
// need to implement FetchStrategies and, optionally, override
// FetchStatus.
type Base struct {
	Meta Metadata
}

func (b Base) Metadata() Metadata { return b.Meta }

// FetchStatus is the default: unknown. Providers with a real status
// page adapter override this.
func (b Base) FetchStatus(ctx context.Context) models.ProviderStatus {
	return models.UnknownStatus()
}
