// Package indexerclient defines the indexer capability contract
// and wraps concrete implementations in the resilience pipeline. Only the
// contract and a Prowlarr-shaped adapter are provided; other indexer
// backends are out of scope.
package indexerclient

import (
	"context"
	"time"

	"github.com/kasuboski/reelwatch/pkg/domain"
)

// SearchCriteria describes a release search against one indexer.
type SearchCriteria struct {
	Query      string
	Categories []int
	TMDBID     *int64
}

// HealthStatus reports whether an indexer is currently usable.
type HealthStatus struct {
	Healthy bool
	Detail  string
}

// Capabilities describes what an indexer backend supports.
type Capabilities struct {
	Categories     []int
	SupportsRSS    bool
	SupportsSearch bool
}

// RateLimits describes an indexer's advertised or configured request budget.
type RateLimits struct {
	RequestsPerSecond float64
	Burst             int
}

// Client is the capability contract every indexer backend satisfies
// Implementations are responsible for translating their
// wire format into domain.Release.
type Client interface {
	Search(ctx context.Context, criteria SearchCriteria) ([]domain.Release, error)
	HealthCheck(ctx context.Context) (HealthStatus, error)
	Capabilities(ctx context.Context) (Capabilities, error)
	RateLimits() RateLimits
}

// Factory builds a named Client from configuration, generalized past a
// single implementation string.
type Factory interface {
	NewClient(cfg Config) (Client, error)
}

// Config is backend-agnostic indexer configuration. Only the Prowlarr
// implementation is built here; the Implementation field exists so
// additional backends can be registered without changing this contract.
type Config struct {
	Implementation string
	Name           string
	Scheme         string
	Host           string
	Port           int
	APIKey         string
	Enabled        bool
	RatePerSecond  float64
	Burst          int
	RequestTimeout time.Duration
}
