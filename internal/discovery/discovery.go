// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery runs the trending-paper pipeline: it fans out to every
// enabled source, merges and deduplicates their candidates, optionally
// enriches them with code repositories, scores them against the user's
// interests and returns one ranked result with provenance statistics.
//
// A failing source never aborts a run. Its error is reported in the result
// and the remaining sources contribute as usual.
package discovery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// ErrNoSources is returned by Run when no source is both enabled and
// registered.
var ErrNoSources = errors.New("no discovery sources configured")

// Fetcher retrieves raw candidates from one source. Implementations set
// each candidate's intrinsic Score and Source before returning.
type Fetcher interface {
	Fetch(ctx context.Context, interests types.Interests, daysBack, maxResults int) ([]types.Candidate, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, interests types.Interests, daysBack, maxResults int) ([]types.Candidate, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, interests types.Interests, daysBack, maxResults int) ([]types.Candidate, error) {
	return f(ctx, interests, daysBack, maxResults)
}

// Enricher augments candidates with repository information. The returned
// slice has the same length and order as the input; an item that cannot
// be enriched is returned unchanged.
type Enricher interface {
	Enrich(ctx context.Context, candidates []types.Candidate) ([]types.Candidate, error)
}

// ConfigError reports every rule a DiscoveryConfig violates.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid discovery configuration: " + strings.Join(e.Problems, "; ")
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSource registers the fetcher serving the source called name. Only
// sources that are also enabled in the configuration are queried.
func WithSource(name string, f Fetcher) Option {
	return func(o *Orchestrator) {
		o.fetchers[name] = f
	}
}

// WithEnricher sets the enrichment collaborator.
func WithEnricher(e Enricher) Option {
	return func(o *Orchestrator) {
		o.enricher = e
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithClock overrides the reference time used for recency scoring.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(o *Orchestrator) {
		o.runID = id
	}
}
