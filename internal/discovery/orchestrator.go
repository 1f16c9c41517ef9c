// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-digest/internal/dedup"
	"github.com/pdiddy/paper-digest/internal/interest"
	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/internal/scoring"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Orchestrator runs discovery for one configuration and one set of
// interests. It holds no state between runs.
type Orchestrator struct {
	cfg       types.DiscoveryConfig
	interests types.Interests

	fetchers map[string]Fetcher
	enricher Enricher
	logger   zerolog.Logger
	metrics  *observability.Metrics
	now      func() time.Time
	runID    string
}

// New returns an Orchestrator. Configuration problems surface from Run.
func New(cfg types.DiscoveryConfig, interests types.Interests, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		interests: interests,
		fetchers:  make(map[string]Fetcher),
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// sourceRun is the outcome of one source fetch.
type sourceRun struct {
	name       string
	candidates []types.Candidate
	err        error
}

// Run executes one discovery pass. It returns an error only for an invalid
// configuration or when no source can be queried; source and enrichment
// failures are reported in the result's Errors.
func (o *Orchestrator) Run(ctx context.Context) (types.DiscoveryResult, error) {
	if err := Validate(o.cfg); err != nil {
		return types.DiscoveryResult{}, err
	}
	deduper, err := dedup.New(o.cfg.Dedup.TitleThreshold, o.cfg.Dedup.CheckArxivIDs)
	if err != nil {
		return types.DiscoveryResult{}, &ConfigError{Problems: []string{err.Error()}}
	}
	sources := o.activeSources()
	if len(sources) == 0 {
		return types.DiscoveryResult{}, ErrNoSources
	}

	start := o.now()
	runID := o.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := observability.WithRunContext(o.logger, runID)
	log.Info().Int("sources", len(sources)).Int("days_back", o.cfg.DaysBack).Msg("discovery started")

	result := types.DiscoveryResult{
		RunID:       runID,
		StartedAt:   start,
		SourceStats: make(map[string]int, len(sources)),
	}

	runs := o.fetchAll(ctx, sources, log)

	var all []types.Candidate
	for _, r := range runs {
		result.SourceStats[r.name] = len(r.candidates)
		if r.err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s error: %v", r.name, r.err))
			continue
		}
		all = append(all, r.candidates...)
	}
	result.TotalDiscovered = len(all)

	unique := deduper.Deduplicate(all)
	result.TotalAfterDedup = len(unique)
	log.Info().
		Int("discovered", result.TotalDiscovered).
		Int("unique", result.TotalAfterDedup).
		Msg("candidates deduplicated")

	if o.cfg.Enrich && o.enricher != nil && len(unique) > 0 {
		enriched, err := o.enrich(ctx, unique)
		if err != nil {
			log.Warn().Err(err).Msg("enrichment failed, keeping candidates as discovered")
			result.Errors = append(result.Errors, fmt.Sprintf("enrichment error: %v", err))
			o.metrics.RecordEnrichmentFailure()
		} else {
			unique = enriched
		}
	}

	matcher := interest.NewMatcher(o.interests)
	var kept []types.Candidate
	for _, c := range unique {
		c = matcher.Apply(c)
		if scoring.Engagement(c.Engagement) < o.cfg.MinEngagement {
			continue
		}
		kept = append(kept, c)
	}
	result.TotalAfterFilter = len(kept)

	now := o.now()
	for i := range kept {
		kept[i].Score = scoring.Blend(kept[i], o.cfg.Weights, now)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if len(kept) > o.cfg.MaxResults {
		kept = kept[:o.cfg.MaxResults]
	}
	if kept == nil {
		kept = []types.Candidate{}
	}
	result.Papers = kept
	result.Elapsed = o.now().Sub(start)
	result.ElapsedSeconds = result.Elapsed.Seconds()

	o.metrics.RecordStages(result.TotalDiscovered, result.TotalAfterDedup, result.TotalAfterFilter, len(result.Papers))
	o.metrics.RecordRun(result.Elapsed)
	log.Info().
		Int("filtered", result.TotalAfterFilter).
		Int("ranked", len(result.Papers)).
		Int("errors", len(result.Errors)).
		Dur("elapsed", result.Elapsed).
		Msg("discovery finished")

	return result, nil
}

// activeSources returns the enabled sources that have a registered
// fetcher, in configuration order. Enabled sources without a fetcher are
// skipped.
func (o *Orchestrator) activeSources() []types.SourceConfig {
	var out []types.SourceConfig
	for _, s := range o.cfg.EnabledSources() {
		if _, ok := o.fetchers[s.Name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// fetchAll queries every source concurrently. Each goroutine writes only
// its own slot of the returned slice, and none returns an error, so one
// failing source never cancels another.
func (o *Orchestrator) fetchAll(ctx context.Context, sources []types.SourceConfig, log zerolog.Logger) []sourceRun {
	runs := make([]sourceRun, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			runs[i] = o.fetchOne(ctx, src, log)
			return nil
		})
	}
	_ = g.Wait()
	return runs
}

func (o *Orchestrator) fetchOne(ctx context.Context, src types.SourceConfig, log zerolog.Logger) (run sourceRun) {
	run.name = src.Name
	log = observability.WithSourceContext(log, src.Name)
	days := windowFor(src, o.cfg.DaysBack)
	limit := capFor(src, o.cfg.MaxPerSource)
	started := time.Now()

	defer func() {
		if p := recover(); p != nil {
			run.candidates = nil
			run.err = fmt.Errorf("panic: %v", p)
		}
		if run.err != nil {
			run.candidates = nil
			log.Warn().Err(run.err).Msg("source failed")
		} else {
			log.Info().Int("count", len(run.candidates)).Int("days_back", days).Msg("source fetched")
		}
		o.metrics.RecordSourceFetch(src.Name, len(run.candidates), time.Since(started), run.err)
	}()

	cands, err := o.fetchers[src.Name].Fetch(ctx, o.interests, days, limit)
	if err != nil {
		run.err = err
		return run
	}
	run.candidates = make([]types.Candidate, len(cands))
	for i, c := range cands {
		if c.Source == "" {
			c.Source = src.Name
		}
		run.candidates[i] = c
	}
	return run
}

// enrich runs the enricher and checks its contract.
func (o *Orchestrator) enrich(ctx context.Context, in []types.Candidate) (out []types.Candidate, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()
	out, err = o.enricher.Enrich(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(out) != len(in) {
		return nil, fmt.Errorf("enricher returned %d candidates for %d inputs", len(out), len(in))
	}
	return out, nil
}
