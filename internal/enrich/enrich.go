// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich attaches code repositories from Papers with Code to
// candidates discovered without them. It implements discovery.Enricher.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-digest/internal/dedup"
	"github.com/pdiddy/paper-digest/internal/paperswithcode"
	"github.com/pdiddy/paper-digest/internal/scoring"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const (
	// DefaultBatchSize is how many candidates are looked up concurrently.
	DefaultBatchSize = 10

	// TitleMatchThreshold is the Jaccard similarity a search result's title
	// needs to be accepted as the same paper.
	TitleMatchThreshold = 0.7

	minSearchTitle = 10
	maxSearchTitle = 100
	searchResults  = 5
)

// searchNoise is removed from titles before a free-text search.
var searchNoise = map[string]bool{
	"via": true, "using": true, "with": true, "for": true, "on": true,
	"in": true, "a": true, "an": true, "the": true,
}

// Enricher looks candidates up on Papers with Code, by arXiv identifier
// first and by title otherwise, and attaches the repositories it finds.
type Enricher struct {
	API       *paperswithcode.Client
	BatchSize int
	Logger    zerolog.Logger

	// Now is the reference time for rescoring. Nil means time.Now.
	Now func() time.Time
}

// New returns an Enricher with the default batch size.
func New(api *paperswithcode.Client, logger zerolog.Logger) *Enricher {
	return &Enricher{API: api, BatchSize: DefaultBatchSize, Logger: logger}
}

// Enrich returns a slice of the same length and order as candidates.
// Candidates that cannot be matched or whose lookup fails come back
// unchanged. Enrich fails only when ctx is done.
func (e *Enricher) Enrich(ctx context.Context, candidates []types.Candidate) ([]types.Candidate, error) {
	out := make([]types.Candidate, len(candidates))
	copy(out, candidates)

	size := e.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	now := e.now()

	var enriched, failed int
	for start := 0; start < len(out); start += size {
		end := min(start+size, len(out))

		results := make([]outcome, end-start)
		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				c, ok, err := e.enrichOne(ctx, out[i], now)
				results[i-start] = outcome{c, ok, err}
				return nil
			})
		}
		g.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j, r := range results {
			switch {
			case r.err != nil:
				failed++
				e.Logger.Debug().Err(r.err).Str("title", out[start+j].Title).Msg("enrichment lookup failed")
			case r.ok:
				enriched++
				out[start+j] = r.candidate
			}
		}
	}

	e.Logger.Info().Int("candidates", len(out)).Int("enriched", enriched).Int("failed", failed).Msg("enrichment complete")
	return out, nil
}

type outcome struct {
	candidate types.Candidate
	ok        bool
	err       error
}

// enrichOne reports false when nothing was found to attach. Candidates
// that already carry a repository are left alone.
func (e *Enricher) enrichOne(ctx context.Context, c types.Candidate, now time.Time) (types.Candidate, bool, error) {
	if c.PrimaryRepo != nil {
		return c, false, nil
	}
	paper, found, err := e.find(ctx, c)
	if err != nil || !found {
		return c, false, err
	}

	repos, err := e.API.Repositories(ctx, paper.ID)
	if errors.Is(err, paperswithcode.ErrNotFound) {
		return c, false, nil
	}
	if err != nil {
		return c, false, fmt.Errorf("repositories of %s: %w", paper.ID, err)
	}
	if len(repos) == 0 {
		return c, false, nil
	}

	return withRepositories(c, repos, now), true, nil
}

// find locates c on Papers with Code.
func (e *Enricher) find(ctx context.Context, c types.Candidate) (paperswithcode.Paper, bool, error) {
	if c.ArxivID != "" {
		p, err := e.API.PaperByArxivID(ctx, c.ArxivID)
		switch {
		case err == nil:
			return p, true, nil
		case !errors.Is(err, paperswithcode.ErrNotFound):
			return paperswithcode.Paper{}, false, err
		}
	}

	if len(c.Title) < minSearchTitle {
		return paperswithcode.Paper{}, false, nil
	}
	results, err := e.API.SearchTitle(ctx, SearchQuery(c.Title))
	if errors.Is(err, paperswithcode.ErrNotFound) {
		return paperswithcode.Paper{}, false, nil
	}
	if err != nil {
		return paperswithcode.Paper{}, false, err
	}
	for _, p := range results[:min(len(results), searchResults)] {
		if dedup.Jaccard(c.Title, p.Title) >= TitleMatchThreshold {
			return p, true, nil
		}
	}
	return paperswithcode.Paper{}, false, nil
}

// withRepositories returns a copy of c whose primary repository is the
// most starred of repos and whose engagement reflects it.
func withRepositories(c types.Candidate, repos []paperswithcode.Repository, now time.Time) types.Candidate {
	converted := make([]types.Repository, len(repos))
	for i, r := range repos {
		converted[i] = r.ToRepository()
	}
	sort.SliceStable(converted, func(i, j int) bool { return converted[i].Stars > converted[j].Stars })

	out := c.Clone()
	primary := converted[0]
	out.PrimaryRepo = &primary
	out.ExtraRepos = converted[1:]
	out.Engagement.Stars = primary.Stars
	out.Engagement.Forks = primary.Forks
	out.Reasons = scoring.AddReason(out.Reasons, types.ReasonGitHubActivity)
	out.Score = scoring.Overall(out, now)
	return out
}

// SearchQuery strips connective words from a title and bounds its length
// for the free-text search endpoint.
func SearchQuery(title string) string {
	var kept []string
	for _, w := range strings.Fields(title) {
		if !searchNoise[strings.ToLower(w)] {
			kept = append(kept, w)
		}
	}
	q := []rune(strings.Join(kept, " "))
	if len(q) > maxSearchTitle {
		q = q[:maxSearchTitle]
	}
	return strings.TrimSpace(string(q))
}

func (e *Enricher) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now()
}
