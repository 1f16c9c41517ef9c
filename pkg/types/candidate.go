// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-digest pipeline:
// the candidate record every provider normalizes into, its engagement metrics
// and code repositories, the result of one discovery run, and the
// configuration read by the engine.
package types

import "time"

// TrendingReason is an enumerated tag explaining why a candidate surfaced.
type TrendingReason string

const (
	ReasonGitHubActivity    TrendingReason = "high_github_activity"
	ReasonCitationVelocity  TrendingReason = "citation_velocity"
	ReasonSocialBuzz        TrendingReason = "social_buzz"
	ReasonCodeQuality       TrendingReason = "code_quality"
	ReasonRecentPublication TrendingReason = "recent_publication"
	ReasonCommunityInterest TrendingReason = "community_interest"
)

// Repository is a code repository possibly associated with a paper.
// Enrichment replaces a candidate's repository wholesale; a Repository
// value is never updated in place once attached.
type Repository struct {
	// URL identifies the repository and is unique per repository.
	URL string `json:"url" yaml:"url"`

	// Name is the display name (e.g. "transformer-implementation").
	Name string `json:"name" yaml:"name"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Stars      int `json:"stars" yaml:"stars"`
	Forks      int `json:"forks" yaml:"forks"`
	OpenIssues int `json:"open_issues" yaml:"open_issues"`

	// LastCommit is the time of the most recent push, when known.
	LastCommit *time.Time `json:"last_commit,omitempty" yaml:"last_commit,omitempty"`

	Language string   `json:"language,omitempty" yaml:"language,omitempty"`
	Topics   []string `json:"topics,omitempty" yaml:"topics,omitempty"`

	HasDocumentation bool `json:"has_documentation" yaml:"has_documentation"`
	HasTests         bool `json:"has_tests" yaml:"has_tests"`
	HasExamples      bool `json:"has_examples" yaml:"has_examples"`

	// License is the license name; empty when the repository has none.
	License string `json:"license,omitempty" yaml:"license,omitempty"`
}

// EngagementMetrics describes how much attention a paper is receiving.
type EngagementMetrics struct {
	Stars  int `json:"stars" yaml:"stars"`
	Forks  int `json:"forks" yaml:"forks"`
	Issues int `json:"issues" yaml:"issues"`

	Citations int `json:"citations" yaml:"citations"`

	// CitationVelocity is citations per day since publication.
	CitationVelocity float64 `json:"citation_velocity" yaml:"citation_velocity"`

	Views          *int `json:"views,omitempty" yaml:"views,omitempty"`
	SocialMentions int  `json:"social_mentions" yaml:"social_mentions"`
	Downloads      *int `json:"downloads,omitempty" yaml:"downloads,omitempty"`

	DaysSincePublication int        `json:"days_since_publication" yaml:"days_since_publication"`
	LastActivity         *time.Time `json:"last_activity,omitempty" yaml:"last_activity,omitempty"`
}

// Candidate is a paper as seen by one discovery source. The engine scores,
// deduplicates and ranks candidates; providers create them.
type Candidate struct {
	// Title is always non-empty; providers drop records without one.
	Title string `json:"title" yaml:"title"`

	Abstract string   `json:"abstract" yaml:"abstract"`
	Authors  []string `json:"authors" yaml:"authors"`

	// ArxivID is the canonical arXiv identifier with the version suffix
	// stripped (e.g. "2301.07041"). It is the primary dedup key.
	ArxivID  string `json:"arxiv_id,omitempty" yaml:"arxiv_id,omitempty"`
	ArxivURL string `json:"arxiv_url,omitempty" yaml:"arxiv_url,omitempty"`
	PDFURL   string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	Published  *time.Time `json:"published,omitempty" yaml:"published,omitempty"`
	Categories []string   `json:"categories,omitempty" yaml:"categories,omitempty"`

	PrimaryRepo *Repository  `json:"primary_repo,omitempty" yaml:"primary_repo,omitempty"`
	ExtraRepos  []Repository `json:"extra_repos,omitempty" yaml:"extra_repos,omitempty"`

	Engagement EngagementMetrics `json:"engagement" yaml:"engagement"`

	// Score is the ranking score. Providers set the intrinsic score at
	// conversion; the orchestrator overwrites it with the final blend.
	Score float64 `json:"score" yaml:"score"`

	Reasons []TrendingReason `json:"trending_reasons,omitempty" yaml:"trending_reasons,omitempty"`

	// Source is the discovery provenance (e.g. "arxiv", "github_trending").
	Source string `json:"source" yaml:"source"`

	// Summary is an optional generated TL;DR.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// InterestScore is the interest match in [0,1].
	InterestScore    float64  `json:"interest_score" yaml:"interest_score"`
	MatchedInterests []string `json:"matched_interests,omitempty" yaml:"matched_interests,omitempty"`
}

// Repositories returns the primary repository followed by the additional ones.
func (c Candidate) Repositories() []Repository {
	var repos []Repository
	if c.PrimaryRepo != nil {
		repos = append(repos, *c.PrimaryRepo)
	}
	return append(repos, c.ExtraRepos...)
}

// HasReason reports whether r is among the candidate's trending reasons.
func (c Candidate) HasReason(r TrendingReason) bool {
	for _, have := range c.Reasons {
		if have == r {
			return true
		}
	}
	return false
}

// Clone returns a copy of c that shares no slices or pointers with it.
func (c Candidate) Clone() Candidate {
	out := c
	out.Authors = append([]string(nil), c.Authors...)
	out.Categories = append([]string(nil), c.Categories...)
	out.Reasons = append([]TrendingReason(nil), c.Reasons...)
	out.MatchedInterests = append([]string(nil), c.MatchedInterests...)
	out.ExtraRepos = append([]Repository(nil), c.ExtraRepos...)
	if c.PrimaryRepo != nil {
		repo := *c.PrimaryRepo
		out.PrimaryRepo = &repo
	}
	if c.Published != nil {
		t := *c.Published
		out.Published = &t
	}
	return out
}

// DiscoveryResult is the output of one discovery run.
type DiscoveryResult struct {
	// RunID correlates log lines and exports of one run.
	RunID     string    `json:"run_id" yaml:"run_id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// Papers is the final ranked list.
	Papers []Candidate `json:"papers" yaml:"papers"`

	// SourceStats maps source name to the raw count it contributed.
	SourceStats map[string]int `json:"source_stats" yaml:"source_stats"`

	TotalDiscovered  int `json:"total_discovered" yaml:"total_discovered"`
	TotalAfterDedup  int `json:"total_after_deduplication" yaml:"total_after_deduplication"`
	TotalAfterFilter int `json:"total_after_filtering" yaml:"total_after_filtering"`

	// Elapsed is the wall time of the run. Exports carry it as
	// ElapsedSeconds.
	Elapsed        time.Duration `json:"-" yaml:"-"`
	ElapsedSeconds float64       `json:"elapsed_seconds" yaml:"elapsed_seconds"`

	// Errors holds one human-readable string per failed or partially
	// failed source, in configuration order.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}
