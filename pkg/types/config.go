package types

import "time"

// Source names used in configuration, provenance tags and statistics.
const (
	SourceArxiv           = "arxiv"
	SourceSemanticScholar = "semantic_scholar"
	SourceGitHubTrending  = "github_trending"
	SourcePapersWithCode  = "papers_with_code"
	SourceOpenAlex        = "openalex"
)

// HTTPConfig holds shared HTTP settings used by providers that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-digest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// Interests holds a user's declared research interests. The engine only
// reads it.
type Interests struct {
	ResearchAreas []string `json:"research_areas" yaml:"research_areas" mapstructure:"research_areas"`

	// Categories are arXiv-style subject categories (e.g. "cs.LG").
	Categories []string `json:"categories" yaml:"categories" mapstructure:"categories"`

	Keywords []string `json:"keywords" yaml:"keywords" mapstructure:"keywords"`
}

// IsEmpty reports whether no interest of any kind is declared.
func (i Interests) IsEmpty() bool {
	return len(i.ResearchAreas) == 0 && len(i.Categories) == 0 && len(i.Keywords) == 0
}

// Terms returns research areas, keywords and categories in one list.
func (i Interests) Terms() []string {
	terms := make([]string, 0, len(i.ResearchAreas)+len(i.Keywords)+len(i.Categories))
	terms = append(terms, i.ResearchAreas...)
	terms = append(terms, i.Keywords...)
	return append(terms, i.Categories...)
}

// SourceConfig enables one provider and optionally overrides its window and cap.
type SourceConfig struct {
	Name    string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// DaysBack overrides the source's default look-back window. Zero keeps
	// the default derived from DiscoveryConfig.DaysBack.
	DaysBack int `json:"days_back,omitempty" yaml:"days_back,omitempty" mapstructure:"days_back" validate:"gte=0"`

	// MaxResults overrides DiscoveryConfig.MaxPerSource when positive.
	MaxResults int `json:"max_results,omitempty" yaml:"max_results,omitempty" mapstructure:"max_results" validate:"gte=0"`
}

// Weights blends the final ranking score. Each weight is in [0,1] and the
// sum must not exceed 1; it need not equal 1.
type Weights struct {
	Engagement  float64 `json:"engagement" yaml:"engagement" mapstructure:"engagement" validate:"gte=0,lte=1"`
	Interest    float64 `json:"interest" yaml:"interest" mapstructure:"interest" validate:"gte=0,lte=1"`
	CodeQuality float64 `json:"code_quality" yaml:"code_quality" mapstructure:"code_quality" validate:"gte=0,lte=1"`
}

// Sum returns the total of all three weights.
func (w Weights) Sum() float64 {
	return w.Engagement + w.Interest + w.CodeQuality
}

// DedupConfig holds deduplication parameters.
type DedupConfig struct {
	// TitleThreshold is the word-overlap similarity at or above which two
	// titles denote the same paper (default 0.8).
	TitleThreshold float64 `json:"title_threshold" yaml:"title_threshold" mapstructure:"title_threshold" validate:"gt=0,lte=1"`

	// CheckArxivIDs enables identifier-based deduplication.
	CheckArxivIDs bool `json:"check_arxiv_ids" yaml:"check_arxiv_ids" mapstructure:"check_arxiv_ids"`
}

// DiscoveryConfig holds settings for one discovery run.
type DiscoveryConfig struct {
	// Sources lists providers in the order they are reported.
	Sources []SourceConfig `json:"sources" yaml:"sources" mapstructure:"sources" validate:"dive"`

	// DaysBack is the base look-back window in days (default 7).
	DaysBack int `json:"days_back" yaml:"days_back" mapstructure:"days_back" validate:"gte=1"`

	// MaxPerSource caps the raw candidates requested from each source (default 50).
	MaxPerSource int `json:"max_per_source" yaml:"max_per_source" mapstructure:"max_per_source" validate:"gte=1"`

	// MaxResults caps the final ranked list (default 100).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"gte=1"`

	// Enrich runs the supplementary repository enrichment pass.
	Enrich bool `json:"enrich" yaml:"enrich" mapstructure:"enrich"`

	// MinEngagement drops candidates whose engagement score is lower (default 5).
	MinEngagement float64 `json:"min_engagement" yaml:"min_engagement" mapstructure:"min_engagement" validate:"gte=0,lte=100"`

	Weights Weights     `json:"weights" yaml:"weights" mapstructure:"weights"`
	Dedup   DedupConfig `json:"dedup" yaml:"dedup" mapstructure:"dedup"`
}

// EnabledSources returns the enabled entries of Sources in order.
func (c DiscoveryConfig) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// DefaultDiscoveryConfig returns the defaults used when no configuration
// file overrides them.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Sources: []SourceConfig{
			{Name: SourceArxiv, Enabled: true},
			{Name: SourceSemanticScholar, Enabled: true},
			{Name: SourcePapersWithCode, Enabled: false},
			{Name: SourceGitHubTrending, Enabled: true},
			{Name: SourceOpenAlex, Enabled: false},
		},
		DaysBack:      7,
		MaxPerSource:  50,
		MaxResults:    100,
		Enrich:        true,
		MinEngagement: 5,
		Weights: Weights{
			Engagement:  0.5,
			Interest:    0.3,
			CodeQuality: 0.2,
		},
		Dedup: DedupConfig{
			TitleThreshold: 0.8,
			CheckArxivIDs:  true,
		},
	}
}

// SummaryConfig holds settings for the summary generator.
type SummaryConfig struct {
	// Model is the generative model identifier (e.g. "gemini-2.5-flash-lite").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxPapers is how many top-ranked papers get a summary (default 5).
	MaxPapers int `json:"max_papers" yaml:"max_papers" mapstructure:"max_papers"`
}
