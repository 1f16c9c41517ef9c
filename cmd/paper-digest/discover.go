// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-digest/internal/discovery"
	"github.com/pdiddy/paper-digest/internal/enrich"
	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/internal/paperswithcode"
	"github.com/pdiddy/paper-digest/internal/report"
	"github.com/pdiddy/paper-digest/internal/secrets"
	"github.com/pdiddy/paper-digest/internal/sources"
	"github.com/pdiddy/paper-digest/internal/summary"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const metricsNamespace = "paper_digest"

// providerLimit is the steady request rate and burst allowed per provider.
type providerLimit struct {
	perSecond float64
	burst     int
}

var providerLimits = map[string]providerLimit{
	types.SourceArxiv:           {perSecond: 1.0 / 3, burst: 1},
	types.SourceSemanticScholar: {perSecond: 1, burst: 1},
	types.SourceGitHubTrending:  {perSecond: 0.5, burst: 2},
	types.SourcePapersWithCode:  {perSecond: 2, burst: 4},
	types.SourceOpenAlex:        {perSecond: 5, burst: 5},
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover and rank trending papers",
	Long: `Discover queries every enabled source for recent papers, deduplicates them,
attaches code repositories from Papers with Code, filters out papers with too
little engagement and ranks the rest by engagement, interest match and code
quality. A run summary is printed to stderr and the ranked list to stdout.

When a Gemini API key is available the top papers also get a short TL;DR.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringSlice("area", nil, "research area of interest (repeatable)")
	discoverCmd.Flags().StringSlice("category", nil, "arXiv category of interest, e.g. cs.LG (repeatable)")
	discoverCmd.Flags().StringSlice("keyword", nil, "keyword of interest (repeatable)")
	discoverCmd.Flags().StringSlice("source", nil, "only query these sources (arxiv, semantic_scholar, github_trending, papers_with_code, openalex)")
	discoverCmd.Flags().Int("days-back", 0, "look-back window in days (default from config, 7)")
	discoverCmd.Flags().Int("max-results", 0, "maximum number of ranked papers (default from config, 100)")
	discoverCmd.Flags().Bool("no-enrich", false, "skip Papers with Code repository enrichment")
	discoverCmd.Flags().Bool("no-summary", false, "skip TL;DR generation even when a Gemini key is available")
	discoverCmd.Flags().String("format", report.FormatTableName, "output format: table, json or yaml")
	discoverCmd.Flags().String("output", "", "also write the result to this .json or .yaml file")
	discoverCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this file after the run")
	discoverCmd.Flags().String("log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if err := applyDiscoverFlags(cmd, &cfg); err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Logging)
	metrics := observability.NewMetrics(metricsNamespace)
	ctx := cmd.Context()

	opts := []discovery.Option{
		discovery.WithLogger(logger),
		discovery.WithMetrics(metrics),
	}
	opts = append(opts, sourceOptions(cfg, loadedSecrets, metrics, logger)...)
	if cfg.Discovery.Enrich {
		api := paperswithcode.New(newProviderClient("papers_with_code_enrichment", cfg, metrics, providerLimits[types.SourcePapersWithCode]))
		opts = append(opts, discovery.WithEnricher(enrich.New(api, observability.WithSourceContext(logger, "enrichment"))))
	}

	result, err := discovery.New(cfg.Discovery, cfg.Interests, opts...).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), discovery.Summary(result))
	fmt.Fprintln(cmd.ErrOrStderr())

	noSummary, _ := cmd.Flags().GetBool("no-summary")
	if !noSummary {
		result.Papers = summarize(cmd, cfg, result.Papers, logger)
	}

	format, _ := cmd.Flags().GetString("format")
	if err := report.Write(format, result, cmd.OutOrStdout()); err != nil {
		return err
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := report.WriteFile(output, result); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
	}
	if path, _ := cmd.Flags().GetString("metrics-file"); path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			return err
		}
	}
	return nil
}

// applyDiscoverFlags overlays command-line flags on cfg.
func applyDiscoverFlags(cmd *cobra.Command, cfg *appConfig) error {
	if areas, _ := cmd.Flags().GetStringSlice("area"); len(areas) > 0 {
		cfg.Interests.ResearchAreas = areas
	}
	if cats, _ := cmd.Flags().GetStringSlice("category"); len(cats) > 0 {
		cfg.Interests.Categories = cats
	}
	if kws, _ := cmd.Flags().GetStringSlice("keyword"); len(kws) > 0 {
		cfg.Interests.Keywords = kws
	}
	if only, _ := cmd.Flags().GetStringSlice("source"); len(only) > 0 {
		if err := restrictSources(&cfg.Discovery, only); err != nil {
			return err
		}
	}
	if days, _ := cmd.Flags().GetInt("days-back"); days > 0 {
		cfg.Discovery.DaysBack = days
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Discovery.MaxResults = n
	}
	if noEnrich, _ := cmd.Flags().GetBool("no-enrich"); noEnrich {
		cfg.Discovery.Enrich = false
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return nil
}

// restrictSources enables exactly the named sources. Names missing from
// the configured list are appended with default settings.
func restrictSources(d *types.DiscoveryConfig, only []string) error {
	want := make(map[string]bool, len(only))
	for _, name := range only {
		if _, ok := providerLimits[name]; !ok {
			return fmt.Errorf("unknown source %q", name)
		}
		want[name] = true
	}
	for i := range d.Sources {
		name := d.Sources[i].Name
		d.Sources[i].Enabled = want[name]
		delete(want, name)
	}
	for _, name := range only {
		if want[name] {
			d.Sources = append(d.Sources, types.SourceConfig{Name: name, Enabled: true})
			delete(want, name)
		}
	}
	return nil
}

// newProviderClient returns the rate-limited, circuit-broken HTTP client
// for one provider.
func newProviderClient(name string, cfg appConfig, metrics *observability.Metrics, limit providerLimit) *httputil.Client {
	return httputil.NewClient(name, &http.Client{Timeout: cfg.HTTP.Timeout},
		httputil.WithUserAgent(cfg.HTTP.UserAgent),
		httputil.WithRateLimit(limit.perSecond, limit.burst),
		httputil.WithBreaker(httputil.DefaultBreakerConfig()),
		httputil.WithMetrics(metrics),
	)
}

// sourceOptions registers a fetcher for every provider the CLI knows.
// Which of them run is decided by the configuration.
func sourceOptions(cfg appConfig, s secrets.Secrets, metrics *observability.Metrics, logger zerolog.Logger) []discovery.Option {
	client := func(name string) *httputil.Client {
		return newProviderClient(name, cfg, metrics, providerLimits[name])
	}
	sourceLogger := func(name string) zerolog.Logger {
		return observability.WithSourceContext(logger, name)
	}

	arxiv := sources.NewArxiv(client(types.SourceArxiv))
	arxiv.Logger = sourceLogger(types.SourceArxiv)

	semantic := sources.NewSemanticScholar(client(types.SourceSemanticScholar), s.Get(secrets.SemanticScholarAPIKey, ""))
	semantic.Logger = sourceLogger(types.SourceSemanticScholar)

	gh := sources.NewGitHub(client(types.SourceGitHubTrending), s.Get(secrets.GitHubToken, ""))
	gh.Logger = sourceLogger(types.SourceGitHubTrending)

	pwc := sources.NewPapersWithCode(paperswithcode.New(client(types.SourcePapersWithCode)))
	pwc.Logger = sourceLogger(types.SourcePapersWithCode)

	openalex := sources.NewOpenAlex(client(types.SourceOpenAlex), s.Get(secrets.OpenAlexEmail, ""))
	openalex.Logger = sourceLogger(types.SourceOpenAlex)

	return []discovery.Option{
		discovery.WithSource(types.SourceArxiv, arxiv),
		discovery.WithSource(types.SourceSemanticScholar, semantic),
		discovery.WithSource(types.SourceGitHubTrending, gh),
		discovery.WithSource(types.SourcePapersWithCode, pwc),
		discovery.WithSource(types.SourceOpenAlex, openalex),
	}
}

// summarize adds TL;DR summaries to the top papers when a Gemini key is
// configured. Without a key the papers are returned as they are.
func summarize(cmd *cobra.Command, cfg appConfig, papers []types.Candidate, logger zerolog.Logger) []types.Candidate {
	key := cfg.Summary.APIKey
	if key == "" {
		key = loadedSecrets.Get(secrets.GeminiAPIKey, "")
	}
	if key == "" || len(papers) == 0 {
		return papers
	}

	ctx := cmd.Context()
	gen, err := summary.NewGemini(ctx, key, cfg.Summary.Model)
	if err != nil {
		logger.Warn().Err(err).Msg("summaries disabled")
		return papers
	}
	defer gen.Close()

	out, added := summary.Summarize(ctx, gen, papers, cfg.Summary.MaxPapers, observability.WithSourceContext(logger, "summary"))
	fmt.Fprintf(cmd.ErrOrStderr(), "Generated %d summaries\n", added)
	return out
}
