// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/internal/scoring"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const githubPerPage = 20

// Repositories above these thresholds earn the corresponding reason.
const (
	githubActiveStars   = 100
	githubRecentDays    = 30
	qualityReasonCutoff = 7.0

	// A repository below githubActiveStars still counts as active when it
	// gains this many stars per day and was pushed to within the month.
	githubVelocityCutoff = 20.0
	githubActivityCutoff = 7.0
)

var githubDefaultQueries = []string{
	"machine learning",
	"deep learning",
	"neural networks",
	"computer vision",
	"natural language processing",
	"artificial intelligence",
	"reinforcement learning",
	"transformers",
	"diffusion models",
}

var arxivRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://arxiv\.org/abs/(\d{4}\.\d{4,5})`),
	regexp.MustCompile(`(?i)https?://arxiv\.org/pdf/(\d{4}\.\d{4,5})\.pdf`),
	regexp.MustCompile(`(?i)arXiv:(\d{4}\.\d{4,5})`),
	regexp.MustCompile(`(?i)arxiv\.org/abs/(\d{4}\.\d{4,5})`),
}

var paperRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\[([^\]]*paper[^\]]*)\]\s*\([^)]*\)`),
	regexp.MustCompile(`(?i)(?:paper|publication|article):\s*([^\n]+)`),
	regexp.MustCompile(`(?i)based on the paper[:\s]*"([^"]+)"`),
	regexp.MustCompile(`(?i)implements[:\s]*"([^"]+)"`),
}

// minPaperRefLen drops short reference matches such as "[paper](...)".
const minPaperRefLen = 10

// categoryHints maps phrases in a repository's name, description and
// topics to arXiv categories.
var categoryHints = []struct {
	pattern  *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`machine learning`), "cs.LG"},
	{regexp.MustCompile(`computer vision`), "cs.CV"},
	{regexp.MustCompile(`natural language|\bnlp\b`), "cs.CL"},
	{regexp.MustCompile(`robotics`), "cs.RO"},
	{regexp.MustCompile(`\bai\b|artificial intelligence`), "cs.AI"},
}

// GitHub discovers papers through recently created repositories that
// reference them. A repository citing neither an arXiv identifier nor a
// paper title is skipped.
type GitHub struct {
	base

	// API is the go-github client. Tests point its BaseURL at an httptest
	// server.
	API *github.Client
}

// NewGitHub returns a GitHub provider. A non-empty token authenticates
// requests through an oauth2 static token source layered over c.
func NewGitHub(c *httputil.Client, token string) *GitHub {
	httpClient := c.StdClient()
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	return &GitHub{API: github.NewClient(httpClient)}
}

// Fetch searches repositories created within the last daysBack days and
// returns one candidate per repository that references a paper, highest
// intrinsic score first.
func (g *GitHub) Fetch(ctx context.Context, interests types.Interests, daysBack, maxResults int) ([]types.Candidate, error) {
	now := g.now()
	since := now.AddDate(0, 0, -daysBack).Format("2006-01-02")
	queries := buildGitHubQueries(interests)

	seen := make(map[string]bool)
	var repos []*github.Repository
	var qerr queryErrors
	for _, q := range queries {
		found, err := g.search(ctx, q+" created:>"+since)
		if err != nil {
			g.Logger.Warn().Err(err).Str("query", q).Msg("GitHub search failed")
			qerr.add(err)
			continue
		}
		for _, r := range found {
			if name := r.GetFullName(); name != "" && !seen[name] {
				seen[name] = true
				repos = append(repos, r)
			}
		}
	}
	if err := qerr.result(len(queries)); err != nil {
		return nil, err
	}

	sort.SliceStable(repos, func(i, j int) bool {
		return repos[i].GetStargazersCount()+repos[i].GetForksCount() >
			repos[j].GetStargazersCount()+repos[j].GetForksCount()
	})

	var out []types.Candidate
	for _, r := range repos {
		readme := g.readme(ctx, r)
		if c, ok := repoCandidate(r, readme, now); ok {
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

func (g *GitHub) search(ctx context.Context, query string) ([]*github.Repository, error) {
	opts := &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: githubPerPage},
	}
	result, _, err := g.API.Search.Repositories(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("GitHub repository search: %w", err)
	}
	return result.Repositories, nil
}

// readme returns the decoded README, or "" when it cannot be fetched.
func (g *GitHub) readme(ctx context.Context, r *github.Repository) string {
	content, _, err := g.API.Repositories.GetReadme(ctx, r.GetOwner().GetLogin(), r.GetName(), nil)
	if err != nil {
		g.Logger.Debug().Err(err).Str("repo", r.GetFullName()).Msg("README unavailable")
		return ""
	}
	text, err := content.GetContent()
	if err != nil {
		return ""
	}
	return text
}

func buildGitHubQueries(in types.Interests) []string {
	queries := append([]string(nil), firstN(in.ResearchAreas, 3)...)
	queries = append(queries, in.Keywords...)
	if len(queries) == 0 {
		return githubDefaultQueries
	}
	return firstN(queries, maxQueries)
}

// repoCandidate converts a repository into a candidate. It reports false
// when the repository references no paper.
func repoCandidate(r *github.Repository, readme string, now time.Time) (types.Candidate, bool) {
	arxivIDs := arxivReferences(r.GetDescription() + " " + readme + " " + strings.Join(r.Topics, " "))
	paperRefs := paperReferences(readme)
	if len(arxivIDs) == 0 && len(paperRefs) == 0 {
		return types.Candidate{}, false
	}

	repo := types.Repository{
		URL:              r.GetHTMLURL(),
		Name:             r.GetName(),
		Description:      r.GetDescription(),
		Stars:            r.GetStargazersCount(),
		Forks:            r.GetForksCount(),
		OpenIssues:       r.GetOpenIssuesCount(),
		Language:         r.GetLanguage(),
		Topics:           append([]string(nil), r.Topics...),
		License:          r.GetLicense().GetName(),
		HasDocumentation: scoring.LooksDocumented(readme),
		HasTests:         scoring.LooksTested(r.GetName(), readme, r.Topics),
		HasExamples:      scoring.LooksExampled(readme, r.Topics),
	}
	var pushed *time.Time
	if r.PushedAt != nil {
		t := r.GetPushedAt().Time.UTC()
		pushed = &t
		repo.LastCommit = &t
	}
	created := r.GetCreatedAt().Time.UTC()
	age := scoring.DaysSince(created, now)

	c := types.Candidate{
		Title:       repoTitle(r.GetName(), r.GetDescription()),
		Abstract:    repoAbstract(r.GetName(), r.GetDescription(), paperRefs),
		Categories:  repoCategories(r.GetName() + " " + r.GetDescription() + " " + strings.Join(r.Topics, " ")),
		Published:   &created,
		PrimaryRepo: &repo,
		Source:      types.SourceGitHubTrending,
		Engagement: types.EngagementMetrics{
			Stars:                repo.Stars,
			Forks:                repo.Forks,
			Issues:               repo.OpenIssues,
			DaysSincePublication: max(age, 1),
			LastActivity:         pushed,
		},
	}
	if len(arxivIDs) > 0 {
		c.ArxivID = arxivIDs[0]
		c.ArxivURL = "https://arxiv.org/abs/" + arxivIDs[0]
	}

	rising := scoring.Activity(&repo, now) >= githubActivityCutoff &&
		scoring.Velocity(c.Engagement, now) >= githubVelocityCutoff
	if repo.Stars > githubActiveStars || rising {
		c.Reasons = scoring.AddReason(c.Reasons, types.ReasonGitHubActivity)
	}
	if age <= githubRecentDays {
		c.Reasons = scoring.AddReason(c.Reasons, types.ReasonRecentPublication)
	}
	if scoring.CodeQuality(&repo, now) >= qualityReasonCutoff {
		c.Reasons = scoring.AddReason(c.Reasons, types.ReasonCodeQuality)
	}

	c.Score = scoring.Overall(c, now)
	return c, true
}

// arxivReferences returns the distinct arXiv identifiers in text in order
// of first appearance.
func arxivReferences(text string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, p := range arxivRefPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				ids = append(ids, m[1])
			}
		}
	}
	return ids
}

// paperReferences returns distinct paper titles mentioned in a README.
func paperReferences(readme string) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, p := range paperRefPatterns {
		for _, m := range p.FindAllStringSubmatch(readme, -1) {
			title := strings.TrimSpace(m[1])
			if len(title) > minPaperRefLen && !seen[title] {
				seen[title] = true
				refs = append(refs, title)
			}
		}
	}
	return refs
}

// repoTitle turns "vision-transformer_pytorch" into "Vision Transformer
// Pytorch", followed by ": description" when there is one.
func repoTitle(name, description string) string {
	title := cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(name))
	if description != "" {
		title += ": " + description
	}
	return title
}

func repoAbstract(name, description string, refs []string) string {
	subject := description
	if subject == "" {
		subject = name
	}
	abstract := "Repository implementing: " + subject
	if len(refs) > 0 {
		abstract += "\n\nRelated papers: " + strings.Join(firstN(refs, 3), "; ")
	}
	return abstract
}

// repoCategories infers arXiv categories from free text, sorted.
func repoCategories(text string) []string {
	text = strings.ToLower(text)
	set := make(map[string]bool)
	for _, h := range categoryHints {
		if h.pattern.MatchString(text) {
			set[h.category] = true
		}
	}
	cats := make([]string, 0, len(set))
	for c := range set {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}
