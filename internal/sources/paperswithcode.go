// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paper-digest/internal/paperswithcode"
	"github.com/pdiddy/paper-digest/internal/scoring"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const (
	pwcPageSize = 50
	pwcMaxPages = 5

	// pwcMinStars is the star count one linked repository needs for a
	// paper to count as trending.
	pwcMinStars = 10

	pwcActiveStars = 500

	// pwcTestedStars is the popularity above which a repository is
	// assumed to have tests.
	pwcTestedStars = 100
)

// PapersWithCode lists papers ordered by the stars of their repositories.
type PapersWithCode struct {
	base
	API *paperswithcode.Client
}

// NewPapersWithCode returns a Papers with Code provider.
func NewPapersWithCode(api *paperswithcode.Client) *PapersWithCode {
	return &PapersWithCode{API: api}
}

// Fetch pages through the star-ordered paper list and keeps papers with a
// popular repository that were published within the window. Interests are
// applied later by the matcher; the list itself is not topical.
func (p *PapersWithCode) Fetch(ctx context.Context, _ types.Interests, daysBack, maxResults int) ([]types.Candidate, error) {
	now := p.now()
	cutoff := now.AddDate(0, 0, -daysBack)

	var out []types.Candidate
	for page := 1; page <= pwcMaxPages && len(out) < maxResults; page++ {
		params := url.Values{
			"page":      {strconv.Itoa(page)},
			"page_size": {strconv.Itoa(pwcPageSize)},
			"ordering":  {"-github_stars"},
		}
		papers, more, err := p.API.ListPapers(ctx, params)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			p.Logger.Warn().Err(err).Int("page", page).Msg("Papers with Code page failed")
			break
		}
		for _, paper := range papers {
			if !hasPopularRepo(paper.Repositories) {
				continue
			}
			c, ok := pwcCandidate(paper, now)
			if !ok || (c.Published != nil && c.Published.Before(cutoff)) {
				continue
			}
			out = append(out, c)
		}
		if !more {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

func hasPopularRepo(repos []paperswithcode.Repository) bool {
	for _, r := range repos {
		if r.Stars >= pwcMinStars {
			return true
		}
	}
	return false
}

func pwcCandidate(p paperswithcode.Paper, now time.Time) (types.Candidate, bool) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return types.Candidate{}, false
	}

	c := types.Candidate{
		Title:      title,
		Abstract:   strings.TrimSpace(p.Abstract),
		Authors:    append([]string(nil), p.Authors...),
		Categories: append([]string(nil), p.Tasks...),
		PDFURL:     p.URLPDF,
		Source:     types.SourcePapersWithCode,
	}
	if id := stripVersion(strings.TrimSpace(p.ArxivID)); id != "" {
		c.ArxivID = id
		c.ArxivURL = "https://arxiv.org/abs/" + id
		c.PDFURL = "https://arxiv.org/pdf/" + id + ".pdf"
	}
	if t, ok := parseDate(p.Published); ok {
		c.Published = &t
	}

	repos := pwcRepositories(p.Repositories)
	if len(repos) > 0 {
		c.PrimaryRepo = &repos[0]
		c.ExtraRepos = repos[1:]
	}
	for _, r := range repos {
		c.Engagement.Stars += r.Stars
		c.Engagement.Forks += r.Forks
	}
	if c.Published != nil {
		days := scoring.DaysSince(*c.Published, now)
		c.Engagement.DaysSincePublication = days
		c.Engagement.CitationVelocity = float64(c.Engagement.Citations) / float64(max(days, 1))
	}

	c.Reasons = pwcReasons(c, now)
	c.Score = scoring.Overall(c, now)
	return c, true
}

// pwcRepositories converts and orders repositories by stars, guessing
// quality traits from descriptions and popularity.
func pwcRepositories(in []paperswithcode.Repository) []types.Repository {
	repos := make([]types.Repository, 0, len(in))
	for _, r := range in {
		repo := r.ToRepository()
		desc := strings.ToLower(r.Description)
		name := strings.ToLower(repo.Name)
		repo.HasDocumentation = containsAnyOf(desc+" "+name, "readme", "documentation", "docs", "tutorial", "guide")
		repo.HasTests = repo.Stars > pwcTestedStars
		repo.HasExamples = containsAnyOf(desc, "example", "demo", "tutorial", "sample", "notebook")
		repos = append(repos, repo)
	}
	sort.SliceStable(repos, func(i, j int) bool { return repos[i].Stars > repos[j].Stars })
	return repos
}

func pwcReasons(c types.Candidate, now time.Time) []types.TrendingReason {
	var reasons []types.TrendingReason
	m := c.Engagement
	if m.Stars > pwcActiveStars {
		reasons = scoring.AddReason(reasons, types.ReasonGitHubActivity)
	}
	if m.CitationVelocity > 1 {
		reasons = scoring.AddReason(reasons, types.ReasonCitationVelocity)
	}
	if c.Published != nil && m.DaysSincePublication <= githubRecentDays {
		reasons = scoring.AddReason(reasons, types.ReasonRecentPublication)
	}
	if scoring.HasQualityCode(c, now) {
		reasons = scoring.AddReason(reasons, types.ReasonCodeQuality)
	}
	if m.Stars > 0 && m.Forks > 0 {
		if ratio := float64(m.Forks) / float64(m.Stars); ratio >= 0.1 && ratio <= 0.3 {
			reasons = scoring.AddReason(reasons, types.ReasonCommunityInterest)
		}
	}
	return reasons
}

func containsAnyOf(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
