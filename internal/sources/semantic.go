// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/internal/scoring"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "paperId,title,abstract,authors,year,publicationDate,citationCount," +
	"referenceCount,influentialCitationCount,fieldsOfStudy,venue,externalIds,openAccessPdf,url"

// semanticPageLimit is the API's largest page size.
const semanticPageLimit = 100

// influentialThreshold is the influential-citation count above which a
// paper is tagged community_interest.
const influentialThreshold = 10

var semanticFallbackQueries = []string{
	"machine learning",
	"artificial intelligence",
	"deep learning",
	"computer vision",
	"natural language processing",
}

// SemanticScholar discovers highly cited recent papers through the
// Semantic Scholar Graph API.
type SemanticScholar struct {
	base
	Client *httputil.Client

	// APIKey is sent as x-api-key when set.
	APIKey string
}

// NewSemanticScholar returns a Semantic Scholar provider.
func NewSemanticScholar(c *httputil.Client, apiKey string) *SemanticScholar {
	return &SemanticScholar{Client: c, APIKey: apiKey}
}

// Fetch returns papers published within the last daysBack days.
func (s *SemanticScholar) Fetch(ctx context.Context, interests types.Interests, daysBack, maxResults int) ([]types.Candidate, error) {
	now := s.now()
	cutoff := now.AddDate(0, 0, -daysBack)
	queries := buildSemanticQueries(interests)
	limit := min(max(maxResults/len(queries), 1), semanticPageLimit)

	seen := make(map[string]bool)
	var out []types.Candidate
	var qerr queryErrors
	for _, q := range queries {
		papers, err := s.query(ctx, q, limit, cutoff)
		if err != nil {
			s.Logger.Warn().Err(err).Str("query", q).Msg("Semantic Scholar query failed")
			qerr.add(err)
			continue
		}
		for _, p := range papers {
			if p.PaperID != "" && seen[p.PaperID] {
				continue
			}
			c, ok := p.candidate()
			if !ok {
				continue
			}
			if c.Published == nil || c.Published.Before(cutoff) {
				continue
			}
			seen[p.PaperID] = true
			finalizeSemantic(&c, now)
			out = append(out, c)
		}
	}
	if err := qerr.result(len(queries)); err != nil {
		return nil, err
	}
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

func (s *SemanticScholar) query(ctx context.Context, q string, limit int, cutoff time.Time) ([]semanticPaper, error) {
	params := url.Values{
		"query":                 {q},
		"limit":                 {strconv.Itoa(limit)},
		"fields":                {semanticFields},
		"publicationDateOrYear": {cutoff.Format("2006-01-02") + ":"},
	}

	var header http.Header
	if s.APIKey != "" {
		header = http.Header{"x-api-key": {s.APIKey}}
	}
	resp, err := s.Client.Get(ctx, semanticAPIBase+"?"+params.Encode(), header)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return sr.Data, nil
}

// buildSemanticQueries uses the leading research areas and OR-ed keyword
// groups, falling back to broad AI topics.
func buildSemanticQueries(in types.Interests) []string {
	queries := append([]string(nil), firstN(in.ResearchAreas, 3)...)
	for _, group := range keywordGroups(in.Keywords, keywordGroupSize) {
		queries = append(queries, strings.Join(group, " OR "))
	}
	if len(queries) == 0 {
		return semanticFallbackQueries
	}
	return firstN(queries, maxQueries)
}

// finalizeSemantic sets citation velocity from the publication age before
// the intrinsic score.
func finalizeSemantic(c *types.Candidate, now time.Time) {
	days := max(scoring.DaysSince(*c.Published, now), 1)
	c.Engagement.CitationVelocity = float64(c.Engagement.Citations) / float64(days)
	finalize(c, now)
}

// Semantic Scholar API response structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID                  string           `json:"paperId"`
	Title                    string           `json:"title"`
	Abstract                 string           `json:"abstract"`
	Authors                  []semanticAuthor `json:"authors"`
	Year                     int              `json:"year"`
	PublicationDate          string           `json:"publicationDate"`
	CitationCount            int              `json:"citationCount"`
	ReferenceCount           int              `json:"referenceCount"`
	InfluentialCitationCount int              `json:"influentialCitationCount"`
	FieldsOfStudy            []string         `json:"fieldsOfStudy"`
	Venue                    string           `json:"venue"`
	ExternalIDs              semanticExtIDs   `json:"externalIds"`
	OpenAccessPDF            *semanticPDF     `json:"openAccessPdf"`
	URL                      string           `json:"url"`
}

type semanticAuthor struct {
	Name string `json:"name"`
}

type semanticExtIDs struct {
	ArXiv string `json:"ArXiv"`
	DOI   string `json:"DOI"`
}

type semanticPDF struct {
	URL string `json:"url"`
}

func (p semanticPaper) candidate() (types.Candidate, bool) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return types.Candidate{}, false
	}

	c := types.Candidate{
		Title:      title,
		Abstract:   strings.TrimSpace(p.Abstract),
		Categories: append([]string(nil), p.FieldsOfStudy...),
		Source:     types.SourceSemanticScholar,
		Engagement: types.EngagementMetrics{Citations: max(p.CitationCount, 0)},
		Reasons:    []types.TrendingReason{types.ReasonCitationVelocity},
	}
	if p.InfluentialCitationCount > influentialThreshold {
		c.Reasons = append(c.Reasons, types.ReasonCommunityInterest)
	}
	for _, a := range p.Authors {
		if a.Name != "" {
			c.Authors = append(c.Authors, a.Name)
		}
	}
	if id := stripVersion(strings.TrimSpace(p.ExternalIDs.ArXiv)); id != "" {
		c.ArxivID = id
		c.ArxivURL = "https://arxiv.org/abs/" + id
	}
	if p.OpenAccessPDF != nil {
		c.PDFURL = p.OpenAccessPDF.URL
	}

	if t, ok := parseDate(p.PublicationDate); ok {
		c.Published = &t
	} else if p.Year > 0 {
		t := time.Date(p.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		c.Published = &t
	}
	return c, true
}
