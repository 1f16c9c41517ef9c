// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arxivPageLimit is the most results requested per query.
const arxivPageLimit = 100

// aiCategories constrain research-area and keyword queries.
var aiCategories = []string{"cs.AI", "cs.LG", "cs.CV", "cs.CL", "cs.RO", "stat.ML"}

const arxivFallbackQuery = "cat:cs.AI OR cat:cs.LG OR cat:cs.CV OR cat:cs.CL"

// Arxiv discovers recently submitted papers through the arXiv API.
type Arxiv struct {
	base
	Client *httputil.Client
}

// NewArxiv returns an arXiv provider sending requests through c.
func NewArxiv(c *httputil.Client) *Arxiv {
	return &Arxiv{Client: c}
}

// Fetch returns papers submitted within the last daysBack days that match
// the interests, newest first, at most maxResults of them.
func (a *Arxiv) Fetch(ctx context.Context, interests types.Interests, daysBack, maxResults int) ([]types.Candidate, error) {
	now := a.now()
	cutoff := now.AddDate(0, 0, -daysBack)
	queries := buildArxivQueries(interests)

	seen := make(map[string]bool)
	var out []types.Candidate
	var qerr queryErrors
	for _, q := range queries {
		entries, err := a.query(ctx, q, min(arxivPageLimit, maxResults))
		if err != nil {
			a.Logger.Warn().Err(err).Str("query", q).Msg("arXiv query failed")
			qerr.add(err)
			continue
		}
		for _, e := range entries {
			c, ok := e.candidate()
			if !ok || seen[c.ArxivID] {
				continue
			}
			if c.Published != nil && c.Published.Before(cutoff) {
				continue
			}
			seen[c.ArxivID] = true
			finalize(&c, now)
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

func (a *Arxiv) query(ctx context.Context, q string, limit int) ([]arxivEntry, error) {
	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(limit)},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
	}
	resp, err := a.Client.Get(ctx, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return feed.Entries, nil
}

// buildArxivQueries derives up to five search_query expressions from the
// interests: one per category, one per leading research area and one per
// keyword group, each constrained to AI categories.
func buildArxivQueries(in types.Interests) []string {
	var queries []string
	for _, cat := range in.Categories {
		queries = append(queries, "cat:"+cat)
	}

	cats := make([]string, len(aiCategories))
	for i, c := range aiCategories {
		cats[i] = "cat:" + c
	}
	catClause := "(" + strings.Join(cats, " OR ") + ")"

	for _, area := range firstN(in.ResearchAreas, 3) {
		queries = append(queries, catClause+" AND all:"+area)
	}
	for _, group := range keywordGroups(in.Keywords, keywordGroupSize) {
		terms := make([]string, len(group))
		for i, kw := range group {
			terms[i] = fmt.Sprintf("all:%q", kw)
		}
		queries = append(queries, catClause+" AND ("+strings.Join(terms, " OR ")+")")
	}

	if len(queries) == 0 {
		return []string{arxivFallbackQuery}
	}
	return firstN(queries, maxQueries)
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Links      []arxivLink     `xml:"link"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

// candidate converts e. It reports false for entries without an
// identifier or title.
func (e arxivEntry) candidate() (types.Candidate, bool) {
	id := extractArxivID(e.ID)
	title := collapseSpace(e.Title)
	if id == "" || title == "" {
		return types.Candidate{}, false
	}

	c := types.Candidate{
		Title:    title,
		Abstract: collapseSpace(e.Summary),
		ArxivID:  id,
		ArxivURL: "https://arxiv.org/abs/" + id,
		Source:   types.SourceArxiv,
		Reasons:  []types.TrendingReason{types.ReasonRecentPublication},
	}
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			c.Authors = append(c.Authors, name)
		}
	}
	for _, cat := range e.Categories {
		if cat.Term != "" {
			c.Categories = append(c.Categories, cat.Term)
		}
	}
	for _, l := range e.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			c.PDFURL = l.Href
			break
		}
	}
	if t, ok := parseDate(e.Published); ok {
		c.Published = &t
	}
	return c, true
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	return stripVersion(strings.TrimSpace(idURL[idx+len(prefix):]))
}
