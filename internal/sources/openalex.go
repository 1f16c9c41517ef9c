// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// openAlexPageLimit is the API's largest page size.
const openAlexPageLimit = 200

const openAlexSelect = "id,display_name,doi,publication_date,publication_year,authorships," +
	"abstract_inverted_index,cited_by_count,concepts,locations,open_access"

// Concepts at or below this level and at or above this score become
// categories.
const (
	openAlexConceptLevel = 1
	openAlexConceptScore = 0.3
)

var arxivLocation = regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5}(?:v\d+)?)`)

// OpenAlex discovers recently published, most cited works through the
// OpenAlex API.
type OpenAlex struct {
	base
	Client *httputil.Client

	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// NewOpenAlex returns an OpenAlex provider.
func NewOpenAlex(c *httputil.Client, email string) *OpenAlex {
	return &OpenAlex{Client: c, Email: email}
}

// Fetch returns works published within the last daysBack days, most cited
// first within each query.
func (o *OpenAlex) Fetch(ctx context.Context, interests types.Interests, daysBack, maxResults int) ([]types.Candidate, error) {
	now := o.now()
	cutoff := now.AddDate(0, 0, -daysBack)
	queries := buildSemanticQueries(interests)
	limit := min(max(maxResults/len(queries), 1), openAlexPageLimit)

	seen := make(map[string]bool)
	var out []types.Candidate
	var qerr queryErrors
	for _, q := range queries {
		works, err := o.query(ctx, q, limit, cutoff)
		if err != nil {
			o.Logger.Warn().Err(err).Str("query", q).Msg("OpenAlex query failed")
			qerr.add(err)
			continue
		}
		for _, w := range works {
			if w.ID != "" && seen[w.ID] {
				continue
			}
			c, ok := w.candidate()
			if !ok || c.Published == nil || c.Published.Before(cutoff) {
				continue
			}
			seen[w.ID] = true
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

func (o *OpenAlex) query(ctx context.Context, q string, limit int, cutoff time.Time) ([]openAlexWork, error) {
	params := url.Values{
		"search":   {q},
		"filter":   {"from_publication_date:" + cutoff.Format("2006-01-02")},
		"sort":     {"cited_by_count:desc"},
		"per_page": {strconv.Itoa(limit)},
		"select":   {openAlexSelect},
	}
	if o.Email != "" {
		params.Set("mailto", o.Email)
	}

	resp, err := o.Client.Get(ctx, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return oar.Results, nil
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	DisplayName           string               `json:"display_name"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	CitedByCount          int                  `json:"cited_by_count"`
	Concepts              []openAlexConcept    `json:"concepts"`
	Locations             []openAlexLocation   `json:"locations"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
}

type openAlexAuthorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type openAlexConcept struct {
	DisplayName string  `json:"display_name"`
	Level       int     `json:"level"`
	Score       float64 `json:"score"`
}

type openAlexLocation struct {
	LandingPageURL string `json:"landing_page_url"`
	PDFURL         string `json:"pdf_url"`
}

type openAlexOpenAccess struct {
	IsOA  bool   `json:"is_oa"`
	OAURL string `json:"oa_url"`
}

func (w openAlexWork) candidate() (types.Candidate, bool) {
	title := collapseSpace(w.DisplayName)
	if title == "" {
		return types.Candidate{}, false
	}

	c := types.Candidate{
		Title:      title,
		Abstract:   reconstructAbstract(w.AbstractInvertedIndex),
		Source:     types.SourceOpenAlex,
		Engagement: types.EngagementMetrics{Citations: max(w.CitedByCount, 0)},
	}
	if c.Engagement.Citations > 0 {
		c.Reasons = []types.TrendingReason{types.ReasonCitationVelocity}
	} else {
		c.Reasons = []types.TrendingReason{types.ReasonRecentPublication}
	}
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			c.Authors = append(c.Authors, a.Author.DisplayName)
		}
	}
	for _, concept := range w.Concepts {
		if concept.Level <= openAlexConceptLevel && concept.Score >= openAlexConceptScore {
			c.Categories = append(c.Categories, concept.DisplayName)
		}
	}

	for _, loc := range w.Locations {
		if c.ArxivID == "" {
			if m := arxivLocation.FindStringSubmatch(loc.LandingPageURL + " " + loc.PDFURL); m != nil {
				c.ArxivID = stripVersion(m[1])
				c.ArxivURL = "https://arxiv.org/abs/" + c.ArxivID
			}
		}
		if c.PDFURL == "" && loc.PDFURL != "" {
			c.PDFURL = loc.PDFURL
		}
	}
	if c.PDFURL == "" && w.OpenAccess.IsOA && strings.HasSuffix(strings.ToLower(w.OpenAccess.OAURL), ".pdf") {
		c.PDFURL = w.OpenAccess.OAURL
	}

	if t, ok := parseDate(w.PublicationDate); ok {
		c.Published = &t
	} else if w.PublicationYear > 0 {
		t := time.Date(w.PublicationYear, 1, 1, 0, 0, 0, 0, time.UTC)
		c.Published = &t
	}
	return c, true
}
