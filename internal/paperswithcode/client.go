// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package paperswithcode is a client for the Papers with Code REST API. It
// looks papers up by arXiv identifier or title, lists papers ordered by
// repository stars, and returns the code repositories linked to a paper.
package paperswithcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://paperswithcode.com/api/v1"

// ErrNotFound is returned when a lookup matches no paper.
var ErrNotFound = errors.New("paper not found on Papers with Code")

// Client calls the Papers with Code API.
type Client struct {
	// BaseURL is the API root without a trailing slash. Tests point it at
	// an httptest server.
	BaseURL string

	http *httputil.Client
}

// New returns a Client sending requests through c.
func New(c *httputil.Client) *Client {
	return &Client{BaseURL: DefaultBaseURL, http: c}
}

// Paper is a paper record as returned by the API.
type Paper struct {
	ID        string   `json:"id"`
	ArxivID   string   `json:"arxiv_id"`
	Title     string   `json:"title"`
	Abstract  string   `json:"abstract"`
	Authors   []string `json:"authors"`
	Published string   `json:"published"`
	URLAbs    string   `json:"url_abs"`
	URLPDF    string   `json:"url_pdf"`
	Tasks     []string `json:"tasks"`

	// Repositories is only populated by list endpoints that embed them.
	Repositories []Repository `json:"repositories,omitempty"`
}

// Repository is a code repository linked to a paper.
type Repository struct {
	URL         string `json:"url"`
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	Framework   string `json:"framework"`
	Language    string `json:"language"`
	IsOfficial  bool   `json:"is_official"`
}

type page[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// ListPapers returns one page of papers matching params and whether a
// further page exists.
func (c *Client) ListPapers(ctx context.Context, params url.Values) ([]Paper, bool, error) {
	var p page[Paper]
	if err := c.get(ctx, "/papers/", params, &p); err != nil {
		return nil, false, err
	}
	return p.Results, p.Next != nil && *p.Next != "", nil
}

// PaperByArxivID returns the paper with the given arXiv identifier, or
// ErrNotFound.
func (c *Client) PaperByArxivID(ctx context.Context, arxivID string) (Paper, error) {
	papers, _, err := c.ListPapers(ctx, url.Values{"arxiv_id": {arxivID}})
	if err != nil {
		return Paper{}, err
	}
	if len(papers) == 0 {
		return Paper{}, ErrNotFound
	}
	return papers[0], nil
}

// SearchTitle runs a free-text paper search.
func (c *Client) SearchTitle(ctx context.Context, q string) ([]Paper, error) {
	papers, _, err := c.ListPapers(ctx, url.Values{"q": {q}})
	return papers, err
}

// Repositories returns the repositories linked to the paper with id.
func (c *Client) Repositories(ctx context.Context, paperID string) ([]Repository, error) {
	var p page[Repository]
	if err := c.get(ctx, "/papers/"+url.PathEscape(paperID)+"/repositories/", nil, &p); err != nil {
		return nil, err
	}
	return p.Results, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	u := strings.TrimRight(c.BaseURL, "/") + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	resp, err := c.http.Get(ctx, u, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return fmt.Errorf("Papers with Code request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Papers with Code API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing Papers with Code response: %w", err)
	}
	return nil
}

var githubRepoPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/?#]+)`)

// ToRepository converts r to the shared repository type. The repository
// name is taken from a GitHub URL when the record lacks one.
func (r Repository) ToRepository() types.Repository {
	name := r.Name
	if m := githubRepoPattern.FindStringSubmatch(r.URL); m != nil {
		name = strings.TrimSuffix(m[2], ".git")
	} else if name == "" {
		parts := strings.Split(strings.TrimRight(r.URL, "/"), "/")
		name = parts[len(parts)-1]
	}
	return types.Repository{
		URL:         r.URL,
		Name:        name,
		Description: r.Description,
		Stars:       max(r.Stars, 0),
		Forks:       max(r.Forks, 0),
		Language:    r.Language,
	}
}
