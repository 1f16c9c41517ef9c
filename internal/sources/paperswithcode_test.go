// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/internal/paperswithcode"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const pwcPage1 = `{"count": 3, "next": "%s/papers/?page=2", "results": [
  {"id": "diffusion-beats-gans", "arxiv_id": "2603.04444v1", "title": "Diffusion Beats GANs Again",
   "abstract": "Samples.", "authors": ["Ian Goodfellow"], "published": "2026-03-01",
   "url_pdf": "https://example.org/d.pdf", "tasks": ["Image Generation"],
   "repositories": [
     {"url": "https://github.com/lab/diffusion-extras", "stars": 40, "forks": 2, "description": "Extra notebooks"},
     {"url": "https://github.com/lab/diffusion.git", "stars": 800, "forks": 120, "description": "Official code with tutorial"}
   ]},
  {"id": "unpopular", "title": "Unpopular Code", "published": "2026-03-01",
   "repositories": [{"url": "https://github.com/x/y", "stars": 3}]},
  {"id": "ancient", "title": "Ancient Paper", "published": "2019-01-01",
   "repositories": [{"url": "https://github.com/x/z", "stars": 5000}]}
]}`

const pwcPage2 = `{"count": 1, "next": null, "results": [
  {"id": "no-date", "title": "Undated But Popular",
   "repositories": [{"url": "https://github.com/a/b", "stars": 10}]}
]}`

func TestPapersWithCodeFetch(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/papers/", r.URL.Path)
		assert.Equal(t, "-github_stars", r.URL.Query().Get("ordering"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, pwcPage2)
			return
		}
		fmt.Fprintf(w, pwcPage1, ts.URL)
	}))
	defer ts.Close()

	api := paperswithcode.New(testClient(ts, types.SourcePapersWithCode))
	api.BaseURL = ts.URL
	p := NewPapersWithCode(api)
	p.Now = fixedNow

	papers, err := p.Fetch(context.Background(), types.Interests{}, 30, 10)
	require.NoError(t, err)
	require.Len(t, papers, 2)

	titles := []string{papers[0].Title, papers[1].Title}
	assert.ElementsMatch(t, []string{"Diffusion Beats GANs Again", "Undated But Popular"}, titles)

	var d types.Candidate
	for _, c := range papers {
		if c.Title == "Diffusion Beats GANs Again" {
			d = c
		}
	}
	assert.Equal(t, "2603.04444", d.ArxivID)
	assert.Equal(t, "https://arxiv.org/pdf/2603.04444.pdf", d.PDFURL)
	assert.Equal(t, []string{"Image Generation"}, d.Categories)
	assert.Equal(t, types.SourcePapersWithCode, d.Source)

	require.NotNil(t, d.PrimaryRepo)
	assert.Equal(t, "diffusion", d.PrimaryRepo.Name, ".git suffix is stripped")
	assert.Equal(t, 800, d.PrimaryRepo.Stars)
	assert.True(t, d.PrimaryRepo.HasDocumentation)
	assert.True(t, d.PrimaryRepo.HasTests)
	require.Len(t, d.ExtraRepos, 1)
	assert.True(t, d.ExtraRepos[0].HasExamples)

	assert.Equal(t, 840, d.Engagement.Stars)
	assert.Equal(t, 122, d.Engagement.Forks)
	assert.Equal(t, 14, d.Engagement.DaysSincePublication)
	assert.Equal(t, []types.TrendingReason{
		types.ReasonGitHubActivity,
		types.ReasonRecentPublication,
		types.ReasonCodeQuality,
		types.ReasonCommunityInterest,
	}, d.Reasons)
}

func TestPapersWithCodeFirstPageFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	api := paperswithcode.New(testClient(ts, types.SourcePapersWithCode))
	api.BaseURL = ts.URL
	_, err := NewPapersWithCode(api).Fetch(context.Background(), types.Interests{}, 7, 10)
	assert.ErrorContains(t, err, "HTTP 400")
}
