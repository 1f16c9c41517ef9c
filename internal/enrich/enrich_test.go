// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/internal/httputil"
	"github.com/pdiddy/paper-digest/internal/paperswithcode"
	"github.com/pdiddy/paper-digest/pkg/types"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type pwcServer struct {
	mu       sync.Mutex
	requests []string
}

func (s *pwcServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.URL.String())
	s.mu.Unlock()

	q := r.URL.Query()
	switch {
	case r.URL.Path == "/papers/" && q.Get("arxiv_id") == "1706.03762":
		fmt.Fprint(w, `{"results": [{"id": "attn", "title": "Attention Is All You Need"}]}`)
	case r.URL.Path == "/papers/" && q.Get("arxiv_id") == "9999.99999":
		w.WriteHeader(http.StatusBadRequest)
	case r.URL.Path == "/papers/" && q.Get("arxiv_id") != "":
		fmt.Fprint(w, `{"results": []}`)
	case r.URL.Path == "/papers/" && strings.Contains(q.Get("q"), "Diffusion"):
		fmt.Fprint(w, `{"results": [{"id": "ddpm", "title": "Denoising Diffusion Probabilistic Models"}]}`)
	case r.URL.Path == "/papers/":
		fmt.Fprint(w, `{"results": [{"id": "other", "title": "Something Unrelated Entirely"}]}`)
	case r.URL.Path == "/papers/attn/repositories/":
		fmt.Fprint(w, `{"results": [
			{"url": "https://github.com/someone/attention-small", "stars": 50, "forks": 5},
			{"url": "https://github.com/tensorflow/tensor2tensor", "stars": 15000, "forks": 3000}
		]}`)
	case r.URL.Path == "/papers/ddpm/repositories/":
		fmt.Fprint(w, `{"results": [{"url": "https://github.com/hojonathanho/diffusion", "stars": 3000, "forks": 400}]}`)
	default:
		fmt.Fprint(w, `{"results": []}`)
	}
}

func (s *pwcServer) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func newTestEnricher(t *testing.T) (*Enricher, *pwcServer) {
	t.Helper()
	srv := &pwcServer{}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	api := paperswithcode.New(httputil.NewClient("papers_with_code", ts.Client()))
	api.BaseURL = ts.URL
	e := New(api, zerolog.Nop())
	e.Now = func() time.Time { return testNow }
	return e, srv
}

func TestEnrichByArxivID(t *testing.T) {
	e, _ := newTestEnricher(t)
	in := []types.Candidate{{
		Title:      "Attention Is All You Need",
		ArxivID:    "1706.03762",
		Engagement: types.EngagementMetrics{Citations: 90000, SocialMentions: 4},
		Reasons:    []types.TrendingReason{types.ReasonCitationVelocity},
		Score:      1,
	}}

	out, err := e.Enrich(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out, 1)

	c := out[0]
	require.NotNil(t, c.PrimaryRepo)
	assert.Equal(t, "tensor2tensor", c.PrimaryRepo.Name)
	require.Len(t, c.ExtraRepos, 1)
	assert.Equal(t, "attention-small", c.ExtraRepos[0].Name)
	assert.Equal(t, 15000, c.Engagement.Stars)
	assert.Equal(t, 3000, c.Engagement.Forks)
	assert.Equal(t, 90000, c.Engagement.Citations, "other engagement is kept")
	assert.Equal(t, 4, c.Engagement.SocialMentions)
	assert.Equal(t, []types.TrendingReason{types.ReasonCitationVelocity, types.ReasonGitHubActivity}, c.Reasons)
	assert.Greater(t, c.Score, 1.0)

	assert.Nil(t, in[0].PrimaryRepo, "input is not modified")
	assert.Len(t, in[0].Reasons, 1)
}

func TestEnrichByTitle(t *testing.T) {
	e, _ := newTestEnricher(t)
	in := []types.Candidate{
		{Title: "Denoising Diffusion Probabilistic Models"},
		{Title: "Quantum Sheep Herding Dynamics"},
		{Title: "Short"},
	}

	out, err := e.Enrich(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out, 3)

	require.NotNil(t, out[0].PrimaryRepo)
	assert.Equal(t, "diffusion", out[0].PrimaryRepo.Name)
	assert.Equal(t, in[1], out[1], "dissimilar search results are rejected")
	assert.Equal(t, in[2], out[2], "short titles are not searched")
}

func TestEnrichFallsBackToTitleWhenIDUnknown(t *testing.T) {
	e, _ := newTestEnricher(t)
	out, err := e.Enrich(context.Background(), []types.Candidate{
		{Title: "Denoising Diffusion Probabilistic Models", ArxivID: "2006.11239"},
	})
	require.NoError(t, err)
	require.NotNil(t, out[0].PrimaryRepo)
	assert.Equal(t, 3000, out[0].Engagement.Stars)
}

func TestEnrichKeepsFailedItemsInOrder(t *testing.T) {
	e, srv := newTestEnricher(t)
	e.BatchSize = 2

	repo := &types.Repository{URL: "https://github.com/a/b", Name: "b", Stars: 7}
	in := []types.Candidate{
		{Title: "Broken Lookup Paper", ArxivID: "9999.99999"},
		{Title: "Attention Is All You Need", ArxivID: "1706.03762"},
		{Title: "Already Has Repository Attached", PrimaryRepo: repo},
		{Title: "Quantum Sheep Herding Dynamics"},
		{Title: "Denoising Diffusion Probabilistic Models"},
	}

	out, err := e.Enrich(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].Title, out[i].Title, "order preserved at %d", i)
	}
	assert.Nil(t, out[0].PrimaryRepo, "failed lookup keeps the original")
	assert.NotNil(t, out[1].PrimaryRepo)
	assert.Same(t, repo, out[2].PrimaryRepo, "candidates with a repository are not looked up")
	assert.Nil(t, out[3].PrimaryRepo)
	assert.NotNil(t, out[4].PrimaryRepo)

	for _, r := range srv.seen() {
		assert.NotContains(t, r, "Already")
	}
}

func TestEnrichCancelled(t *testing.T) {
	e, _ := newTestEnricher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Enrich(ctx, []types.Candidate{{Title: "Attention Is All You Need", ArxivID: "1706.03762"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnrichEmpty(t *testing.T) {
	e, srv := newTestEnricher(t)
	out, err := e.Enrich(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, srv.seen())
}

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, "Learning Transferable Visual Models From Natural Language Supervision",
		SearchQuery("Learning Transferable Visual Models From Natural Language Supervision"))
	assert.Equal(t, "Image Generation Diffusion", SearchQuery("Image Generation via the Diffusion"))
	assert.Equal(t, "Segment Anything", SearchQuery("  Segment   Anything "))

	long := SearchQuery(strings.Repeat("word ", 40))
	assert.LessOrEqual(t, len(long), maxSearchTitle)
	assert.False(t, strings.HasSuffix(long, " "))
}
