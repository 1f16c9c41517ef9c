// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/pkg/types"
)

const arxivTestFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2603.01234v2</id>
    <title>Sparse
      Attention   Revisited</title>
    <summary>  We revisit
    sparse attention.  </summary>
    <published>2026-03-12T10:00:00Z</published>
    <author><name>Ada Lovelace</name></author>
    <author><name> Alan Turing </name></author>
    <link href="http://arxiv.org/abs/2603.01234v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2603.01234v2" rel="related" type="application/pdf"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2501.00001v1</id>
    <title>An Old Paper</title>
    <summary>Too old.</summary>
    <published>2025-01-01T00:00:00Z</published>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2603.01234v1</id>
    <title>Sparse Attention Revisited</title>
    <published>2026-03-12T10:00:00Z</published>
  </entry>
</feed>`

func TestBuildArxivQueries(t *testing.T) {
	catClause := "(cat:cs.AI OR cat:cs.LG OR cat:cs.CV OR cat:cs.CL OR cat:cs.RO OR cat:stat.ML)"

	got := buildArxivQueries(types.Interests{
		Categories:    []string{"cs.LG"},
		ResearchAreas: []string{"robotics"},
		Keywords:      []string{"attention", "sparsity", "pruning", "distillation"},
	})
	assert.Equal(t, []string{
		"cat:cs.LG",
		catClause + " AND all:robotics",
		catClause + ` AND (all:"attention" OR all:"sparsity" OR all:"pruning")`,
		catClause + ` AND (all:"distillation")`,
	}, got)
}

func TestBuildArxivQueriesFallbackAndCap(t *testing.T) {
	assert.Equal(t, []string{arxivFallbackQuery}, buildArxivQueries(types.Interests{}))

	many := buildArxivQueries(types.Interests{
		Categories: []string{"cs.AI", "cs.LG", "cs.CV", "cs.CL", "cs.RO", "cs.NE", "stat.ML"},
	})
	assert.Len(t, many, maxQueries)
}

func TestArxivFetch(t *testing.T) {
	var captured *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, arxivTestFeed)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	a := NewArxiv(testClient(ts, types.SourceArxiv))
	a.Now = fixedNow

	papers, err := a.Fetch(context.Background(), types.Interests{Categories: []string{"cs.LG"}}, 14, 25)
	require.NoError(t, err)

	q := captured.URL.Query()
	assert.Equal(t, "cat:cs.LG", q.Get("search_query"))
	assert.Equal(t, "25", q.Get("max_results"))
	assert.Equal(t, "submittedDate", q.Get("sortBy"))
	assert.Equal(t, "descending", q.Get("sortOrder"))

	require.Len(t, papers, 1, "old entry and version duplicate are dropped")
	p := papers[0]
	assert.Equal(t, "Sparse Attention Revisited", p.Title)
	assert.Equal(t, "We revisit sparse attention.", p.Abstract)
	assert.Equal(t, "2603.01234", p.ArxivID)
	assert.Equal(t, "https://arxiv.org/abs/2603.01234", p.ArxivURL)
	assert.Equal(t, "http://arxiv.org/pdf/2603.01234v2", p.PDFURL)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, p.Authors)
	assert.Equal(t, []string{"cs.LG", "cs.CL"}, p.Categories)
	assert.Equal(t, types.SourceArxiv, p.Source)
	assert.Equal(t, []types.TrendingReason{types.ReasonRecentPublication}, p.Reasons)
	assert.Equal(t, 3, p.Engagement.DaysSincePublication)
	assert.Greater(t, p.Score, 0.0)
}

func TestArxivFetchTruncates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">`)
		for i := 0; i < 4; i++ {
			fmt.Fprintf(&b, `<entry><id>http://arxiv.org/abs/2603.0000%dv1</id><title>Paper %d</title><published>2026-03-14T00:00:00Z</published></entry>`, i, i)
		}
		b.WriteString(`</feed>`)
		fmt.Fprint(w, b.String())
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	a := NewArxiv(testClient(ts, types.SourceArxiv))
	a.Now = fixedNow
	papers, err := a.Fetch(context.Background(), types.Interests{}, 14, 2)
	require.NoError(t, err)
	assert.Len(t, papers, 2)
}

func TestArxivFetchPartialFailure(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, arxivTestFeed)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	a := NewArxiv(testClient(ts, types.SourceArxiv))
	a.Now = fixedNow
	papers, err := a.Fetch(context.Background(), types.Interests{Categories: []string{"cs.LG", "cs.CL"}}, 14, 10)
	require.NoError(t, err)
	assert.Len(t, papers, 1)
}

func TestArxivFetchAllQueriesFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	a := NewArxiv(testClient(ts, types.SourceArxiv))
	_, err := a.Fetch(context.Background(), types.Interests{}, 7, 10)
	assert.ErrorContains(t, err, "arXiv API returned HTTP 400")
}

func TestArxivFetchMalformedXML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<feed><entry>")
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	_, err := NewArxiv(testClient(ts, types.SourceArxiv)).Fetch(context.Background(), types.Interests{}, 7, 10)
	assert.ErrorContains(t, err, "parsing arXiv response")
}

func TestExtractArxivID(t *testing.T) {
	assert.Equal(t, "2301.07041", extractArxivID("http://arxiv.org/abs/2301.07041v1"))
	assert.Equal(t, "2301.07041", extractArxivID("http://arxiv.org/abs/2301.07041"))
	assert.Empty(t, extractArxivID("http://example.com/2301.07041"))
}
