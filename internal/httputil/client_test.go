// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/internal/observability"
)

func TestClientGetSetsHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "paper-digest/test", r.Header.Get("User-Agent"))
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	m := observability.NewMetrics("test")
	c := NewClient("semantic_scholar", ts.Client(), WithUserAgent("paper-digest/test"), WithMetrics(m))
	resp, err := c.Get(context.Background(), ts.URL, http.Header{"x-api-key": []string{"k"}})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("semantic_scholar", "2xx")))
}

func TestClientReturnsStatusErrorAfterRetries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewClient("arxiv", ts.Client())
	c.MaxRetries = 1
	_, err := c.Get(context.Background(), ts.URL, nil)

	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusServiceUnavailable, serr.StatusCode)
	assert.Equal(t, "arxiv returned HTTP 503", err.Error())
}

func TestClientPassesClientErrorsThrough(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	resp, err := NewClient("github", ts.Client()).Get(context.Background(), ts.URL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestClientBreakerOpens(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient("papers_with_code", ts.Client(), WithBreaker(BreakerConfig{FailureThreshold: 2, Timeout: time.Minute}))
	c.MaxRetries = 1

	for i := 0; i < 2; i++ {
		_, err := c.Get(context.Background(), ts.URL, nil)
		var serr *StatusError
		require.ErrorAs(t, err, &serr)
	}
	before := atomic.LoadInt32(&calls)

	_, err := c.Get(context.Background(), ts.URL, nil)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState), "got %v", err)
	assert.Equal(t, before, atomic.LoadInt32(&calls), "open circuit sends no request")
}

func TestClientRateLimitHonorsContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewClient("arxiv", ts.Client(), WithRateLimit(0.001, 1))

	resp, err := c.Get(context.Background(), ts.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Get(ctx, ts.URL, nil)
	assert.Error(t, err, "second request must wait far beyond the deadline")
}
