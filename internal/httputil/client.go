// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-digest/internal/observability"
)

// StatusError reports a server-side failure that survived every retry.
type StatusError struct {
	Provider   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Provider, e.StatusCode)
}

// BreakerConfig configures the circuit breaker guarding one provider.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit.
	FailureThreshold uint32

	// Timeout is how long the circuit stays open before a probe request.
	Timeout time.Duration
}

// DefaultBreakerConfig opens after five consecutive failures for 30 s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{FailureThreshold: 5, Timeout: 30 * time.Second}
}

// NewBreaker returns a circuit breaker named after the provider.
func NewBreaker(name string, cfg BreakerConfig) *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	})
}

// Client sends requests to one provider API. Every request waits on the
// rate limiter, passes through the circuit breaker and is retried by
// DoWithRetry. Responses that are still 5xx after retries count as
// breaker failures and are returned as *StatusError.
type Client struct {
	// Name identifies the provider in errors and metrics.
	Name string

	HTTP       *http.Client
	UserAgent  string
	MaxRetries int

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*http.Response]
	metrics *observability.Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRateLimit limits the client to perSecond requests with the given
// burst.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBreaker guards the client with a circuit breaker.
func WithBreaker(cfg BreakerConfig) ClientOption {
	return func(c *Client) {
		c.breaker = NewBreaker(c.Name, cfg)
	}
}

// WithMetrics records every final response status.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithUserAgent sets the User-Agent header of every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.UserAgent = ua
	}
}

// NewClient returns a Client for the named provider. A nil httpClient
// uses one with a 30 s timeout.
func NewClient(name string, httpClient *http.Client, opts ...ClientOption) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{Name: name, HTTP: httpClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req. The caller closes the body of a successful response.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(ctx)
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if c.breaker == nil {
		return c.send(ctx, req)
	}
	return c.breaker.Execute(func() (*http.Response, error) {
		return c.send(ctx, req)
	})
}

// Get sends a GET request for url with the given extra headers.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", c.Name, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.Do(ctx, req)
}

// RoundTrip implements http.RoundTripper, so SDKs that take an
// *http.Client share the client's limiter, breaker and retries.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.Do(req.Context(), req)
}

// StdClient returns an *http.Client whose transport is c.
func (c *Client) StdClient() *http.Client {
	return &http.Client{Transport: c}
}

func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := DoWithRetry(ctx, c.HTTP, req, c.MaxRetries)
	if err != nil {
		return nil, err
	}
	c.metrics.RecordProviderRequest(c.Name, resp.StatusCode)
	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{Provider: c.Name, StatusCode: resp.StatusCode}
	}
	return resp, nil
}
