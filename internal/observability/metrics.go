// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for discovery runs. Collectors
// live on a private registry so that several instances can coexist in one
// process; a one-shot run exports them with WriteTextfile.
//
// All Record methods are safe on a nil *Metrics and do nothing.
type Metrics struct {
	registry *prometheus.Registry

	// RunsTotal counts completed discovery runs.
	RunsTotal prometheus.Counter

	// RunDuration observes end-to-end run duration in seconds.
	RunDuration prometheus.Histogram

	// SourceFetches counts source fetches, labeled by source and outcome
	// ("ok" or "error").
	SourceFetches *prometheus.CounterVec

	// SourceDuration observes fetch duration per source in seconds.
	SourceDuration *prometheus.HistogramVec

	// CandidatesBySource counts raw candidates contributed per source.
	CandidatesBySource *prometheus.CounterVec

	// StageCandidates records how many candidates survived each stage of
	// the last run ("discovered", "deduplicated", "filtered", "ranked").
	StageCandidates *prometheus.GaugeVec

	// EnrichmentFailures counts wholesale enrichment failures.
	EnrichmentFailures prometheus.Counter

	// ProviderRequests counts HTTP requests to provider APIs, labeled by
	// provider and status class.
	ProviderRequests *prometheus.CounterVec

	// ProviderRateLimited counts 429 responses per provider.
	ProviderRateLimited *prometheus.CounterVec
}

// NewMetrics creates Metrics registered on a fresh registry. The namespace
// prefixes every metric name.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RunsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of discovery runs completed",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of discovery runs in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		SourceFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_fetches_total",
			Help:      "Total number of source fetches by outcome",
		}, []string{"source", "outcome"}),
		SourceDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_fetch_duration_seconds",
			Help:      "Duration of source fetches in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"source"}),
		CandidatesBySource: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Total number of raw candidates contributed by each source",
		}, []string{"source"}),
		StageCandidates: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_candidates",
			Help:      "Candidates remaining after each pipeline stage in the last run",
		}, []string{"stage"}),
		EnrichmentFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failures_total",
			Help:      "Total number of enrichment passes that failed as a whole",
		}),
		ProviderRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of HTTP requests to provider APIs",
		}, []string{"provider", "status"}),
		ProviderRateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_rate_limited_total",
			Help:      "Total number of rate-limited responses from provider APIs",
		}, []string{"provider"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordSourceFetch records one source fetch.
func (m *Metrics) RecordSourceFetch(source string, count int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SourceFetches.WithLabelValues(source, outcome).Inc()
	m.SourceDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	m.CandidatesBySource.WithLabelValues(source).Add(float64(count))
}

// RecordStages records the stage totals of a finished run.
func (m *Metrics) RecordStages(discovered, deduplicated, filtered, ranked int) {
	if m == nil {
		return
	}
	m.StageCandidates.WithLabelValues("discovered").Set(float64(discovered))
	m.StageCandidates.WithLabelValues("deduplicated").Set(float64(deduplicated))
	m.StageCandidates.WithLabelValues("filtered").Set(float64(filtered))
	m.StageCandidates.WithLabelValues("ranked").Set(float64(ranked))
}

// RecordRun records the completion of a run.
func (m *Metrics) RecordRun(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}

// RecordEnrichmentFailure records a wholesale enrichment failure.
func (m *Metrics) RecordEnrichmentFailure() {
	if m == nil {
		return
	}
	m.EnrichmentFailures.Inc()
}

// RecordProviderRequest records one HTTP response from a provider API.
func (m *Metrics) RecordProviderRequest(provider string, statusCode int) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider, fmt.Sprintf("%dxx", statusCode/100)).Inc()
	if statusCode == 429 {
		m.ProviderRateLimited.WithLabelValues(provider).Inc()
	}
}

// WriteTextfile writes every collected metric to path in the text
// exposition format read by the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
