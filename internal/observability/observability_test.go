// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestNewLoggerToWritesJSONWithRunContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LoggingConfig{Level: "info", Format: "json"})
	logger = WithSourceContext(WithRunContext(logger, "run-1"), "arxiv")

	logger.Debug().Msg("hidden")
	logger.Info().Int("count", 3).Msg("fetched")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "arxiv", entry["source"])
	assert.Equal(t, "fetched", entry["message"])
	assert.EqualValues(t, 3, entry["count"])
}

func TestNewLoggerToConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LoggingConfig{Level: "warn", Format: "console"})
	logger.Warn().Msg("source failed")
	assert.Contains(t, buf.String(), "source failed")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestRecordSourceFetch(t *testing.T) {
	m := NewMetrics("test")
	m.RecordSourceFetch("arxiv", 12, time.Second, nil)
	m.RecordSourceFetch("arxiv", 0, time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFetches.WithLabelValues("arxiv", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFetches.WithLabelValues("arxiv", "error")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.CandidatesBySource.WithLabelValues("arxiv")))
}

func TestRecordStagesAndRun(t *testing.T) {
	m := NewMetrics("test")
	m.RecordStages(10, 8, 5, 3)
	m.RecordRun(2 * time.Second)
	m.RecordEnrichmentFailure()

	assert.Equal(t, 8.0, testutil.ToFloat64(m.StageCandidates.WithLabelValues("deduplicated")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StageCandidates.WithLabelValues("ranked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrichmentFailures))
}

func TestRecordProviderRequest(t *testing.T) {
	m := NewMetrics("test")
	m.RecordProviderRequest("github", 200)
	m.RecordProviderRequest("github", 429)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("github", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("github", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRateLimited.WithLabelValues("github")))
}

func TestMetricsInstancesAreIndependent(t *testing.T) {
	a, b := NewMetrics("same"), NewMetrics("same")
	a.RecordRun(time.Second)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RunsTotal))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSourceFetch("x", 1, time.Second, nil)
		m.RecordStages(1, 1, 1, 1)
		m.RecordRun(time.Second)
		m.RecordEnrichmentFailure()
		m.RecordProviderRequest("x", 500)
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")))
	assert.Nil(t, m.Registry())
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics("paper_digest")
	m.RecordRun(time.Second)

	path := filepath.Join(t.TempDir(), "digest.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "paper_digest_runs_total 1")
}
