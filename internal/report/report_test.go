// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/pkg/types"
)

func sampleResult() types.DiscoveryResult {
	return types.DiscoveryResult{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		Papers: []types.Candidate{
			{
				Title:   "Attention Is All You Need",
				Authors: []string{"Ashish Vaswani", "Noam Shazeer"},
				Score:   87.4,
				Source:  types.SourceArxiv,
				Reasons: []types.TrendingReason{types.ReasonGitHubActivity, types.ReasonCodeQuality},
				Summary: "Transformers replace recurrence with attention.",
			},
			{
				Title:   strings.Repeat("Very Long Title ", 8),
				Authors: []string{"Solo Author"},
				Score:   12,
				Source:  types.SourceGitHubTrending,
			},
		},
		SourceStats:      map[string]int{types.SourceArxiv: 3, types.SourceGitHubTrending: 2},
		TotalDiscovered:  5,
		TotalAfterDedup:  4,
		TotalAfterFilter: 2,
		Elapsed:          1500 * time.Millisecond,
		ElapsedSeconds:   1.5,
	}
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(sampleResult(), &buf)
	out := buf.String()

	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "Rank"))
	assert.Contains(t, lines[0], "Why")
	assert.Equal(t, strings.Repeat("-", 130), lines[1])

	assert.Contains(t, lines[2], "Attention Is All You Need")
	assert.Contains(t, lines[2], "Ashish Vaswani et al.")
	assert.Contains(t, lines[2], "87.4")
	assert.Contains(t, lines[2], "High GitHub activity and High-quality implementation")
	assert.Contains(t, lines[3], "Transformers replace recurrence with attention.")

	assert.Contains(t, lines[4], "...")
	assert.Contains(t, lines[4], "General interest")

	assert.Contains(t, out, "2 papers from 5 discovered (1 duplicates removed)")
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(types.DiscoveryResult{}, &buf)
	assert.Equal(t, "No papers found.\n", buf.String())
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(sampleResult(), &buf))

	var got types.DiscoveryResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Papers, 2)
	assert.Equal(t, 87.4, got.Papers[0].Score)
	assert.Equal(t, 1.5, got.ElapsedSeconds)
	assert.Contains(t, buf.String(), `"elapsed_seconds": 1.5`)
	assert.Contains(t, buf.String(), `"trending_reasons": [`)
	assert.Contains(t, buf.String(), "\n  \"papers\"")
}

func TestFormatYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatYAML(sampleResult(), &buf))

	out := buf.String()
	assert.Contains(t, out, "run_id: run-1")
	assert.Contains(t, out, "total_after_deduplication: 4")
	assert.Contains(t, out, "elapsed_seconds: 1.5\n")
	assert.NotContains(t, out, "elapsed: ")

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	papers, ok := doc["papers"].([]any)
	require.True(t, ok)
	assert.Len(t, papers, 2)
}

func TestWrite(t *testing.T) {
	for _, format := range []string{"", "table", "JSON", "yaml", "yml"} {
		var buf bytes.Buffer
		require.NoError(t, Write(format, sampleResult(), &buf), format)
		assert.NotEmpty(t, buf.String(), format)
	}

	err := Write("csv", sampleResult(), &bytes.Buffer{})
	assert.ErrorContains(t, err, `unknown output format "csv"`)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "digest.json")
	require.NoError(t, WriteFile(path, sampleResult()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	path = filepath.Join(dir, "digest.yaml")
	require.NoError(t, WriteFile(path, sampleResult()))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "papers:")

	assert.Error(t, WriteFile(filepath.Join(dir, "digest.txt"), sampleResult()))
	_, err = os.Stat(filepath.Join(dir, "digest.txt"))
	assert.True(t, os.IsNotExist(err), "nothing is created for an unknown extension")
}

func TestFormatAuthors(t *testing.T) {
	assert.Equal(t, "", formatAuthors(nil))
	assert.Equal(t, "Ada", formatAuthors([]string{"Ada"}))
	assert.Equal(t, "Ada et al.", formatAuthors([]string{"Ada", "Alan"}))
	assert.Equal(t, "Bartholomew...", truncate("Bartholomew Montgomery", 14))
}
