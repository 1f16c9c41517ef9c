// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a discovery result for people and for downstream
// tools: a ranked table, indented JSON, or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/internal/scoring"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// Supported output formats.
const (
	FormatTableName = "table"
	FormatJSONName  = "json"
	FormatYAMLName  = "yaml"
)

// Write renders r to w in the named format.
func Write(format string, r types.DiscoveryResult, w io.Writer) error {
	switch strings.ToLower(format) {
	case "", FormatTableName:
		FormatTable(r, w)
		return nil
	case FormatJSONName:
		return FormatJSON(r, w)
	case FormatYAMLName, "yml":
		return FormatYAML(r, w)
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// WriteFile renders r into path, choosing the format from its extension.
func WriteFile(path string, r types.DiscoveryResult) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format != FormatJSONName && format != FormatYAMLName && format != "yml" {
		return fmt.Errorf("cannot infer export format from %q (use .json, .yaml or .yml)", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(format, r, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FormatTable writes the ranked papers as a human-readable table to w.
func FormatTable(r types.DiscoveryResult, w io.Writer) {
	if len(r.Papers) == 0 {
		fmt.Fprintln(w, "No papers found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-6s  %-16s  %s\n",
		"Rank", "Title", "Authors", "Score", "Source", "Why")
	fmt.Fprintln(w, strings.Repeat("-", 130))

	for i, p := range r.Papers {
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-6.1f  %-16s  %s\n",
			i+1, truncate(p.Title, 60), formatAuthors(p.Authors), p.Score, p.Source,
			scoring.DescribeReasons(p.Reasons))
		if p.Summary != "" {
			fmt.Fprintf(w, "      %s\n", p.Summary)
		}
	}

	fmt.Fprintf(w, "\n%d papers from %d discovered", len(r.Papers), r.TotalDiscovered)
	if dups := r.TotalDiscovered - r.TotalAfterDedup; dups > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", dups)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes r as indented JSON to w.
func FormatJSON(r types.DiscoveryResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// FormatYAML writes r as YAML to w.
func FormatYAML(r types.DiscoveryResult, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
