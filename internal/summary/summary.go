// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summary generates short TL;DR summaries for top-ranked papers.
// The generator is an explicit capability passed by the caller; nothing in
// the package holds a global model.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// DefaultMaxPapers is how many top papers get a summary when the
// configuration does not say.
const DefaultMaxPapers = 5

// minSummaryLen rejects empty or truncated model output.
const minSummaryLen = 10

// Generator produces a summary of one paper.
type Generator interface {
	Generate(ctx context.Context, paper types.Candidate) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, paper types.Candidate) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, paper types.Candidate) (string, error) {
	return f(ctx, paper)
}

const systemInstruction = "You are an AI research assistant. Generate a concise, informative TL;DR " +
	"summary of the given research paper. Focus on key contributions, methods, " +
	"and practical implications. Keep it under 150 words and accessible to " +
	"both technical and non-technical readers."

// Prompt renders the user prompt for paper.
func Prompt(p types.Candidate) string {
	authors := "Not specified"
	if len(p.Authors) > 0 {
		authors = strings.Join(p.Authors, ", ")
	}
	categories := "Not specified"
	if len(p.Categories) > 0 {
		categories = strings.Join(p.Categories, ", ")
	}
	trending := "High engagement metrics"
	if len(p.Reasons) > 0 {
		reasons := make([]string, len(p.Reasons))
		for i, r := range p.Reasons {
			reasons[i] = string(r)
		}
		trending = strings.Join(reasons, ", ")
	}
	code := "No"
	if p.PrimaryRepo != nil {
		code = fmt.Sprintf("Yes (%s)", p.PrimaryRepo.URL)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Paper Title: %s\n\n", p.Title)
	fmt.Fprintf(&b, "Abstract: %s\n\n", p.Abstract)
	fmt.Fprintf(&b, "Authors: %s\n\n", authors)
	fmt.Fprintf(&b, "Categories: %s\n\n", categories)
	fmt.Fprintf(&b, "Why it's trending: %s\n\n", trending)
	fmt.Fprintf(&b, "Code availability: %s\n\n", code)
	b.WriteString("Please provide a TL;DR summary:")
	return b.String()
}

// Summarize returns a copy of papers in which each of the first limit papers
// lacking a summary has one from gen. Generation failures and too-short
// output are logged and leave the paper without a summary. The second
// result is the number of summaries added.
func Summarize(ctx context.Context, gen Generator, papers []types.Candidate, limit int, logger zerolog.Logger) ([]types.Candidate, int) {
	out := make([]types.Candidate, len(papers))
	copy(out, papers)
	if gen == nil || limit <= 0 {
		return out, 0
	}

	added := 0
	for i := range out[:min(limit, len(out))] {
		if out[i].Summary != "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		text, err := gen.Generate(ctx, out[i])
		if err != nil {
			logger.Warn().Err(err).Str("title", out[i].Title).Msg("summary generation failed")
			continue
		}
		text = strings.TrimSpace(text)
		if len(text) <= minSummaryLen {
			logger.Warn().Str("title", out[i].Title).Msg("generated summary is empty")
			continue
		}
		out[i].Summary = text
		added++
	}
	logger.Info().Int("added", added).Msg("summaries generated")
	return out, added
}
