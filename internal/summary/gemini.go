// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash-lite"

// Gemini generates summaries with a Google Gemini model.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini connects to the Gemini API. The caller closes the returned
// generator.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	m := client.GenerativeModel(model)
	m.SetTemperature(0.3)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}

	return &Gemini{client: client, model: m}, nil
}

// Generate asks the model for a TL;DR of paper.
func (g *Gemini) Generate(ctx context.Context, paper types.Candidate) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(Prompt(paper)))
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}
	return responseText(resp)
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	var parts []string
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}
