// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discovery

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/paper-digest/pkg/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg and returns a *ConfigError listing every violated
// rule, or nil.
func Validate(cfg types.DiscoveryConfig) error {
	var problems []string

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ConfigError{Problems: []string{err.Error()}}
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	if sum := cfg.Weights.Sum(); sum > 1+1e-9 {
		problems = append(problems, fmt.Sprintf("weights sum to %.2f, must not exceed 1", sum))
	}

	seen := make(map[string]bool)
	for _, s := range cfg.Sources {
		if s.Name != "" && seen[s.Name] {
			problems = append(problems, fmt.Sprintf("source %q listed more than once", s.Name))
		}
		seen[s.Name] = true
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s (got %v)", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s (got %v)", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s (got %v)", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation (got %v)", field, fe.Tag(), fe.Value())
	}
}

// windowFor returns the look-back window for a source: at least 14 days
// for arXiv, eight times the base window capped at 60 days for Semantic
// Scholar, the base window otherwise. A positive per-source override wins.
func windowFor(src types.SourceConfig, daysBack int) int {
	if src.DaysBack > 0 {
		return src.DaysBack
	}
	switch src.Name {
	case types.SourceArxiv:
		return max(daysBack, 14)
	case types.SourceSemanticScholar:
		return min(daysBack*8, 60)
	default:
		return daysBack
	}
}

func capFor(src types.SourceConfig, maxPerSource int) int {
	if src.MaxResults > 0 {
		return src.MaxResults
	}
	return maxPerSource
}
