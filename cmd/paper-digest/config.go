// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-digest/internal/observability"
	"github.com/pdiddy/paper-digest/internal/summary"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "paper-digest/0.1"
)

// appConfig is the full configuration file.
type appConfig struct {
	Interests types.Interests             `mapstructure:"interests"`
	Discovery types.DiscoveryConfig       `mapstructure:"discovery"`
	HTTP      types.HTTPConfig            `mapstructure:"http"`
	Summary   types.SummaryConfig         `mapstructure:"summary"`
	Logging   observability.LoggingConfig `mapstructure:"logging"`
}

func defaultAppConfig() appConfig {
	return appConfig{
		Discovery: types.DefaultDiscoveryConfig(),
		HTTP: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		Summary: types.SummaryConfig{
			Model:     summary.DefaultModel,
			MaxPapers: summary.DefaultMaxPapers,
		},
		Logging: observability.DefaultLoggingConfig(),
	}
}

// loadConfig decodes v over the defaults. A configured source list
// replaces the default list instead of being merged into it.
func loadConfig(v *viper.Viper) (appConfig, error) {
	cfg := defaultAppConfig()
	defaultSources := cfg.Discovery.Sources
	cfg.Discovery.Sources = nil

	if err := v.Unmarshal(&cfg); err != nil {
		return appConfig{}, fmt.Errorf("decoding configuration: %w", err)
	}
	if len(cfg.Discovery.Sources) == 0 {
		cfg.Discovery.Sources = defaultSources
	}
	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = defaultTimeout
	}
	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = defaultUserAgent
	}
	return cfg, nil
}
