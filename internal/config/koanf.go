// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/novelrec/config.yaml",
	"/etc/novelrec/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "NOVELREC_CONFIG"

// envPrefix is stripped from environment variables before mapping them
// to config paths: NOVELREC_RECOMMEND_TOP_K -> recommend.top_k.
const envPrefix = "NOVELREC_"

// Default returns a Config with every default applied. The recommend
// defaults are the production values: touching them changes what the
// engine computes.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/novelrec.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8380,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		API: APIConfig{
			DefaultLimit: 10,
			MaxLimit:     50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Recommend: RecommendConfig{
			MinInteractions:    2,
			TopK:               20,
			TopN:               20,
			ContentThreshold:   0.1,
			MaxFeatures:        3000,
			MinDF:              2,
			MaxDF:              0.8,
			BlendCF:            0.6,
			BlendContent:       0.4,
			PopularityFavorite: 0.5,
			PopularityView:     0.3,
			PopularityRating:   0.2,
			Workers:            0,
			Schedule:           "0 3 * * *",
			TrainOnStartup:     false,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and NOVELREC_* environment variables, then validates it.
// Precedence: env > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// configSections are the recognized top-level sections for env var
// mapping. The section name is followed by the field name verbatim, so
// NOVELREC_RECOMMEND_MIN_INTERACTIONS -> recommend.min_interactions.
var configSections = []string{"database", "server", "api", "logging", "recommend"}

// envTransformFunc maps a stripped, upper-case env var name to a koanf
// path. Unrecognized names map to "" and are ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	for _, section := range configSections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive as strings from environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}
