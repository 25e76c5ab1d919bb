// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

// Package config defines the Novelrec configuration and loads it from
// layered sources: built-in defaults, an optional YAML file, and
// NOVELREC_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for both compute and serve modes.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// DatabaseConfig controls the embedded DuckDB instance.
type DatabaseConfig struct {
	// Path is the DuckDB file location. Empty means in-memory, which
	// is only useful for tests.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads limits DuckDB worker threads. 0 uses all cores.
	Threads int `koanf:"threads" validate:"min=0"`
}

// ServerConfig controls the serve-mode HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs requests per RateLimitWindow per client IP on the
	// read path. 0 disables rate limiting.
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// APIConfig controls read-path response shaping.
type APIConfig struct {
	// DefaultLimit applies when a request omits the limit parameter.
	DefaultLimit int `koanf:"default_limit" validate:"min=1"`

	// MaxLimit clamps the limit parameter.
	MaxLimit int `koanf:"max_limit" validate:"min=1"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level      string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal disabled"`
	Format     string `koanf:"format" validate:"oneof=json console"`
	Caller     bool   `koanf:"caller"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"min=0"`
	MaxBackups int    `koanf:"max_backups" validate:"min=0"`
}

// RecommendConfig holds every tunable of the offline engine. The
// defaults reproduce the production behavior exactly; the fields exist
// so operators can experiment without a rebuild.
type RecommendConfig struct {
	// MinInteractions is the matrix filter threshold: users and novels
	// with fewer interactions are dropped (single pass).
	MinInteractions int `koanf:"min_interactions" validate:"min=1"`

	// TopK neighbors retained per novel in the similarity cache.
	TopK int `koanf:"top_k" validate:"min=1"`

	// TopN recommendations retained per user.
	TopN int `koanf:"top_n" validate:"min=1"`

	// ContentThreshold is the minimum cosine similarity for a content
	// neighbor to be cached. Exclusive bound.
	ContentThreshold float64 `koanf:"content_threshold" validate:"gte=0,lt=1"`

	// Text vectorizer limits.
	MaxFeatures int     `koanf:"max_features" validate:"min=1"`
	MinDF       int     `koanf:"min_df" validate:"min=1"`
	MaxDF       float64 `koanf:"max_df" validate:"gt=0,lte=1"`

	// Blend weights for merging CF and content recommendations on the
	// read path.
	BlendCF      float64 `koanf:"blend_cf" validate:"gte=0,lte=1"`
	BlendContent float64 `koanf:"blend_content" validate:"gte=0,lte=1"`

	// Popularity weights for the fallback ranking.
	PopularityFavorite float64 `koanf:"popularity_favorite" validate:"gte=0,lte=1"`
	PopularityView     float64 `koanf:"popularity_view" validate:"gte=0,lte=1"`
	PopularityRating   float64 `koanf:"popularity_rating" validate:"gte=0,lte=1"`

	// Workers bounds similarity computation parallelism. 0 uses all cores.
	Workers int `koanf:"workers" validate:"min=0"`

	// Serve-mode trainer schedule (cron expression) and startup behavior.
	Schedule       string `koanf:"schedule"`
	TrainOnStartup bool   `koanf:"train_on_startup"`
}

const weightSumTolerance = 1e-9

var validate = validator.New()

// Validate checks struct tags plus the cross-field weight constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	r := c.Recommend
	if diff := r.BlendCF + r.BlendContent - 1.0; diff > weightSumTolerance || diff < -weightSumTolerance {
		return fmt.Errorf("recommend.blend_cf + recommend.blend_content must sum to 1.0, got %v",
			r.BlendCF+r.BlendContent)
	}
	popSum := r.PopularityFavorite + r.PopularityView + r.PopularityRating
	if diff := popSum - 1.0; diff > weightSumTolerance || diff < -weightSumTolerance {
		return fmt.Errorf("recommend popularity weights must sum to 1.0, got %v", popSum)
	}
	if c.API.DefaultLimit > c.API.MaxLimit {
		return fmt.Errorf("api.default_limit %d exceeds api.max_limit %d",
			c.API.DefaultLimit, c.API.MaxLimit)
	}
	return nil
}
