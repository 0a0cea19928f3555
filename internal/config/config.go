// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

// Package config provides layered configuration loading for Cinerec.
//
// Configuration is loaded via Koanf v2 with layered sources
// (highest priority wins):
//   - Environment variables (SERVER_PORT, DATABASE_PATH, ...)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// The resulting Config struct is constructed once at startup and passed
// explicitly to the constructors that need it. There is no ambient
// global configuration.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Cinerec server.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `koanf:"server"`

	// Logging contains log level and format settings.
	Logging LoggingConfig `koanf:"logging"`

	// Database contains DuckDB storage settings.
	Database DatabaseConfig `koanf:"database"`

	// Recommend contains recommendation engine settings.
	Recommend RecommendConfig `koanf:"recommend"`

	// OMDB contains settings for the OMDb metadata client.
	OMDB OMDBConfig `koanf:"omdb"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the listen address. Default: 0.0.0.0.
	Host string `koanf:"host"`

	// Port is the listen port. Default: 8080.
	Port int `koanf:"port"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimitPerMinute is the per-IP request budget for API endpoints.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller includes caller file and line in log output.
	Caller bool `koanf:"caller"`
}

// DatabaseConfig contains DuckDB storage settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file path.
	// Use ":memory:" for an in-memory database.
	Path string `koanf:"path"`

	// RatingsCSV is the path to the historical ratings CSV to ingest at
	// startup. Ignored if empty or if the ratings table is already populated.
	RatingsCSV string `koanf:"ratings_csv"`

	// MoviesCSV is the path to the movie metadata CSV (with a precomputed
	// bag_of_words column) to ingest at startup.
	MoviesCSV string `koanf:"movies_csv"`

	// MetadataCSV is the path to a raw movie metadata CSV (title, genres,
	// cast, director, keywords) to ingest at startup. The bag_of_words
	// column is assembled during ingestion. Mutually exclusive with
	// MoviesCSV.
	MetadataCSV string `koanf:"metadata_csv"`

	// WeightedScoresCSV is the path to the weighted popularity score CSV
	// to ingest at startup.
	WeightedScoresCSV string `koanf:"weighted_scores_csv"`

	// MaxMemory caps DuckDB memory usage (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads limits DuckDB worker threads. 0 = use all cores.
	Threads int `koanf:"threads"`
}

// RecommendConfig contains recommendation engine settings.
type RecommendConfig struct {
	// ModelPath is the path to the serialized collaborative model.
	ModelPath string `koanf:"model_path"`

	// DefaultN is the number of recommendations returned when the
	// request does not specify one.
	DefaultN int `koanf:"default_n"`

	// MaxN caps the number of recommendations per request.
	MaxN int `koanf:"max_n"`

	// SimilarK is the neighborhood size for content-based ratings.
	SimilarK int `koanf:"similar_k"`

	// CollaborativeWeight is the hybrid-rating weight for the
	// collaborative signal. The three weights are tunable constants;
	// they are not derived at runtime.
	CollaborativeWeight float64 `koanf:"collaborative_weight"`

	// ContentWeight is the hybrid-rating weight for the content signal.
	ContentWeight float64 `koanf:"content_weight"`

	// PopularityWeight is the hybrid-rating weight for the weighted
	// popularity score.
	PopularityWeight float64 `koanf:"popularity_weight"`

	// DefaultScore is returned for movies absent from the weighted
	// popularity table.
	DefaultScore float64 `koanf:"default_score"`
}

// OMDBConfig contains settings for the OMDb metadata client.
type OMDBConfig struct {
	// Enabled toggles the OMDb metadata endpoint.
	Enabled bool `koanf:"enabled"`

	// URL is the OMDb API base URL.
	URL string `koanf:"url"`

	// APIKey is the OMDb API key.
	APIKey string `koanf:"api_key"`

	// Timeout bounds a single metadata request.
	Timeout time.Duration `koanf:"timeout"`

	// BreakerMaxFailures is the consecutive-failure count that opens
	// the circuit breaker.
	BreakerMaxFailures int `koanf:"breaker_max_failures"`

	// BreakerCooldown is how long the breaker stays open before probing.
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Recommend.DefaultN <= 0 {
		return fmt.Errorf("recommend.default_n must be positive, got %d", c.Recommend.DefaultN)
	}
	if c.Recommend.MaxN < c.Recommend.DefaultN {
		return fmt.Errorf("recommend.max_n (%d) must be >= recommend.default_n (%d)",
			c.Recommend.MaxN, c.Recommend.DefaultN)
	}
	if c.Recommend.SimilarK <= 0 {
		return fmt.Errorf("recommend.similar_k must be positive, got %d", c.Recommend.SimilarK)
	}

	for name, w := range map[string]float64{
		"recommend.collaborative_weight": c.Recommend.CollaborativeWeight,
		"recommend.content_weight":       c.Recommend.ContentWeight,
		"recommend.popularity_weight":    c.Recommend.PopularityWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %f", name, w)
		}
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}

	if c.Database.MoviesCSV != "" && c.Database.MetadataCSV != "" {
		return fmt.Errorf("database.movies_csv and database.metadata_csv are mutually exclusive")
	}

	if c.OMDB.Enabled && c.OMDB.APIKey == "" {
		return fmt.Errorf("omdb.api_key is required when omdb.enabled=true")
	}

	return nil
}
