// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

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

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinerec/config.yaml",
	"/etc/cinerec/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the
// config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and
// environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			RateLimitPerMinute: 300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			Path:      "/data/cinerec.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Recommend: RecommendConfig{
			ModelPath: "/data/models/svd.json",
			DefaultN:  10,
			MaxN:      100,
			SimilarK:  10,
			// The hybrid blend: 0.5*collaborative + 0.2*content + 0.3*popularity.
			CollaborativeWeight: 0.5,
			ContentWeight:       0.2,
			PopularityWeight:    0.3,
			DefaultScore:        0,
		},
		OMDB: OMDBConfig{
			Enabled:            false,
			URL:                "http://www.omdbapi.com/",
			APIKey:             "",
			Timeout:            10 * time.Second,
			BreakerMaxFailures: 5,
			BreakerCooldown:    30 * time.Second,
		},
	}
}

// Load loads configuration with layered precedence: ENV > file > defaults.
//
// Environment variable names map to koanf paths by lowercasing and
// replacing the first underscore with a dot:
//
//	SERVER_PORT        -> server.port
//	DATABASE_PATH      -> database.path
//	RECOMMEND_MODEL_PATH -> recommend.model_path
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// Layer 2: optional config file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
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

// envSections are the top-level config sections recognized as environment
// variable prefixes.
var envSections = []string{"server", "logging", "database", "recommend", "omdb"}

// envTransformFunc transforms environment variable names to koanf config
// paths. Variables that do not start with a known section prefix are
// ignored (returned as empty) so unrelated environment noise cannot leak
// into the configuration.
//
// Examples:
//   - SERVER_PORT          -> server.port
//   - LOGGING_LEVEL        -> logging.level
//   - DATABASE_RATINGS_CSV -> database.ratings_csv
//   - OMDB_API_KEY         -> omdb.api_key
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	for _, section := range envSections {
		prefix := section + "_"
		if strings.HasPrefix(key, prefix) {
			return section + "." + strings.TrimPrefix(key, prefix)
		}
	}

	return ""
}
