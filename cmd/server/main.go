// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

// Package main is the entry point for the Cinerec server.
//
// Cinerec serves hybrid movie recommendations over HTTP by blending
// three signals: a trained collaborative latent-factor model, content
// similarity over bag-of-words movie text, and weighted popularity
// scores.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: settings from environment variables and config files (Koanf v2)
//  2. Database: DuckDB storage for ratings, movies, and weighted scores
//  3. Ingestion: optional CSV loads into the three tables
//  4. Model: the serialized collaborative model from disk
//  5. Engine: similarity matrix build and popularity table load
//  6. OMDb client (optional): circuit-broken metadata lookups
//  7. HTTP server: REST API with Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (SERVER_PORT, DATABASE_PATH, ...)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (shutdown timeout)
//   - Closes the database connection
//
// # Example Usage
//
// In-memory development run against the bundled sample data:
//
//	export DATABASE_PATH=:memory:
//	export DATABASE_RATINGS_CSV=./data/ratings.csv
//	export DATABASE_MOVIES_CSV=./data/movies.csv
//	export DATABASE_WEIGHTED_SCORES_CSV=./data/weighted_scores.csv
//	export RECOMMEND_MODEL_PATH=./data/model.json
//	./cinerec
//
// With OMDb metadata lookups:
//
//	export OMDB_ENABLED=true
//	export OMDB_API_KEY=your-api-key
//	./cinerec
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinerec/cinerec/internal/api"
	"github.com/cinerec/cinerec/internal/config"
	"github.com/cinerec/cinerec/internal/database"
	"github.com/cinerec/cinerec/internal/logging"
	"github.com/cinerec/cinerec/internal/metrics"
	"github.com/cinerec/cinerec/internal/omdb"
	"github.com/cinerec/cinerec/internal/recommend"
	"github.com/cinerec/cinerec/internal/recommend/model"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("model_path", cfg.Recommend.ModelPath).
		Bool("omdb_enabled", cfg.OMDB.Enabled).
		Msg("Starting Cinerec")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ingestConfiguredCSVs(ctx, db, &cfg.Database); err != nil {
		logging.Fatal().Err(err).Msg("Failed to ingest CSV data")
	}

	// Load the trained collaborative model. The model is required: the
	// hybrid rating and recommendation paths both depend on it.
	mdl, err := model.Load(cfg.Recommend.ModelPath)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Recommend.ModelPath).Msg("Failed to load collaborative model")
	}
	logging.Info().
		Int("users", mdl.Users()).
		Int("items", mdl.Items()).
		Float64("global_mean", mdl.GlobalMean()).
		Msg("Collaborative model loaded")

	engine, err := recommend.NewEngine(recommend.Config{
		DefaultN: cfg.Recommend.DefaultN,
		MaxN:     cfg.Recommend.MaxN,
		SimilarK: cfg.Recommend.SimilarK,
		Weights: recommend.HybridWeights{
			Collaborative: cfg.Recommend.CollaborativeWeight,
			Content:       cfg.Recommend.ContentWeight,
			Popularity:    cfg.Recommend.PopularityWeight,
		},
		DefaultScore: cfg.Recommend.DefaultScore,
	}, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommendation engine")
	}

	engine.SetPredictor(mdl)
	engine.SetDataProvider(db)

	// The similarity matrix build is synchronous: the server does not
	// accept traffic until the engine can answer.
	buildStart := time.Now()
	if err := engine.Initialize(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}
	metrics.RecordSimilarityBuild(engine.Similarity().Size(), time.Since(buildStart))
	logging.Info().
		Int("corpus_size", engine.Similarity().Size()).
		Dur("build_time", time.Since(buildStart)).
		Msg("Recommendation engine initialized")

	var metadataClient api.MetadataClient
	if cfg.OMDB.Enabled {
		metadataClient = omdb.NewClient(&cfg.OMDB)
		logging.Info().Str("url", cfg.OMDB.URL).Msg("OMDb metadata lookups enabled")
	} else {
		logging.Info().Msg("OMDb metadata lookups disabled")
	}

	handler := api.NewHandler(engine, db, metadataClient, cfg)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server error")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// ingestConfiguredCSVs loads each configured CSV into its table. Empty
// paths are skipped, so a pre-populated database file starts without
// any ingestion.
func ingestConfiguredCSVs(ctx context.Context, db *database.DB, cfg *config.DatabaseConfig) error {
	if cfg.RatingsCSV != "" {
		rows, err := db.IngestRatingsCSV(ctx, cfg.RatingsCSV)
		if err != nil {
			return fmt.Errorf("ingesting ratings from %s: %w", cfg.RatingsCSV, err)
		}
		logging.Info().Int64("rows", rows).Str("path", cfg.RatingsCSV).Msg("Ratings ingested")
	}

	if cfg.MoviesCSV != "" {
		rows, err := db.IngestMoviesCSV(ctx, cfg.MoviesCSV)
		if err != nil {
			return fmt.Errorf("ingesting movies from %s: %w", cfg.MoviesCSV, err)
		}
		logging.Info().Int64("rows", rows).Str("path", cfg.MoviesCSV).Msg("Movies ingested")
	}

	// Raw metadata is the alternative movie source: the bag_of_words
	// column is assembled during ingestion. Validate() rejects configs
	// that set both paths.
	if cfg.MetadataCSV != "" {
		rows, err := db.IngestMovieMetadataCSV(ctx, cfg.MetadataCSV)
		if err != nil {
			return fmt.Errorf("ingesting movie metadata from %s: %w", cfg.MetadataCSV, err)
		}
		logging.Info().Int64("rows", rows).Str("path", cfg.MetadataCSV).Msg("Movie metadata ingested")
	}

	if cfg.WeightedScoresCSV != "" {
		rows, err := db.IngestWeightedScoresCSV(ctx, cfg.WeightedScoresCSV)
		if err != nil {
			return fmt.Errorf("ingesting weighted scores from %s: %w", cfg.WeightedScoresCSV, err)
		}
		logging.Info().Int64("rows", rows).Str("path", cfg.WeightedScoresCSV).Msg("Weighted scores ingested")
	}

	return nil
}
