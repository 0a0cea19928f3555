// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package recommend

import (
	"context"
	"fmt"
)

// Rating is a single historical user-movie rating observation.
// Ratings are immutable facts; one row per (user, movie) observation.
type Rating struct {
	// UserID is the internal user identifier.
	UserID int `json:"user_id"`

	// MovieID is the movie identifier.
	MovieID int `json:"movie_id"`

	// Rating is the observed rating, typically in [0.5, 5.0] in 0.5 steps.
	Rating float64 `json:"rating"`
}

// Movie is a movie metadata record used for content-based filtering.
type Movie struct {
	// ID is the movie identifier.
	ID int `json:"id"`

	// Title is the display title.
	Title string `json:"title,omitempty"`

	// BagOfWords is the precomputed space-separated token text derived
	// from genres, cast, director and keywords.
	BagOfWords string `json:"bag_of_words"`
}

// WeightedScore is a precomputed popularity/quality score for a movie.
type WeightedScore struct {
	// MovieID is the movie identifier.
	MovieID int `json:"movie_id"`

	// Score is the precomputed weighted score.
	Score float64 `json:"score"`
}

// ScoredMovie is a movie with its recommendation score.
type ScoredMovie struct {
	// MovieID is the movie identifier.
	MovieID int `json:"movie_id"`

	// Score is the combined recommendation score (higher is better).
	Score float64 `json:"score"`
}

// Predictor is the trained collaborative model's prediction capability.
// Implementations must be safe for concurrent use after loading.
type Predictor interface {
	// Predict returns the estimated rating for a (user, movie) pair.
	// Unknown users or movies degrade to bias-adjusted or global
	// estimates inside the model; callers do not special-case cold start.
	Predict(userID, movieID int) float64
}

// NearestNeighborSearcher finds the movies most similar to a given one.
// The in-process SimilarityEngine is the default implementation; a
// vector-database-backed searcher can be substituted without touching
// the engine.
type NearestNeighborSearcher interface {
	// TopKSimilar returns up to k movie IDs most similar to movieID,
	// most similar first. Unknown movies yield a nil slice.
	TopKSimilar(movieID, k int) []int
}

// DataProvider defines the interface for fetching rating history and
// movie data. This is typically implemented by the database layer.
type DataProvider interface {
	// GetRatings returns the full rating history in stored order.
	GetRatings(ctx context.Context) ([]Rating, error)

	// GetUserRatings returns one user's ratings in stored order,
	// oldest first; the last element is the most recently rated movie.
	GetUserRatings(ctx context.Context, userID int) ([]Rating, error)

	// GetMovies returns the movie corpus in stored order. Row order
	// defines similarity-matrix row positions and tie-breaking.
	GetMovies(ctx context.Context) ([]Movie, error)

	// GetWeightedScores returns the weighted popularity table in stored
	// order. Duplicate movie IDs are permitted; the first occurrence wins.
	GetWeightedScores(ctx context.Context) ([]WeightedScore, error)
}

// Config contains all configuration for the recommendation engine.
type Config struct {
	// DefaultN is the recommendation list size when the caller passes n <= 0.
	DefaultN int `json:"default_n"`

	// MaxN caps the recommendation list size.
	MaxN int `json:"max_n"`

	// SimilarK is the neighborhood size for content-based ratings.
	SimilarK int `json:"similar_k"`

	// Weights defines the hybrid-rating blend. The weights are fixed,
	// documented constants; they are tunable via configuration but never
	// derived at runtime.
	Weights HybridWeights `json:"weights"`

	// DefaultScore is used for movies absent from the weighted
	// popularity table.
	DefaultScore float64 `json:"default_score"`
}

// HybridWeights is the fixed linear blend for HybridRating.
type HybridWeights struct {
	// Collaborative is the weight of the latent-factor model estimate.
	Collaborative float64 `json:"collaborative"`

	// Content is the weight of the content-propagated rating.
	Content float64 `json:"content"`

	// Popularity is the weight of the weighted popularity score.
	Popularity float64 `json:"popularity"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultN: 10,
		MaxN:     100,
		SimilarK: 10,
		Weights: HybridWeights{
			Collaborative: 0.5,
			Content:       0.2,
			Popularity:    0.3,
		},
		DefaultScore: 0,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.DefaultN <= 0 {
		return fmt.Errorf("default_n must be positive, got %d", c.DefaultN)
	}
	if c.MaxN < c.DefaultN {
		return fmt.Errorf("max_n (%d) must be >= default_n (%d)", c.MaxN, c.DefaultN)
	}
	if c.SimilarK <= 0 {
		return fmt.Errorf("similar_k must be positive, got %d", c.SimilarK)
	}

	for name, w := range map[string]float64{
		"collaborative": c.Weights.Collaborative,
		"content":       c.Weights.Content,
		"popularity":    c.Weights.Popularity,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("weight %s must be in [0, 1], got %f", name, w)
		}
	}

	return nil
}
