// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package recommend

import (
	"github.com/rs/zerolog"
)

// WeightedScorer serves precomputed weighted-popularity scores, the
// IMDB-style weighted rating that blends vote average with vote count.
// Scores are loaded once and served read-only.
type WeightedScorer struct {
	logger zerolog.Logger

	scores map[int]float64
	loaded bool
}

// NewWeightedScorer creates an empty scorer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewWeightedScorer(logger zerolog.Logger) *WeightedScorer {
	return &WeightedScorer{
		logger: logger.With().Str("component", "popularity").Logger(),
		scores: make(map[int]float64),
	}
}

// Load indexes the weighted scores by movie ID. When a movie ID appears
// more than once, the first occurrence in input order wins and the
// duplicate is logged.
func (w *WeightedScorer) Load(scores []WeightedScore) error {
	indexed := make(map[int]float64, len(scores))
	duplicates := 0

	for _, s := range scores {
		if _, seen := indexed[s.MovieID]; seen {
			duplicates++
			w.logger.Debug().
				Int("movie_id", s.MovieID).
				Float64("dropped_score", s.Score).
				Msg("duplicate weighted score, keeping first")
			continue
		}
		indexed[s.MovieID] = s.Score
	}

	w.scores = indexed
	w.loaded = true

	w.logger.Info().
		Int("movies", len(indexed)).
		Int("duplicates_dropped", duplicates).
		Msg("weighted popularity scores loaded")

	return nil
}

// Loaded reports whether scores have been loaded.
func (w *WeightedScorer) Loaded() bool {
	return w.loaded
}

// Size returns the number of movies with a weighted score.
func (w *WeightedScorer) Size() int {
	return len(w.scores)
}

// Score returns the weighted-popularity score for a movie, or the given
// default when the movie has no score. A missing score is an expected
// condition for long-tail titles and never fails a hybrid computation.
func (w *WeightedScorer) Score(movieID int, defaultScore float64) float64 {
	if score, ok := w.scores[movieID]; ok {
		return score
	}
	return defaultScore
}
