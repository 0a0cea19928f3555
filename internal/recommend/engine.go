// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Engine is the hybrid recommendation engine. It combines three signals:
//
//   - Collaborative: a trained latent-factor model's rating prediction.
//   - Content: similarity-neighborhood rating over bag-of-words text.
//   - Popularity: a precomputed weighted-popularity prior.
//
// The engine is constructed once, initialized with Initialize (which
// builds the similarity matrix synchronously and loads the popularity
// table), and is then safe for concurrent reads.
type Engine struct {
	config Config
	logger zerolog.Logger

	similarity *SimilarityEngine
	popularity *WeightedScorer

	mu          sync.RWMutex
	predictor   Predictor
	provider    DataProvider
	initialized bool
}

// NewEngine creates an uninitialized engine with the given configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(config Config, logger zerolog.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	engineLogger := logger.With().Str("component", "recommend").Logger()

	return &Engine{
		config:     config,
		logger:     engineLogger,
		similarity: NewSimilarityEngine(engineLogger),
		popularity: NewWeightedScorer(engineLogger),
	}, nil
}

// SetPredictor installs the trained collaborative predictor. Must be
// called before Initialize.
func (e *Engine) SetPredictor(p Predictor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.predictor = p
}

// SetDataProvider installs the data access layer. Must be called before
// Initialize.
func (e *Engine) SetDataProvider(provider DataProvider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.provider = provider
}

// Initialize loads the movie corpus and popularity table through the
// data provider and builds the similarity matrix. It blocks until the
// matrix is complete; no content-based lookup is served before that.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.provider == nil {
		return fmt.Errorf("initialize: %w: no data provider", ErrNotInitialized)
	}
	if e.predictor == nil {
		return fmt.Errorf("initialize: %w", ErrModelUnavailable)
	}

	movies, err := e.provider.GetMovies(ctx)
	if err != nil {
		return fmt.Errorf("initialize: loading movies: %w", err)
	}
	if err := e.similarity.Build(movies); err != nil {
		return fmt.Errorf("initialize: building similarity matrix: %w", err)
	}

	scores, err := e.provider.GetWeightedScores(ctx)
	if err != nil {
		return fmt.Errorf("initialize: loading weighted scores: %w", err)
	}
	if err := e.popularity.Load(scores); err != nil {
		return fmt.Errorf("initialize: loading popularity table: %w", err)
	}

	e.initialized = true

	e.logger.Info().
		Int("movies", e.similarity.Size()).
		Int("weighted_scores", e.popularity.Size()).
		Msg("recommendation engine initialized")

	return nil
}

// Ready reports whether the engine has been initialized.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initialized
}

// Similarity exposes the built similarity engine for direct neighbor
// queries.
func (e *Engine) Similarity() *SimilarityEngine {
	return e.similarity
}

func (e *Engine) checkReady() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.initialized {
		return ErrNotInitialized
	}
	return nil
}

// CollaborativeRating returns the trained model's rating prediction for
// (userID, movieID).
func (e *Engine) CollaborativeRating(userID, movieID int) (float64, error) {
	e.mu.RLock()
	p := e.predictor
	e.mu.RUnlock()

	if p == nil {
		return 0, ErrModelUnavailable
	}
	return p.Predict(userID, movieID), nil
}

// HybridRating blends the three signals into one rating estimate:
//
//	0.5*collaborative + 0.2*content + 0.3*popularity
//
// The weights are configurable constants, fixed at construction.
// Returns ErrUnknownMovie if the movie is absent from the corpus.
func (e *Engine) HybridRating(ctx context.Context, userID, movieID int) (float64, error) {
	if err := e.checkReady(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	collab, err := e.CollaborativeRating(userID, movieID)
	if err != nil {
		return 0, err
	}

	e.mu.RLock()
	p := e.predictor
	e.mu.RUnlock()

	content, err := e.similarity.ContentBasedRating(p, userID, movieID, e.config.SimilarK)
	if err != nil {
		return 0, fmt.Errorf("content rating for movie %d: %w", movieID, err)
	}

	popularity := e.popularity.Score(movieID, e.config.DefaultScore)

	w := e.config.Weights
	hybrid := w.Collaborative*collab + w.Content*content + w.Popularity*popularity

	e.logger.Debug().
		Int("user_id", userID).
		Int("movie_id", movieID).
		Float64("collaborative", collab).
		Float64("content", content).
		Float64("popularity", popularity).
		Float64("hybrid", hybrid).
		Msg("hybrid rating computed")

	return hybrid, nil
}

// HybridRecommendation returns up to n movie IDs ranked for the user by
// two-track aggregation:
//
//  1. Collaborative track: the model re-scores the user's rated movies;
//     the top n by predicted rating qualify.
//  2. Content track: the top n movies most similar to the user's most
//     recently rated movie qualify.
//
// Each qualifying movie contributes half its weighted-popularity score
// per track it appears in, so a movie surfaced by both tracks ranks by
// its full weighted score. The combined map is sorted descending and
// truncated to n, with ascending movie ID breaking ties.
//
// A user with no rating history returns ErrInsufficientHistory.
func (e *Engine) HybridRecommendation(ctx context.Context, userID, n int) ([]ScoredMovie, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}

	if n <= 0 {
		n = e.config.DefaultN
	}
	if n > e.config.MaxN {
		n = e.config.MaxN
	}

	e.mu.RLock()
	p := e.predictor
	provider := e.provider
	e.mu.RUnlock()

	history, err := provider.GetUserRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading ratings for user %d: %w", userID, err)
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("user %d: %w", userID, ErrInsufficientHistory)
	}

	collabTrack := e.collaborativeTrack(p, userID, history, n)

	lastRated := history[len(history)-1].MovieID
	contentTrack := e.similarity.TopKSimilar(lastRated, n)

	combined := make(map[int]float64, len(collabTrack)+len(contentTrack))
	for _, id := range collabTrack {
		combined[id] += 0.5 * e.popularity.Score(id, e.config.DefaultScore)
	}
	for _, id := range contentTrack {
		combined[id] += 0.5 * e.popularity.Score(id, e.config.DefaultScore)
	}

	ranked := make([]ScoredMovie, 0, len(combined))
	for id, score := range combined {
		ranked = append(ranked, ScoredMovie{MovieID: id, Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].MovieID < ranked[j].MovieID
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}

	e.logger.Debug().
		Int("user_id", userID).
		Int("history", len(history)).
		Int("last_rated", lastRated).
		Int("collab_track", len(collabTrack)).
		Int("content_track", len(contentTrack)).
		Int("results", len(ranked)).
		Msg("hybrid recommendation computed")

	return ranked, nil
}

// collaborativeTrack re-scores the user's rated movies with the trained
// model and returns the top n movie IDs by predicted rating, ascending
// movie ID breaking ties.
func (e *Engine) collaborativeTrack(p Predictor, userID int, history []Rating, n int) []int {
	type scored struct {
		movieID int
		score   float64
	}

	candidates := make([]scored, 0, len(history))
	seen := make(map[int]struct{}, len(history))
	for _, r := range history {
		if _, dup := seen[r.MovieID]; dup {
			continue
		}
		seen[r.MovieID] = struct{}{}
		candidates = append(candidates, scored{
			movieID: r.MovieID,
			score:   p.Predict(userID, r.MovieID),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].movieID < candidates[j].movieID
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}

	ids := make([]int, len(candidates))
	for i, c := range candidates {
		ids[i] = c.movieID
	}
	return ids
}

// CalibrateBaseline runs the mean-baseline weight search over the full
// ratings table, splitting out every holdoutEvery-th row as the test
// set. See CalibrateWeight for the search itself.
func (e *Engine) CalibrateBaseline(ctx context.Context, holdoutEvery int) (*CalibrationResult, error) {
	e.mu.RLock()
	provider := e.provider
	e.mu.RUnlock()

	if provider == nil {
		return nil, ErrNotInitialized
	}

	ratings, err := provider.GetRatings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading ratings: %w", err)
	}

	train, test := HoldoutSplit(ratings, holdoutEvery)

	enriched, err := ComputeMeanBaselines(train, test)
	if err != nil {
		return nil, fmt.Errorf("computing mean baselines: %w", err)
	}

	result, err := CalibrateWeight(enriched)
	if err != nil {
		return nil, fmt.Errorf("calibrating weight: %w", err)
	}

	e.logger.Info().
		Int("train", len(train)).
		Int("test", len(test)).
		Float64("weight", result.Weight).
		Float64("rmse", result.RMSE).
		Msg("baseline calibration complete")

	return result, nil
}
