// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/cinerec/cinerec/internal/config"
	"github.com/cinerec/cinerec/internal/metrics"
	"github.com/cinerec/cinerec/internal/omdb"
	"github.com/cinerec/cinerec/internal/recommend"
)

// Engine is the recommendation capability the handlers depend on.
// Satisfied by *recommend.Engine.
type Engine interface {
	Ready() bool
	HybridRating(ctx context.Context, userID, movieID int) (float64, error)
	HybridRecommendation(ctx context.Context, userID, n int) ([]recommend.ScoredMovie, error)
	CalibrateBaseline(ctx context.Context, holdoutEvery int) (*recommend.CalibrationResult, error)
	Similarity() *recommend.SimilarityEngine
}

// Store is the storage capability the handlers depend on. Satisfied by
// *database.DB.
type Store interface {
	Ping(ctx context.Context) error
	GetMovieIMDbID(ctx context.Context, movieID int) (string, error)
}

// MetadataClient is the upstream movie metadata lookup. Satisfied by
// *omdb.Client.
type MetadataClient interface {
	GetByIMDbID(ctx context.Context, imdbID string) (*omdb.Movie, error)
}

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	engine   Engine
	store    Store
	metadata MetadataClient
	cfg      *config.Config
}

// NewHandler creates a handler. metadata may be nil when the upstream
// lookup is disabled.
func NewHandler(engine Engine, store Store, metadata MetadataClient, cfg *config.Config) *Handler {
	return &Handler{
		engine:   engine,
		store:    store,
		metadata: metadata,
		cfg:      cfg,
	}
}

// HealthLive reports process liveness.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondSuccess(w, map[string]string{"status": "alive"}, 0)
}

// HealthReady reports readiness: database reachable and engine built.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "database unavailable", err)
		return
	}
	if !h.engine.Ready() {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "recommendation engine initializing", nil)
		return
	}

	respondSuccess(w, map[string]string{"status": "ready"}, 0)
}

// recommendationsResponse is the payload for the user recommendation list.
type recommendationsResponse struct {
	UserID          int                     `json:"user_id"`
	Recommendations []recommend.ScoredMovie `json:"recommendations"`
}

// Recommendations serves GET /api/v1/recommendations/user/{userID}.
// Optional query parameter n caps the list size.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := urlParamInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	n := getIntParam(r, "n", 0)

	start := time.Now()
	ranked, err := h.engine.HybridRecommendation(r.Context(), userID, n)
	metrics.RecordRecommendOperation("hybrid_recommendation", time.Since(start), err)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, &recommendationsResponse{
		UserID:          userID,
		Recommendations: ranked,
	}, time.Since(start))
}

// ratingResponse is the payload for a single hybrid rating estimate.
type ratingResponse struct {
	UserID  int     `json:"user_id"`
	MovieID int     `json:"movie_id"`
	Rating  float64 `json:"rating"`
}

// HybridRating serves GET /api/v1/recommendations/rating/{userID}/{movieID}.
func (h *Handler) HybridRating(w http.ResponseWriter, r *http.Request) {
	userID, err := urlParamInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	movieID, err := urlParamInt(r, "movieID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	start := time.Now()
	rating, err := h.engine.HybridRating(r.Context(), userID, movieID)
	metrics.RecordRecommendOperation("hybrid_rating", time.Since(start), err)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, &ratingResponse{
		UserID:  userID,
		MovieID: movieID,
		Rating:  rating,
	}, time.Since(start))
}

// similarResponse is the payload for the similar-movie lookup.
type similarResponse struct {
	MovieID int   `json:"movie_id"`
	Similar []int `json:"similar"`
}

// SimilarMovies serves GET /api/v1/movies/{movieID}/similar. Optional
// query parameter k caps the neighborhood size.
func (h *Handler) SimilarMovies(w http.ResponseWriter, r *http.Request) {
	movieID, err := urlParamInt(r, "movieID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	k := getIntParam(r, "k", h.cfg.Recommend.SimilarK)
	if k <= 0 || k > h.cfg.Recommend.MaxN {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "k out of range", nil)
		return
	}

	sim := h.engine.Similarity()
	if !sim.Contains(movieID) {
		respondDomainError(w, recommend.ErrUnknownMovie)
		return
	}

	start := time.Now()
	neighbors := sim.TopKSimilar(movieID, k)
	metrics.RecordRecommendOperation("similar", time.Since(start), nil)

	if neighbors == nil {
		neighbors = []int{}
	}
	respondSuccess(w, &similarResponse{
		MovieID: movieID,
		Similar: neighbors,
	}, time.Since(start))
}

// Calibrate serves POST /api/v1/baseline/calibrate. Optional query
// parameter holdout selects the n-th-row holdout split (default 5).
func (h *Handler) Calibrate(w http.ResponseWriter, r *http.Request) {
	holdout := getIntParam(r, "holdout", 5)
	if holdout < 2 || holdout > 100 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "holdout must be in [2, 100]", nil)
		return
	}

	start := time.Now()
	result, err := h.engine.CalibrateBaseline(r.Context(), holdout)
	metrics.RecordRecommendOperation("calibrate", time.Since(start), err)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, result, time.Since(start))
}

// MovieMetadata serves GET /api/v1/movies/{movieID}/metadata, proxying
// the upstream OMDb lookup keyed by the movie's IMDb identifier.
func (h *Handler) MovieMetadata(w http.ResponseWriter, r *http.Request) {
	if h.metadata == nil {
		respondError(w, http.StatusNotImplemented, "METADATA_DISABLED",
			"metadata lookups are disabled", nil)
		return
	}

	movieID, err := urlParamInt(r, "movieID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	start := time.Now()
	imdbID, err := h.store.GetMovieIMDbID(r.Context(), movieID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	movie, err := h.metadata.GetByIMDbID(r.Context(), imdbID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, movie, time.Since(start))
}
