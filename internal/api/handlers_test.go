// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cinerec/cinerec/internal/config"
	"github.com/cinerec/cinerec/internal/models"
	"github.com/cinerec/cinerec/internal/omdb"
	"github.com/cinerec/cinerec/internal/recommend"
)

// fakeEngine implements Engine with canned responses.
type fakeEngine struct {
	ready      bool
	similarity *recommend.SimilarityEngine

	rating    float64
	ratingErr error

	recommendations []recommend.ScoredMovie
	recommendErr    error

	calibration  *recommend.CalibrationResult
	calibrateErr error
}

func (f *fakeEngine) Ready() bool { return f.ready }

func (f *fakeEngine) HybridRating(_ context.Context, _, _ int) (float64, error) {
	return f.rating, f.ratingErr
}

func (f *fakeEngine) HybridRecommendation(_ context.Context, _, _ int) ([]recommend.ScoredMovie, error) {
	return f.recommendations, f.recommendErr
}

func (f *fakeEngine) CalibrateBaseline(_ context.Context, _ int) (*recommend.CalibrationResult, error) {
	return f.calibration, f.calibrateErr
}

func (f *fakeEngine) Similarity() *recommend.SimilarityEngine { return f.similarity }

// fakeStore implements Store.
type fakeStore struct {
	pingErr error
	imdbIDs map[int]string
}

func (f *fakeStore) Ping(_ context.Context) error { return f.pingErr }

func (f *fakeStore) GetMovieIMDbID(_ context.Context, movieID int) (string, error) {
	if id, ok := f.imdbIDs[movieID]; ok {
		return id, nil
	}
	return "", sql.ErrNoRows
}

// fakeMetadata implements MetadataClient.
type fakeMetadata struct {
	movie *omdb.Movie
	err   error
}

func (f *fakeMetadata) GetByIMDbID(_ context.Context, _ string) (*omdb.Movie, error) {
	return f.movie, f.err
}

func builtSimilarity(t *testing.T) *recommend.SimilarityEngine {
	t.Helper()
	s := recommend.NewSimilarityEngine(zerolog.Nop())
	err := s.Build([]recommend.Movie{
		{ID: 1, BagOfWords: "action hero"},
		{ID: 2, BagOfWords: "action hero"},
		{ID: 3, BagOfWords: "romance paris"},
	})
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	return s
}

func testServer(t *testing.T, engine Engine, store Store, metadata MetadataClient) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Server:    config.ServerConfig{RateLimitPerMinute: 0},
		Recommend: config.RecommendConfig{DefaultN: 10, MaxN: 100, SimilarK: 10},
	}
	h := NewHandler(engine, store, metadata, cfg)
	server := httptest.NewServer(NewRouter(h, &cfg.Server))
	t.Cleanup(server.Close)
	return server
}

type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

func doGet(t *testing.T, url string) (int, *envelope) {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec // test URL from httptest
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decoding response from %s: %v", url, err)
	}
	return resp.StatusCode, &env
}

func TestHealthLive(t *testing.T) {
	server := testServer(t, &fakeEngine{}, &fakeStore{}, nil)

	status, env := doGet(t, server.URL+"/api/v1/health/live")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if env.Status != "success" {
		t.Errorf("envelope status = %q, want success", env.Status)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		engine     *fakeEngine
		store      *fakeStore
		wantStatus int
	}{
		{
			name:       "ready",
			engine:     &fakeEngine{ready: true},
			store:      &fakeStore{},
			wantStatus: http.StatusOK,
		},
		{
			name:       "engine initializing",
			engine:     &fakeEngine{ready: false},
			store:      &fakeStore{},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "database down",
			engine:     &fakeEngine{ready: true},
			store:      &fakeStore{pingErr: fmt.Errorf("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testServer(t, tt.engine, tt.store, nil)
			status, _ := doGet(t, server.URL+"/api/v1/health/ready")
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
		})
	}
}

func TestRecommendations(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		engine := &fakeEngine{
			ready: true,
			recommendations: []recommend.ScoredMovie{
				{MovieID: 1, Score: 8},
				{MovieID: 2, Score: 3},
			},
		}
		server := testServer(t, engine, &fakeStore{}, nil)

		status, env := doGet(t, server.URL+"/api/v1/recommendations/user/1?n=5")
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}

		var data struct {
			UserID          int                     `json:"user_id"`
			Recommendations []recommend.ScoredMovie `json:"recommendations"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("decoding data: %v", err)
		}
		if data.UserID != 1 || len(data.Recommendations) != 2 {
			t.Errorf("data = %+v", data)
		}
		if data.Recommendations[0].MovieID != 1 {
			t.Errorf("first recommendation = %+v, want movie 1", data.Recommendations[0])
		}
	})

	t.Run("insufficient history", func(t *testing.T) {
		engine := &fakeEngine{ready: true, recommendErr: recommend.ErrInsufficientHistory}
		server := testServer(t, engine, &fakeStore{}, nil)

		status, env := doGet(t, server.URL+"/api/v1/recommendations/user/999")
		if status != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", status)
		}
		if env.Error == nil || env.Error.Code != "INSUFFICIENT_HISTORY" {
			t.Errorf("error = %+v, want INSUFFICIENT_HISTORY", env.Error)
		}
	})

	t.Run("non-integer user id", func(t *testing.T) {
		server := testServer(t, &fakeEngine{ready: true}, &fakeStore{}, nil)

		status, env := doGet(t, server.URL+"/api/v1/recommendations/user/abc")
		if status != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", status)
		}
		if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
			t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
		}
	})

	t.Run("engine not ready", func(t *testing.T) {
		engine := &fakeEngine{recommendErr: recommend.ErrNotInitialized}
		server := testServer(t, engine, &fakeStore{}, nil)

		status, env := doGet(t, server.URL+"/api/v1/recommendations/user/1")
		if status != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", status)
		}
		if env.Error == nil || env.Error.Code != "NOT_READY" {
			t.Errorf("error = %+v, want NOT_READY", env.Error)
		}
	})
}

func TestHybridRatingEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		engine := &fakeEngine{ready: true, rating: 4.2}
		server := testServer(t, engine, &fakeStore{}, nil)

		status, env := doGet(t, server.URL+"/api/v1/recommendations/rating/1/10")
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}

		var data struct {
			UserID  int     `json:"user_id"`
			MovieID int     `json:"movie_id"`
			Rating  float64 `json:"rating"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("decoding data: %v", err)
		}
		if data.Rating != 4.2 || data.MovieID != 10 {
			t.Errorf("data = %+v", data)
		}
	})

	t.Run("unknown movie", func(t *testing.T) {
		engine := &fakeEngine{ready: true, ratingErr: recommend.ErrUnknownMovie}
		server := testServer(t, engine, &fakeStore{}, nil)

		status, env := doGet(t, server.URL+"/api/v1/recommendations/rating/1/999")
		if status != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", status)
		}
		if env.Error == nil || env.Error.Code != "NOT_FOUND" {
			t.Errorf("error = %+v, want NOT_FOUND", env.Error)
		}
	})
}

func TestSimilarMovies(t *testing.T) {
	engine := &fakeEngine{ready: true, similarity: builtSimilarity(t)}
	server := testServer(t, engine, &fakeStore{}, nil)

	t.Run("success", func(t *testing.T) {
		status, env := doGet(t, server.URL+"/api/v1/movies/1/similar?k=2")
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}

		var data struct {
			MovieID int   `json:"movie_id"`
			Similar []int `json:"similar"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("decoding data: %v", err)
		}
		if len(data.Similar) != 2 || data.Similar[0] != 2 {
			t.Errorf("similar = %v, want movie 2 first", data.Similar)
		}
	})

	t.Run("unknown movie", func(t *testing.T) {
		status, _ := doGet(t, server.URL+"/api/v1/movies/999/similar")
		if status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", status)
		}
	})

	t.Run("k out of range", func(t *testing.T) {
		status, _ := doGet(t, server.URL+"/api/v1/movies/1/similar?k=-1")
		if status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
	})
}

func TestCalibrate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		engine := &fakeEngine{
			ready: true,
			calibration: &recommend.CalibrationResult{
				Weight:      0.6,
				RMSE:        0.91,
				Predictions: []float64{3.4, 4.1},
			},
		}
		server := testServer(t, engine, &fakeStore{}, nil)

		resp, err := http.Post(server.URL+"/api/v1/baseline/calibrate?holdout=5", "application/json", http.NoBody)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatalf("decoding response: %v", err)
		}

		var result recommend.CalibrationResult
		if err := json.Unmarshal(env.Data, &result); err != nil {
			t.Fatalf("decoding data: %v", err)
		}
		if result.Weight != 0.6 {
			t.Errorf("Weight = %v, want 0.6", result.Weight)
		}
	})

	t.Run("invalid holdout", func(t *testing.T) {
		server := testServer(t, &fakeEngine{ready: true}, &fakeStore{}, nil)

		resp, err := http.Post(server.URL+"/api/v1/baseline/calibrate?holdout=1", "application/json", http.NoBody)
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestMovieMetadata(t *testing.T) {
	store := &fakeStore{imdbIDs: map[int]string{10: "tt0112384"}}

	t.Run("success", func(t *testing.T) {
		metadata := &fakeMetadata{movie: &omdb.Movie{Title: "Apollo 13", IMDbID: "tt0112384", Response: "True"}}
		server := testServer(t, &fakeEngine{ready: true}, store, metadata)

		status, env := doGet(t, server.URL+"/api/v1/movies/10/metadata")
		if status != http.StatusOK {
			t.Fatalf("status = %d, want 200", status)
		}

		var movie omdb.Movie
		if err := json.Unmarshal(env.Data, &movie); err != nil {
			t.Fatalf("decoding data: %v", err)
		}
		if movie.Title != "Apollo 13" {
			t.Errorf("Title = %q, want Apollo 13", movie.Title)
		}
	})

	t.Run("movie without imdb id", func(t *testing.T) {
		metadata := &fakeMetadata{movie: &omdb.Movie{}}
		server := testServer(t, &fakeEngine{ready: true}, store, metadata)

		status, _ := doGet(t, server.URL+"/api/v1/movies/999/metadata")
		if status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", status)
		}
	})

	t.Run("upstream not found", func(t *testing.T) {
		metadata := &fakeMetadata{err: omdb.ErrNotFound}
		server := testServer(t, &fakeEngine{ready: true}, store, metadata)

		status, _ := doGet(t, server.URL+"/api/v1/movies/10/metadata")
		if status != http.StatusNotFound {
			t.Errorf("status = %d, want 404", status)
		}
	})

	t.Run("lookups disabled", func(t *testing.T) {
		server := testServer(t, &fakeEngine{ready: true}, store, nil)

		status, env := doGet(t, server.URL+"/api/v1/movies/10/metadata")
		if status != http.StatusNotImplemented {
			t.Fatalf("status = %d, want 501", status)
		}
		if env.Error == nil || env.Error.Code != "METADATA_DISABLED" {
			t.Errorf("error = %+v, want METADATA_DISABLED", env.Error)
		}
	})
}

func TestRequestIDHeader(t *testing.T) {
	server := testServer(t, &fakeEngine{}, &fakeStore{}, nil)

	resp, err := http.Get(server.URL + "/api/v1/health/live")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing from response")
	}
}

func TestETagHeader(t *testing.T) {
	server := testServer(t, &fakeEngine{}, &fakeStore{}, nil)

	resp, err := http.Get(server.URL + "/api/v1/health/live")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("ETag") == "" {
		t.Error("ETag header missing from response")
	}
}
