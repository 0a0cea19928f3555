// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

// fakeProvider serves in-memory fixtures. Implements DataProvider.
type fakeProvider struct {
	ratings []Rating
	movies  []Movie
	scores  []WeightedScore
}

func (f *fakeProvider) GetRatings(_ context.Context) ([]Rating, error) {
	return f.ratings, nil
}

func (f *fakeProvider) GetUserRatings(_ context.Context, userID int) ([]Rating, error) {
	var out []Rating
	for _, r := range f.ratings {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeProvider) GetMovies(_ context.Context) ([]Movie, error) {
	return f.movies, nil
}

func (f *fakeProvider) GetWeightedScores(_ context.Context) ([]WeightedScore, error) {
	return f.scores, nil
}

func newTestEngine(t *testing.T, provider DataProvider, p Predictor) *Engine {
	t.Helper()

	e, err := NewEngine(*DefaultConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() unexpected error: %v", err)
	}
	e.SetPredictor(p)
	e.SetDataProvider(provider)
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() unexpected error: %v", err)
	}
	return e
}

func testProvider() *fakeProvider {
	return &fakeProvider{
		ratings: []Rating{
			{UserID: 1, MovieID: 1, Rating: 5},
			{UserID: 1, MovieID: 3, Rating: 2},
			{UserID: 2, MovieID: 2, Rating: 4},
		},
		movies: []Movie{
			{ID: 1, BagOfWords: "action hero spaceship laser battle"},
			{ID: 2, BagOfWords: "action hero spaceship laser battle"},
			{ID: 3, BagOfWords: "romance paris cafe poetry"},
		},
		scores: []WeightedScore{
			{MovieID: 1, Score: 8},
			{MovieID: 2, Score: 6},
			{MovieID: 3, Score: 4},
		},
	}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := *DefaultConfig()
	cfg.DefaultN = 0
	if _, err := NewEngine(cfg, zerolog.Nop()); err == nil {
		t.Error("NewEngine() error = nil, want config validation error")
	}
}

func TestInitialize(t *testing.T) {
	t.Run("requires data provider", func(t *testing.T) {
		e, err := NewEngine(*DefaultConfig(), zerolog.Nop())
		if err != nil {
			t.Fatalf("NewEngine() unexpected error: %v", err)
		}
		e.SetPredictor(&fixedPredictor{fallback: 3})
		if err := e.Initialize(context.Background()); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("Initialize() error = %v, want ErrNotInitialized", err)
		}
	})

	t.Run("requires predictor", func(t *testing.T) {
		e, err := NewEngine(*DefaultConfig(), zerolog.Nop())
		if err != nil {
			t.Fatalf("NewEngine() unexpected error: %v", err)
		}
		e.SetDataProvider(testProvider())
		if err := e.Initialize(context.Background()); !errors.Is(err, ErrModelUnavailable) {
			t.Errorf("Initialize() error = %v, want ErrModelUnavailable", err)
		}
	})

	t.Run("ready after initialize", func(t *testing.T) {
		e := newTestEngine(t, testProvider(), &fixedPredictor{fallback: 3})
		if !e.Ready() {
			t.Error("Ready() = false after Initialize")
		}
	})
}

func TestHybridRating(t *testing.T) {
	p := &fixedPredictor{
		byMovie:  map[int]float64{1: 4.0, 2: 3.0, 3: 2.0},
		fallback: 3.0,
	}
	e := newTestEngine(t, testProvider(), p)
	ctx := context.Background()

	t.Run("exact weighted sum", func(t *testing.T) {
		got, err := e.HybridRating(ctx, 1, 1)
		if err != nil {
			t.Fatalf("HybridRating() unexpected error: %v", err)
		}

		// Neighbors of movie 1 are movies 2 and 3, so the content
		// component is (3.0 + 2.0) / 2 = 2.5.
		want := 0.5*4.0 + 0.2*2.5 + 0.3*8.0
		if !almostEqual(got, want) {
			t.Errorf("HybridRating() = %v, want %v", got, want)
		}
	})

	t.Run("zero components still sum exactly", func(t *testing.T) {
		zero := &fixedPredictor{fallback: 0}
		ez := newTestEngine(t, &fakeProvider{
			movies: testProvider().movies,
		}, zero)

		got, err := ez.HybridRating(ctx, 1, 1)
		if err != nil {
			t.Fatalf("HybridRating() unexpected error: %v", err)
		}
		if !almostEqual(got, 0) {
			t.Errorf("HybridRating() = %v, want 0 for all-zero components", got)
		}
	})

	t.Run("unknown movie", func(t *testing.T) {
		_, err := e.HybridRating(ctx, 1, 999)
		if !errors.Is(err, ErrUnknownMovie) {
			t.Errorf("HybridRating() error = %v, want ErrUnknownMovie", err)
		}
	})

	t.Run("uninitialized engine", func(t *testing.T) {
		raw, err := NewEngine(*DefaultConfig(), zerolog.Nop())
		if err != nil {
			t.Fatalf("NewEngine() unexpected error: %v", err)
		}
		if _, err := raw.HybridRating(ctx, 1, 1); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("HybridRating() error = %v, want ErrNotInitialized", err)
		}
	})
}

func TestHybridRecommendation(t *testing.T) {
	p := &fixedPredictor{
		byMovie:  map[int]float64{1: 4.5, 2: 3.5, 3: 2.0},
		fallback: 3.0,
	}
	e := newTestEngine(t, testProvider(), p)
	ctx := context.Background()

	t.Run("ranks by combined weighted score", func(t *testing.T) {
		got, err := e.HybridRecommendation(ctx, 1, 10)
		if err != nil {
			t.Fatalf("HybridRecommendation() unexpected error: %v", err)
		}

		// User 1 rated movies 1 and 3 (3 most recent). The collaborative
		// track re-scores both; the content track takes neighbors of
		// movie 3, which includes movies 1 and 2. Movie 1 appears in
		// both tracks and earns its full weighted score of 8; movie 3
		// earns half of 4; movie 2 half of 6.
		if len(got) != 3 {
			t.Fatalf("got %d recommendations, want 3: %v", len(got), got)
		}
		if got[0].MovieID != 1 || !almostEqual(got[0].Score, 8) {
			t.Errorf("rank 1 = %+v, want movie 1 with score 8", got[0])
		}
		if got[1].MovieID != 2 || !almostEqual(got[1].Score, 3) {
			t.Errorf("rank 2 = %+v, want movie 2 with score 3", got[1])
		}
		if got[2].MovieID != 3 || !almostEqual(got[2].Score, 2) {
			t.Errorf("rank 3 = %+v, want movie 3 with score 2", got[2])
		}
	})

	t.Run("truncates to n", func(t *testing.T) {
		got, err := e.HybridRecommendation(ctx, 1, 1)
		if err != nil {
			t.Fatalf("HybridRecommendation() unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("got %d recommendations, want 1", len(got))
		}
	})

	t.Run("no rating history", func(t *testing.T) {
		_, err := e.HybridRecommendation(ctx, 999, 10)
		if !errors.Is(err, ErrInsufficientHistory) {
			t.Errorf("HybridRecommendation() error = %v, want ErrInsufficientHistory", err)
		}
	})

	t.Run("non-positive n falls back to default", func(t *testing.T) {
		got, err := e.HybridRecommendation(ctx, 1, 0)
		if err != nil {
			t.Fatalf("HybridRecommendation() unexpected error: %v", err)
		}
		if len(got) == 0 {
			t.Error("got no recommendations with default n")
		}
	})
}

func TestCollaborativeRating(t *testing.T) {
	p := &fixedPredictor{byMovie: map[int]float64{1: 4.2}, fallback: 3.0}
	e := newTestEngine(t, testProvider(), p)

	got, err := e.CollaborativeRating(1, 1)
	if err != nil {
		t.Fatalf("CollaborativeRating() unexpected error: %v", err)
	}
	if !almostEqual(got, 4.2) {
		t.Errorf("CollaborativeRating() = %v, want 4.2", got)
	}
}

func TestCalibrateBaseline(t *testing.T) {
	provider := &fakeProvider{
		ratings: []Rating{
			{UserID: 1, MovieID: 1, Rating: 5},
			{UserID: 1, MovieID: 2, Rating: 4},
			{UserID: 2, MovieID: 1, Rating: 2},
			{UserID: 2, MovieID: 2, Rating: 1},
			{UserID: 3, MovieID: 1, Rating: 4},
			{UserID: 3, MovieID: 2, Rating: 3},
		},
		movies: testProvider().movies,
	}
	e := newTestEngine(t, provider, &fixedPredictor{fallback: 3})

	result, err := e.CalibrateBaseline(context.Background(), 3)
	if err != nil {
		t.Fatalf("CalibrateBaseline() unexpected error: %v", err)
	}
	if result.Weight < 0 || result.Weight > 1 {
		t.Errorf("Weight = %v, outside [0, 1]", result.Weight)
	}
	if result.RMSE < 0 {
		t.Errorf("RMSE = %v, must be non-negative", result.RMSE)
	}
	if len(result.Predictions) == 0 {
		t.Error("got no calibrated predictions")
	}
}
