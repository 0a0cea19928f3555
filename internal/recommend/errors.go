// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package recommend

import "errors"

// Sentinel errors for whole-pipeline failure conditions. Per-movie lookup
// misses inside a batch (absent from the similarity matrix or the
// popularity table) recover locally via documented defaults and never
// surface as errors.
var (
	// ErrUnknownMovie indicates the movie does not exist in the metadata corpus.
	ErrUnknownMovie = errors.New("unknown movie")

	// ErrInsufficientHistory indicates the user has no rating history, so
	// neither the collaborative track nor the last-watched content track
	// is defined.
	ErrInsufficientHistory = errors.New("insufficient rating history")

	// ErrEmptyEvaluationSet indicates RMSE was requested on empty data.
	ErrEmptyEvaluationSet = errors.New("evaluation set is empty")

	// ErrModelUnavailable indicates the collaborative predictor is not loaded.
	ErrModelUnavailable = errors.New("collaborative model unavailable")

	// ErrNotInitialized indicates the engine's similarity matrix has not
	// been built yet. Content-based lookups are a blocking prerequisite.
	ErrNotInitialized = errors.New("engine not initialized")
)
