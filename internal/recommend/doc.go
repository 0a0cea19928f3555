// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

// Package recommend implements the hybrid movie recommendation engine.
//
// # Architecture
//
// The engine blends three signals into one score per (user, movie) pair:
//
//   - Collaborative Filtering: a pretrained latent-factor model's rating
//     estimate (see the model subpackage)
//   - Content-Based Filtering: rating propagation from textually similar
//     movies via a bag-of-words cosine-similarity matrix
//   - Weighted Popularity: a precomputed per-movie popularity score
//
// The package also provides the rating baseline calculator: global, user
// and item mean baselines over a training set, and a grid-search
// calibration of the linear blend between user-mean and item-mean
// predictions by RMSE minimization.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), logger)
//	engine.SetPredictor(mdl)
//	engine.SetDataProvider(db)
//	if err := engine.Initialize(ctx); err != nil { ... }
//
//	rating, err := engine.HybridRating(ctx, userID, movieID)
//	recs, err := engine.HybridRecommendation(ctx, userID, 10)
//
// # Thread Safety
//
// Initialize builds the similarity matrix synchronously and must complete
// before content-based lookups are served. After initialization the engine
// holds only read-only state and is safe for concurrent use.
//
// This package has no dependencies on other internal packages. The
// DataProvider and Predictor interfaces allow integration with the
// database and model layers without circular imports.
package recommend
