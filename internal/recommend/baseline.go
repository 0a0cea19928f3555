// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package recommend

import (
	"math"
)

// BaselinePrediction is a test-set row enriched with mean-rating baselines.
type BaselinePrediction struct {
	// UserID is the internal user identifier.
	UserID int `json:"user_id"`

	// MovieID is the movie identifier.
	MovieID int `json:"movie_id"`

	// Rating is the true observed rating.
	Rating float64 `json:"rating"`

	// GlobalMean is the mean over all training ratings.
	GlobalMean float64 `json:"global_mean"`

	// UserMean is the mean of the user's training ratings, falling back
	// to GlobalMean for users unseen in training.
	UserMean float64 `json:"user_mean"`

	// ItemMean is the mean of the movie's training ratings, falling back
	// to GlobalMean for movies unseen in training.
	ItemMean float64 `json:"item_mean"`

	// UserItemMean is the simple average of UserMean and ItemMean.
	UserItemMean float64 `json:"user_item_mean"`
}

// CalibrationResult holds the outcome of the baseline weight search.
type CalibrationResult struct {
	// Weight is the calibrated blend weight w in
	// prediction = w*userMean + (1-w)*itemMean.
	Weight float64 `json:"weight"`

	// RMSE is the root-mean-squared error at the calibrated weight.
	RMSE float64 `json:"rmse"`

	// Predictions are the calibrated predictions, aligned with the
	// enriched test rows passed to CalibrateWeight.
	Predictions []float64 `json:"predictions"`
}

// MSE returns the mean squared error between true and predicted values.
// Returns ErrEmptyEvaluationSet for empty or mismatched inputs rather
// than silently producing NaN.
func MSE(truth, predicted []float64) (float64, error) {
	if len(truth) == 0 || len(truth) != len(predicted) {
		return 0, ErrEmptyEvaluationSet
	}

	var sum float64
	for i := range truth {
		d := truth[i] - predicted[i]
		sum += d * d
	}
	return sum / float64(len(truth)), nil
}

// RMSE returns the root mean squared error between true and predicted values.
func RMSE(truth, predicted []float64) (float64, error) {
	mse, err := MSE(truth, predicted)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// ComputeMeanBaselines enriches each test row with the global, user and
// item mean ratings over the training set, plus their simple average.
//
// Unseen users and items fall back to the global mean. The fallback is a
// correctness requirement for cold-start pairs, not an optimization.
// The training set is never mutated.
func ComputeMeanBaselines(train, test []Rating) ([]BaselinePrediction, error) {
	if len(train) == 0 {
		return nil, ErrEmptyEvaluationSet
	}

	var globalSum float64
	userSum := make(map[int]float64)
	userCount := make(map[int]int)
	itemSum := make(map[int]float64)
	itemCount := make(map[int]int)

	for _, r := range train {
		globalSum += r.Rating
		userSum[r.UserID] += r.Rating
		userCount[r.UserID]++
		itemSum[r.MovieID] += r.Rating
		itemCount[r.MovieID]++
	}
	globalMean := globalSum / float64(len(train))

	enriched := make([]BaselinePrediction, len(test))
	for i, r := range test {
		userMean := globalMean
		if n := userCount[r.UserID]; n > 0 {
			userMean = userSum[r.UserID] / float64(n)
		}

		itemMean := globalMean
		if n := itemCount[r.MovieID]; n > 0 {
			itemMean = itemSum[r.MovieID] / float64(n)
		}

		enriched[i] = BaselinePrediction{
			UserID:       r.UserID,
			MovieID:      r.MovieID,
			Rating:       r.Rating,
			GlobalMean:   globalMean,
			UserMean:     userMean,
			ItemMean:     itemMean,
			UserItemMean: (userMean + itemMean) / 2,
		}
	}

	return enriched, nil
}

// CalibrateWeight searches the blend weight w over the discrete grid
// {0.0, 0.1, ..., 1.0} for prediction = w*userMean + (1-w)*itemMean,
// selecting the w with the strictly lowest RMSE against the true ratings.
//
// Iteration proceeds in increasing w order and only strict improvements
// update the best, so the first-seen weight wins on ties. Returns the
// calibrated predictions computed with the winning weight.
func CalibrateWeight(enriched []BaselinePrediction) (*CalibrationResult, error) {
	if len(enriched) == 0 {
		return nil, ErrEmptyEvaluationSet
	}

	truth := make([]float64, len(enriched))
	for i, p := range enriched {
		truth[i] = p.Rating
	}

	bestRMSE := math.Inf(1)
	bestW := 0.0
	predicted := make([]float64, len(enriched))

	for i := 0; i <= 10; i++ {
		w := float64(i) / 10

		for j, p := range enriched {
			predicted[j] = w*p.UserMean + (1-w)*p.ItemMean
		}

		rmse, err := RMSE(truth, predicted)
		if err != nil {
			return nil, err
		}

		if rmse < bestRMSE {
			bestRMSE = rmse
			bestW = w
		}
	}

	best := make([]float64, len(enriched))
	for j, p := range enriched {
		best[j] = bestW*p.UserMean + (1-bestW)*p.ItemMean
	}

	return &CalibrationResult{
		Weight:      bestW,
		RMSE:        bestRMSE,
		Predictions: best,
	}, nil
}

// HoldoutSplit partitions ratings deterministically for calibration:
// every n-th row (0-based rows where i % every == 0) goes to the test
// set, the rest to the training set. every <= 1 puts everything in train.
func HoldoutSplit(ratings []Rating, every int) (train, test []Rating) {
	if every <= 1 {
		train = make([]Rating, len(ratings))
		copy(train, ratings)
		return train, nil
	}

	train = make([]Rating, 0, len(ratings))
	test = make([]Rating, 0, len(ratings)/every+1)
	for i, r := range ratings {
		if i%every == 0 {
			test = append(test, r)
		} else {
			train = append(train, r)
		}
	}
	return train, test
}
