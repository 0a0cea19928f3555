// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

// Package model loads a trained latent-factor rating model from its
// serialized JSON form and serves rating predictions.
//
// Training happens offline; this package only consumes the artifact.
// The model is loaded once at startup and is read-only thereafter, so
// Predict is safe for concurrent use without locking.
package model

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// Rating bounds of the source rating scale. Predictions are clamped to
// this range, matching how the training pipeline bounds its estimates.
const (
	MinRating = 0.5
	MaxRating = 5.0
)

// modelFile is the serialized form of a trained factorization model.
type modelFile struct {
	GlobalMean  float64     `json:"global_mean"`
	Factors     int         `json:"factors"`
	Users       []int       `json:"users"`
	Items       []int       `json:"items"`
	UserFactors [][]float64 `json:"user_factors"`
	ItemFactors [][]float64 `json:"item_factors"`
	UserBiases  []float64   `json:"user_biases"`
	ItemBiases  []float64   `json:"item_biases"`
}

// Model is a loaded latent-factor model. It implements the predictor
// contract of the recommendation engine: Predict never fails, degrading
// to bias-adjusted or global-mean estimates for unknown users or items.
type Model struct {
	globalMean float64
	factors    int

	userIndex map[int]int
	itemIndex map[int]int

	userFactors [][]float64
	itemFactors [][]float64
	userBiases  []float64
	itemBiases  []float64
}

// Load reads and validates a serialized model from path.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}

	var f modelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing model file %s: %w", path, err)
	}

	return fromFile(&f)
}

// fromFile builds a Model from its deserialized file form, validating
// that the index slices and factor matrices are mutually consistent.
func fromFile(f *modelFile) (*Model, error) {
	if f.Factors <= 0 {
		return nil, fmt.Errorf("model has %d factors, must be positive", f.Factors)
	}
	if len(f.Users) != len(f.UserFactors) || len(f.Users) != len(f.UserBiases) {
		return nil, fmt.Errorf("user arrays misaligned: %d users, %d factor rows, %d biases",
			len(f.Users), len(f.UserFactors), len(f.UserBiases))
	}
	if len(f.Items) != len(f.ItemFactors) || len(f.Items) != len(f.ItemBiases) {
		return nil, fmt.Errorf("item arrays misaligned: %d items, %d factor rows, %d biases",
			len(f.Items), len(f.ItemFactors), len(f.ItemBiases))
	}
	for i, row := range f.UserFactors {
		if len(row) != f.Factors {
			return nil, fmt.Errorf("user factor row %d has %d entries, want %d", i, len(row), f.Factors)
		}
	}
	for i, row := range f.ItemFactors {
		if len(row) != f.Factors {
			return nil, fmt.Errorf("item factor row %d has %d entries, want %d", i, len(row), f.Factors)
		}
	}

	userIndex := make(map[int]int, len(f.Users))
	for i, id := range f.Users {
		userIndex[id] = i
	}
	itemIndex := make(map[int]int, len(f.Items))
	for i, id := range f.Items {
		itemIndex[id] = i
	}

	return &Model{
		globalMean:  f.GlobalMean,
		factors:     f.Factors,
		userIndex:   userIndex,
		itemIndex:   itemIndex,
		userFactors: f.UserFactors,
		itemFactors: f.ItemFactors,
		userBiases:  f.UserBiases,
		itemBiases:  f.ItemBiases,
	}, nil
}

// GlobalMean returns the training set's mean rating.
func (m *Model) GlobalMean() float64 {
	return m.globalMean
}

// Users returns the number of users known to the model.
func (m *Model) Users() int {
	return len(m.userIndex)
}

// Items returns the number of items known to the model.
func (m *Model) Items() int {
	return len(m.itemIndex)
}

// Predict returns the estimated rating for a (user, movie) pair:
//
//	globalMean + userBias + itemBias + dot(userFactors, itemFactors)
//
// Unknown users or items contribute nothing for their missing terms, so
// a fully cold pair degrades to the global mean. The estimate is
// clamped to the source rating scale.
func (m *Model) Predict(userID, movieID int) float64 {
	est := m.globalMean

	u, knownUser := m.userIndex[userID]
	i, knownItem := m.itemIndex[movieID]

	if knownUser {
		est += m.userBiases[u]
	}
	if knownItem {
		est += m.itemBiases[i]
	}
	if knownUser && knownItem {
		pu := m.userFactors[u]
		qi := m.itemFactors[i]
		for k := 0; k < m.factors; k++ {
			est += pu[k] * qi[k]
		}
	}

	if est < MinRating {
		return MinRating
	}
	if est > MaxRating {
		return MaxRating
	}
	return est
}
