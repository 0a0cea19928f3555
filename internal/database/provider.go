// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cinerec/cinerec/internal/metrics"
	"github.com/cinerec/cinerec/internal/recommend"
)

// DB implements recommend.DataProvider. All reads order by rowid so
// that insertion order survives into the engine: similarity rows align
// with corpus order and a user's last row is their most recent rating.

// GetRatings returns the full rating history in insertion order.
func (db *DB) GetRatings(ctx context.Context) ([]recommend.Rating, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT user_id, movie_id, rating FROM ratings ORDER BY rowid")
	metrics.RecordDBQuery("select", "ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("querying ratings: %w", err)
	}
	defer closeWithLog(rows, "ratings rows")

	return scanRatings(rows)
}

// GetUserRatings returns one user's ratings in insertion order, oldest
// first.
func (db *DB) GetUserRatings(ctx context.Context, userID int) ([]recommend.Rating, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT user_id, movie_id, rating FROM ratings WHERE user_id = ? ORDER BY rowid", userID)
	metrics.RecordDBQuery("select", "ratings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("querying ratings for user %d: %w", userID, err)
	}
	defer closeWithLog(rows, "user ratings rows")

	return scanRatings(rows)
}

func scanRatings(rows *sql.Rows) ([]recommend.Rating, error) {
	var out []recommend.Rating
	for rows.Next() {
		var r recommend.Rating
		if err := rows.Scan(&r.UserID, &r.MovieID, &r.Rating); err != nil {
			return nil, fmt.Errorf("scanning rating row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rating rows: %w", err)
	}
	return out, nil
}

// GetMovies returns the movie corpus in insertion order.
func (db *DB) GetMovies(ctx context.Context) ([]recommend.Movie, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT movie_id, title, bag_of_words FROM movies ORDER BY rowid")
	metrics.RecordDBQuery("select", "movies", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("querying movies: %w", err)
	}
	defer closeWithLog(rows, "movies rows")

	var out []recommend.Movie
	for rows.Next() {
		var m recommend.Movie
		var title sql.NullString
		if err := rows.Scan(&m.ID, &title, &m.BagOfWords); err != nil {
			return nil, fmt.Errorf("scanning movie row: %w", err)
		}
		m.Title = title.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating movie rows: %w", err)
	}
	return out, nil
}

// GetWeightedScores returns the popularity table in insertion order,
// duplicates included; the engine keeps the first occurrence.
func (db *DB) GetWeightedScores(ctx context.Context) ([]recommend.WeightedScore, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx,
		"SELECT movie_id, score FROM weighted_scores ORDER BY rowid")
	metrics.RecordDBQuery("select", "weighted_scores", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("querying weighted scores: %w", err)
	}
	defer closeWithLog(rows, "weighted score rows")

	var out []recommend.WeightedScore
	for rows.Next() {
		var s recommend.WeightedScore
		if err := rows.Scan(&s.MovieID, &s.Score); err != nil {
			return nil, fmt.Errorf("scanning weighted score row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating weighted score rows: %w", err)
	}
	return out, nil
}

// GetMovieIMDbID returns a movie's external IMDb identifier, used for
// upstream metadata lookups. Returns sql.ErrNoRows when the movie is
// unknown or carries no identifier.
func (db *DB) GetMovieIMDbID(ctx context.Context, movieID int) (string, error) {
	start := time.Now()

	var imdbID sql.NullString
	err := db.conn.QueryRowContext(ctx,
		"SELECT imdb_id FROM movies WHERE movie_id = ? LIMIT 1", movieID).Scan(&imdbID)
	metrics.RecordDBQuery("select", "movies", time.Since(start), err)
	if err != nil {
		return "", err
	}
	if !imdbID.Valid || imdbID.String == "" {
		return "", sql.ErrNoRows
	}
	return imdbID.String, nil
}
