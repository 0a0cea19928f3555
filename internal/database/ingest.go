// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cinerec/cinerec/internal/logging"
	"github.com/cinerec/cinerec/internal/metrics"
)

// IngestRatingsCSV bulk-loads a ratings CSV (userId, movieId, rating
// columns) through DuckDB's CSV reader, replacing any existing rows.
// File row order is preserved; downstream recency semantics depend on it.
func (db *DB) IngestRatingsCSV(ctx context.Context, path string) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO ratings
		SELECT userId, movieId, rating
		FROM read_csv_auto(%s)`, quoteLiteral(path))

	return db.ingest(ctx, "ratings", query)
}

// IngestMoviesCSV bulk-loads a movie corpus CSV with a precomputed
// bag_of_words column (movieId, title, imdb_id, bag_of_words),
// replacing any existing rows.
func (db *DB) IngestMoviesCSV(ctx context.Context, path string) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO movies
		SELECT movieId, title, imdb_id, bag_of_words
		FROM read_csv_auto(%s)`, quoteLiteral(path))

	return db.ingest(ctx, "movies", query)
}

// IngestWeightedScoresCSV bulk-loads the weighted popularity table
// (movieId, score), replacing any existing rows. Duplicate movie IDs
// are kept as-is; the engine's first-occurrence-wins rule applies at
// read time.
func (db *DB) IngestWeightedScoresCSV(ctx context.Context, path string) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO weighted_scores
		SELECT movieId, score
		FROM read_csv_auto(%s)`, quoteLiteral(path))

	return db.ingest(ctx, "weighted_scores", query)
}

// ingest truncates the target table and runs the bulk-insert query.
func (db *DB) ingest(ctx context.Context, table, query string) (int64, error) {
	start := time.Now()

	if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		metrics.RecordDBQuery("delete", table, time.Since(start), err)
		return 0, fmt.Errorf("clearing table %s: %w", table, err)
	}

	result, err := db.conn.ExecContext(ctx, query)
	if err != nil {
		metrics.RecordDBQuery("insert", table, time.Since(start), err)
		return 0, fmt.Errorf("ingesting into %s: %w", table, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		rows = 0
	}

	metrics.RecordIngest(table, rows, time.Since(start))
	logging.Info().
		Str("table", table).
		Int64("rows", rows).
		Dur("duration", time.Since(start)).
		Msg("CSV ingested")

	return rows, nil
}

// IngestMovieMetadataCSV loads a raw movie metadata CSV (movieId,
// title, imdb_id, genres, cast, director, keywords) and assembles each
// movie's bag of words in the process, replacing any existing rows.
// Genre, cast and keyword columns hold pipe- or comma-separated lists.
func (db *DB) IngestMovieMetadataCSV(ctx context.Context, path string) (int64, error) {
	start := time.Now()

	query := fmt.Sprintf(`SELECT movieId, title, imdb_id, genres, "cast", director, keywords
		FROM read_csv_auto(%s)`, quoteLiteral(path))

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		metrics.RecordDBQuery("select", "movies", time.Since(start), err)
		return 0, fmt.Errorf("reading metadata CSV: %w", err)
	}
	defer closeWithLog(rows, "metadata csv rows")

	type movieRow struct {
		id         int
		title      string
		imdbID     string
		bagOfWords string
	}

	var parsed []movieRow
	for rows.Next() {
		var id int
		var title, imdbID, genres, cast, director, keywords sql.NullString
		if err := rows.Scan(&id, &title, &imdbID, &genres, &cast, &director, &keywords); err != nil {
			return 0, fmt.Errorf("scanning metadata row: %w", err)
		}

		parsed = append(parsed, movieRow{
			id:     id,
			title:  title.String,
			imdbID: imdbID.String,
			bagOfWords: BuildBagOfWords(
				splitList(keywords.String),
				splitList(cast.String),
				director.String,
				splitList(genres.String),
			),
		})
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating metadata rows: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning metadata transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM movies"); err != nil {
		return 0, fmt.Errorf("clearing movies table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO movies (movie_id, title, imdb_id, bag_of_words) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing movie insert: %w", err)
	}
	defer closeQuietly(stmt)

	for _, m := range parsed {
		if _, err := stmt.ExecContext(ctx, m.id, m.title, m.imdbID, m.bagOfWords); err != nil {
			return 0, fmt.Errorf("inserting movie %d: %w", m.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing metadata transaction: %w", err)
	}

	count := int64(len(parsed))
	metrics.RecordIngest("movies", count, time.Since(start))
	logging.Info().
		Int64("rows", count).
		Dur("duration", time.Since(start)).
		Msg("Movie metadata ingested with bag-of-words assembly")

	return count, nil
}

// quoteLiteral quotes a string as a SQL literal. DuckDB table functions
// take the file path as a literal, not a bindable parameter.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
