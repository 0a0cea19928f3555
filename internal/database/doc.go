// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

/*
Package database provides DuckDB-backed storage for rating history,
movie metadata and weighted popularity scores.

# Schema

Three tables, bulk-loaded from CSV snapshots at startup:

  - ratings: (user_id, movie_id, rating) observations
  - movies: (movie_id, title, imdb_id, bag_of_words) corpus
  - weighted_scores: (movie_id, score) popularity table

Insertion order is load-bearing: all reads order by rowid, the
similarity matrix aligns its rows with movie insertion order, and a
user's most recent rating is their last inserted row.

# Ingestion

CSV loading goes through DuckDB's read_csv_auto table function. Movie
metadata can arrive either with a precomputed bag_of_words column
(IngestMoviesCSV) or as raw genre/cast/director/keyword columns that
IngestMovieMetadataCSV assembles into bag-of-words text.

# Data Access

DB implements the recommendation engine's DataProvider interface, which
keeps the engine package free of storage dependencies.
*/
package database
