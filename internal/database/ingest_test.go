// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing csv: %v", err)
	}
	return path
}

func TestIngestRatingsCSV(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	path := writeCSV(t, "ratings.csv",
		"userId,movieId,rating\n1,10,5.0\n1,20,3.0\n2,10,4.0\n")

	rows, err := db.IngestRatingsCSV(ctx, path)
	if err != nil {
		t.Fatalf("IngestRatingsCSV() unexpected error: %v", err)
	}
	if rows != 3 {
		t.Errorf("ingested %d rows, want 3", rows)
	}

	got, err := db.GetRatings(ctx)
	if err != nil {
		t.Fatalf("GetRatings() unexpected error: %v", err)
	}
	if len(got) != 3 || got[0].UserID != 1 || got[0].MovieID != 10 {
		t.Errorf("ratings after ingest = %v", got)
	}
}

func TestIngestReplacesExistingRows(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := writeCSV(t, "first.csv", "userId,movieId,rating\n1,10,5.0\n")
	second := writeCSV(t, "second.csv", "userId,movieId,rating\n2,20,2.0\n2,30,4.0\n")

	if _, err := db.IngestRatingsCSV(ctx, first); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if _, err := db.IngestRatingsCSV(ctx, second); err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	got, err := db.GetRatings(ctx)
	if err != nil {
		t.Fatalf("GetRatings() unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d ratings after re-ingest, want 2", len(got))
	}
	if got[0].UserID != 2 {
		t.Errorf("first rating = %+v, want rows from second snapshot only", got[0])
	}
}

func TestIngestMoviesCSV(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	path := writeCSV(t, "movies.csv",
		"movieId,title,imdb_id,bag_of_words\n10,First,tt0000010,action hero\n20,Second,,romance paris\n")

	rows, err := db.IngestMoviesCSV(ctx, path)
	if err != nil {
		t.Fatalf("IngestMoviesCSV() unexpected error: %v", err)
	}
	if rows != 2 {
		t.Errorf("ingested %d rows, want 2", rows)
	}

	got, err := db.GetMovies(ctx)
	if err != nil {
		t.Fatalf("GetMovies() unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].BagOfWords != "action hero" {
		t.Errorf("movies after ingest = %v", got)
	}
}

func TestIngestWeightedScoresCSV(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	path := writeCSV(t, "scores.csv", "movieId,score\n10,8.0\n10,9.0\n20,6.0\n")

	rows, err := db.IngestWeightedScoresCSV(ctx, path)
	if err != nil {
		t.Fatalf("IngestWeightedScoresCSV() unexpected error: %v", err)
	}
	if rows != 3 {
		t.Errorf("ingested %d rows, want 3 (duplicates kept)", rows)
	}
}

func TestIngestMovieMetadataCSV(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	path := writeCSV(t, "metadata.csv",
		"movieId,title,imdb_id,genres,cast,director,keywords\n"+
			"10,Apollo 13,tt0112384,Drama|History,Tom Hanks|Kevin Bacon,Ron Howard,space|rescue mission\n")

	rows, err := db.IngestMovieMetadataCSV(ctx, path)
	if err != nil {
		t.Fatalf("IngestMovieMetadataCSV() unexpected error: %v", err)
	}
	if rows != 1 {
		t.Errorf("ingested %d rows, want 1", rows)
	}

	got, err := db.GetMovies(ctx)
	if err != nil {
		t.Fatalf("GetMovies() unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d movies, want 1", len(got))
	}
	bow := got[0].BagOfWords
	for _, token := range []string{"space", "rescue mission", "tomhanks", "kevinbacon", "ronhoward", "drama", "history"} {
		if !strings.Contains(bow, token) {
			t.Errorf("bag of words %q missing token %q", bow, token)
		}
	}

	imdbID, err := db.GetMovieIMDbID(ctx, 10)
	if err != nil {
		t.Fatalf("GetMovieIMDbID() unexpected error: %v", err)
	}
	if imdbID != "tt0112384" {
		t.Errorf("GetMovieIMDbID(10) = %q, want tt0112384", imdbID)
	}
}

func TestIngestMissingFile(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.IngestRatingsCSV(context.Background(), filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("IngestRatingsCSV() error = nil, want read error")
	}
}

func TestQuoteLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/data/ratings.csv", "'/data/ratings.csv'"},
		{"it's.csv", "'it''s.csv'"},
	}
	for _, tt := range tests {
		if got := quoteLiteral(tt.in); got != tt.want {
			t.Errorf("quoteLiteral(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
