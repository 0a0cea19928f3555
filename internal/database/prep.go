// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package database

import (
	"strings"
)

// maxCastCredits caps how many cast members contribute to a movie's
// bag of words. Beyond the leads, cast adds noise rather than signal.
const maxCastCredits = 3

// normalizeCredit lowercases a credit and strips internal whitespace so
// multi-word names form a single token. "Tom Hanks" and "Tom Hanksson"
// must not share a token, which plain word-splitting would cause.
func normalizeCredit(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, "")
}

// normalizeCredits normalizes a list of credits, dropping empties and
// capping the list at limit when limit > 0.
func normalizeCredits(values []string, limit int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		n := normalizeCredit(v)
		if n == "" {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// BuildBagOfWords assembles the content-similarity text for a movie
// from its metadata: keywords, leading cast, director and genres, in
// that order. Credits are normalized into single tokens; genres and
// keywords are lowercased but keep their internal spaces so multi-word
// genres split into ordinary words.
func BuildBagOfWords(keywords, cast []string, director string, genres []string) string {
	parts := make([]string, 0, len(keywords)+maxCastCredits+1+len(genres))

	for _, k := range keywords {
		if k = strings.TrimSpace(strings.ToLower(k)); k != "" {
			parts = append(parts, k)
		}
	}

	parts = append(parts, normalizeCredits(cast, maxCastCredits)...)

	if d := normalizeCredit(director); d != "" {
		// Director counts twice in the term frequencies.
		parts = append(parts, d, d)
	}

	for _, g := range genres {
		if g = strings.TrimSpace(strings.ToLower(g)); g != "" {
			parts = append(parts, g)
		}
	}

	return strings.Join(parts, " ")
}

// splitList splits a delimiter-separated metadata column ("Action|Adventure"
// or "Action, Adventure") into its parts.
func splitList(s string) []string {
	if s == "" {
		return nil
	}

	sep := "|"
	if !strings.Contains(s, "|") {
		sep = ","
	}

	raw := strings.Split(s, sep)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
