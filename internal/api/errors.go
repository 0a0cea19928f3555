// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package api

import (
	"database/sql"
	"errors"
	"net/http"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/cinerec/cinerec/internal/omdb"
	"github.com/cinerec/cinerec/internal/recommend"
)

// respondDomainError maps domain error kinds onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recommend.ErrUnknownMovie),
		errors.Is(err, omdb.ErrNotFound),
		errors.Is(err, sql.ErrNoRows):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", err)

	case errors.Is(err, recommend.ErrInsufficientHistory):
		respondError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_HISTORY",
			"user has no rating history", err)

	case errors.Is(err, recommend.ErrEmptyEvaluationSet):
		respondError(w, http.StatusUnprocessableEntity, "EMPTY_EVALUATION_SET",
			"not enough ratings to calibrate", err)

	case errors.Is(err, recommend.ErrNotInitialized),
		errors.Is(err, recommend.ErrModelUnavailable):
		respondError(w, http.StatusServiceUnavailable, "NOT_READY",
			"recommendation engine is not ready", err)

	case errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		respondError(w, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE",
			"metadata upstream is unavailable", err)

	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"internal server error", err)
	}
}
