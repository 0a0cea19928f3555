// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

// Package api provides the HTTP surface of the recommendation service
// using the Chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cinerec/cinerec/internal/config"
)

// healthRateLimit allows frequent liveness probing while still capping
// abuse.
const healthRateLimit = 1000

// NewRouter wires all routes and middleware.
func NewRouter(h *Handler, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogging)

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(healthRateLimit, time.Minute))
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
		}
		r.Use(PrometheusMetrics)

		r.Get("/recommendations/user/{userID}", h.Recommendations)
		r.Get("/recommendations/rating/{userID}/{movieID}", h.HybridRating)
		r.Get("/movies/{movieID}/similar", h.SimilarMovies)
		r.Get("/movies/{movieID}/metadata", h.MovieMetadata)
		r.Post("/baseline/calibrate", h.Calibrate)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
