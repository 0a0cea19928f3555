// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of failed DuckDB queries",
		},
		[]string{"operation", "table", "error_type"},
	)

	// CSV Ingestion Metrics
	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "Duration of CSV ingestion per table in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
		[]string{"table"},
	)

	IngestRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_total",
			Help: "Total number of rows ingested per table",
		},
		[]string{"table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Recommendation Engine Metrics
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_operation_duration_seconds",
			Help:    "Duration of recommendation engine operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "hybrid_rating", "hybrid_recommendation", "similar", "calibrate"
	)

	RecommendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_operation_errors_total",
			Help: "Total number of failed recommendation operations",
		},
		[]string{"operation", "error_type"},
	)

	SimilarityBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "similarity_build_duration_seconds",
			Help:    "Duration of similarity matrix builds in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	SimilarityCorpusSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "similarity_corpus_movies",
			Help: "Number of movies in the built similarity corpus",
		},
	)

	// Metadata Client Metrics
	MetadataRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "metadata_request_duration_seconds",
			Help:    "Duration of upstream metadata lookups in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MetadataRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadata_requests_total",
			Help: "Total number of upstream metadata lookups",
		},
		[]string{"result"}, // "success", "not_found", "error", "rejected"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordIngest records a CSV ingestion metric
func RecordIngest(table string, rows int64, duration time.Duration) {
	IngestDuration.WithLabelValues(table).Observe(duration.Seconds())
	IngestRows.WithLabelValues(table).Add(float64(rows))
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRecommendOperation records a recommendation engine operation
func RecordRecommendOperation(operation string, duration time.Duration, err error) {
	RecommendDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		RecommendErrors.WithLabelValues(operation, errorType).Inc()
	}
}

// RecordSimilarityBuild records a similarity matrix build
func RecordSimilarityBuild(corpusSize int, duration time.Duration) {
	SimilarityBuildDuration.Observe(duration.Seconds())
	SimilarityCorpusSize.Set(float64(corpusSize))
}

// RecordMetadataRequest records an upstream metadata lookup
func RecordMetadataRequest(result string, duration time.Duration) {
	MetadataRequestDuration.Observe(duration.Seconds())
	MetadataRequests.WithLabelValues(result).Inc()
}

// RecordCircuitBreakerTransition records a breaker state change
func RecordCircuitBreakerTransition(name, from, to string, state float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(state)
}
