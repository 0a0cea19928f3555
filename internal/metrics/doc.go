// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

/*
Package metrics provides Prometheus metrics collection and export.

All metrics register with the default registry via promauto at package
init; the /metrics endpoint serves them with promhttp.

# Available Metrics

Database:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
  - ingest_duration_seconds, ingest_rows_total: CSV ingestion

HTTP API:
  - api_requests_total: Total requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
  - api_active_requests: In-flight requests (gauge)

Recommendation engine:
  - recommend_operation_duration_seconds: Operation latency (histogram)
    Labels: operation (hybrid_rating, hybrid_recommendation, similar, calibrate)
  - recommend_operation_errors_total: Failed operations (counter)
  - similarity_build_duration_seconds: Matrix build time (histogram)
  - similarity_corpus_movies: Built corpus size (gauge)

Upstream metadata:
  - metadata_request_duration_seconds: Lookup latency (histogram)
  - metadata_requests_total: Lookups by result (counter)
  - circuit_breaker_state, circuit_breaker_state_transitions_total

# Usage Example

	metrics.RecordAPIRequest("GET", "/api/v1/recommendations", "200", duration)
	metrics.RecordDBQuery("select", "ratings", duration, err)
	metrics.RecordRecommendOperation("hybrid_rating", duration, err)
*/
package metrics
