// Cinerec - Hybrid Movie Recommendation Service
// Copyright 2026 Cinerec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinerec/cinerec

// Package omdb is a client for the OMDb movie metadata API.
//
// The upstream is treated as a flaky black box: lookups run behind a
// circuit breaker so a degraded OMDb cannot stall request handling, and
// a missing movie is a distinct, expected condition (ErrNotFound) that
// never trips the breaker.
package omdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/cinerec/cinerec/internal/config"
	"github.com/cinerec/cinerec/internal/logging"
	"github.com/cinerec/cinerec/internal/metrics"
)

// ErrNotFound indicates the movie does not exist upstream.
var ErrNotFound = errors.New("movie not found")

// Movie is the subset of OMDb response fields the service serves on.
type Movie struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	IMDbRating string `json:"imdbRating"`
	IMDbID     string `json:"imdbID"`

	// Response is "True" on success, "False" with Error set otherwise.
	Response string `json:"Response"`
	Error    string `json:"Error,omitempty"`
}

// Client is an OMDb API client with circuit breaker protection.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[*Movie]
}

// NewClient creates an OMDb client. The breaker opens after the
// configured number of consecutive upstream failures and probes again
// after the cooldown.
func NewClient(cfg *config.OMDBConfig) *Client {
	cbName := "omdb"
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[*Movie](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= uint32(maxFailures)
			if shouldTrip {
				logging.Warn().
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		// A missing movie is an answer, not an upstream failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), stateToFloat(to))
		},
	})

	return &Client{
		// The request path is appended in fetch; a configured trailing
		// slash would otherwise produce a "//" path.
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cb: cb,
	}
}

// GetByIMDbID fetches movie metadata by its IMDb identifier (e.g.
// "tt0112384"). Returns ErrNotFound when the upstream has no such
// movie, and gobreaker.ErrOpenState when the breaker is rejecting
// requests.
func (c *Client) GetByIMDbID(ctx context.Context, imdbID string) (*Movie, error) {
	start := time.Now()

	movie, err := c.cb.Execute(func() (*Movie, error) {
		return c.fetch(ctx, imdbID)
	})

	switch {
	case err == nil:
		metrics.RecordMetadataRequest("success", time.Since(start))
	case errors.Is(err, ErrNotFound):
		metrics.RecordMetadataRequest("not_found", time.Since(start))
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordMetadataRequest("rejected", time.Since(start))
		logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Metadata request rejected")
	default:
		metrics.RecordMetadataRequest("error", time.Since(start))
	}

	if err != nil {
		return nil, err
	}
	return movie, nil
}

// fetch performs the raw OMDb lookup.
func (c *Client) fetch(ctx context.Context, imdbID string) (*Movie, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("i", imdbID)
	reqURL := fmt.Sprintf("%s/?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	var movie Movie
	if err := json.NewDecoder(resp.Body).Decode(&movie); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if movie.Response == "False" {
		return nil, fmt.Errorf("imdb id %s: %w: %s", imdbID, ErrNotFound, movie.Error)
	}

	return &movie, nil
}

// stateToFloat maps breaker states onto the metrics gauge values.
func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
