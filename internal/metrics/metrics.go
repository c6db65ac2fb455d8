// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package metrics provides Prometheus instrumentation for Wayfarer:
//   - API endpoint latency and throughput
//   - Flight resolution outcomes by provider
//   - Provider call durations and errors
//   - Cache efficiency and sweep activity
//   - Scrape circuit breaker state
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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

	// Flight Resolution Metrics
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flight_resolutions_total",
			Help: "Total number of flight resolutions by provider outcome",
		},
		[]string{"source"}, // "static", "remote", "scrape", "unresolved"
	)

	ResolveBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flight_resolve_batch_size",
			Help:    "Number of flight records per resolve request",
			Buckets: []float64{1, 5, 10, 20, 30, 50, 100},
		},
	)

	// Provider Call Metrics
	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_call_duration_seconds",
			Help:    "Duration of external provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"}, // "lookup", "scrape", "places"
	)

	ProviderCallErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_call_errors_total",
			Help: "Total number of failed external provider calls",
		},
		[]string{"provider", "reason"}, // reason: "transport", "not_found", "blocked", "malformed"
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"}, // "geo", "lookup_memo"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_evictions_total",
			Help: "Total number of cache entries removed",
		},
		[]string{"cache"},
	)

	CacheSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cache_sweep_duration_seconds",
			Help:    "Duration of expired-entry sweeps in seconds",
			Buckets: prometheus.DefBuckets,
		},
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
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// POI Pipeline Metrics
	POIFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poi_fetches_total",
			Help: "Total number of POI fetches by source",
		},
		[]string{"source"}, // "cache", "api"
	)

	POITypeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poi_type_failures_total",
			Help: "Total number of per-type upstream POI requests dropped on failure",
		},
	)
)

// RecordAPIRequest records metrics for a completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordProviderCall records the duration of an external provider call.
func RecordProviderCall(provider string, duration time.Duration) {
	ProviderCallDuration.WithLabelValues(provider).Observe(duration.Seconds())
}
