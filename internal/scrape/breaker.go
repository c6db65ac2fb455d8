// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package scrape

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
)

const breakerName = "scrape"

// BreakerClient wraps Client with circuit breaker protection. When the
// target site starts blocking or its markup breaks, the circuit opens
// and subsequent lookups fail fast with ErrUnavailable instead of
// spending a page fetch each.
//
// The breaker uses real time (via sony/gobreaker) for its interval and
// timeout calculations. Tests exercise classification on the unwrapped
// Client; breaker transitions are driven through failing fetches.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[*models.ScrapedFlightInfo]
}

// NewBreakerClient creates a scrape client with circuit breaker. The
// trip threshold and recovery timeout come from configuration; defaults
// open the circuit at a 60% failure rate over at least 5 requests, with
// a 2 minute recovery timeout.
func NewBreakerClient(cfg config.ScrapeConfig) *BreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[*models.ScrapedFlightInfo](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1, // one probe in half-open state
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= cfg.BreakerFailureRatio

			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening scrape circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{
		client: NewClient(cfg),
		cb:     cb,
	}
}

// LookupFlight fetches through the circuit breaker. ErrNotFound counts
// as a success for trip accounting since the target site answered; only
// blocks, malformed pages, and transport errors move the circuit toward
// open. An open circuit returns ErrUnavailable without a fetch.
func (bc *BreakerClient) LookupFlight(ctx context.Context, callsign string) (*models.ScrapedFlightInfo, error) {
	var notFound bool

	info, err := bc.cb.Execute(func() (*models.ScrapedFlightInfo, error) {
		result, ferr := bc.client.LookupFlight(ctx, callsign)
		if errors.Is(ferr, ErrNotFound) {
			notFound = true
			return nil, nil
		}
		return result, ferr
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Ctx(ctx).Debug().Str("callsign", callsign).Msg("Scrape request rejected, circuit open")
			return nil, ErrUnavailable
		}
		return nil, err
	}
	if notFound {
		return nil, ErrNotFound
	}
	return info, nil
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

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
