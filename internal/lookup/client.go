// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package lookup provides the remote reference-data client used as the
// second flight-resolution stage. It issues one HTTP call per distinct
// code and memoizes the result, including "not found", for the process
// lifetime, so known-missing codes never trigger repeat calls.
package lookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
)

// maxResponseBytes bounds reference API response reads.
const maxResponseBytes = 1 << 20 // 1MB

// Client queries a reference-data API for airline records by code.
//
// All failures (non-2xx responses, transport errors, undecodable bodies)
// degrade to a nil record with a nil error: the resolver treats them
// as "no match" and falls through to the next stage. Errors never reach
// the resolver's caller from this stage.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	memo    *cache.Memo[*models.AirlineRecord]
}

// airlineResponse is the reference API's wire shape for airline lookups.
type airlineResponse struct {
	Name     string `json:"name"`
	IATA     string `json:"iata"`
	ICAO     string `json:"icao"`
	Callsign string `json:"callsign"`
	Country  string `json:"country"`
}

// New creates a lookup client from configuration.
func New(cfg config.LookupConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		memo:    cache.NewMemo[*models.AirlineRecord]("lookup_memo", cfg.MemoMaxEntries),
	}
}

// LookupAirline resolves an airline by ICAO code or callsign prefix.
// Returns nil when the provider has no record or the call fails; the
// distinction is logged but deliberately not surfaced, since both cases
// fall through to the next resolution stage.
func (c *Client) LookupAirline(ctx context.Context, code string) *models.AirlineRecord {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}

	// Memo stores negative results as nil so known-missing codes are
	// answered without a network call.
	if rec, ok := c.memo.Get(code); ok {
		return rec
	}

	rec := c.fetch(ctx, code)
	c.memo.Put(code, rec)
	return rec
}

// fetch performs the single HTTP call for a code. One attempt per
// logical request; no retry.
func (c *Client) fetch(ctx context.Context, code string) *models.AirlineRecord {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	start := time.Now()
	defer func() { metrics.RecordProviderCall("lookup", time.Since(start)) }()

	endpoint := fmt.Sprintf("%s/airline/%s", c.baseURL, url.PathEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("code", code).Msg("Airline lookup request build failed")
		return nil
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ProviderCallErrors.WithLabelValues("lookup", "transport").Inc()
		logging.Ctx(ctx).Debug().Err(err).Str("code", code).Msg("Airline lookup transport error")
		return nil
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode == http.StatusNotFound {
		metrics.ProviderCallErrors.WithLabelValues("lookup", "not_found").Inc()
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ProviderCallErrors.WithLabelValues("lookup", "transport").Inc()
		logging.Ctx(ctx).Debug().Int("status", resp.StatusCode).Str("code", code).Msg("Airline lookup non-2xx response")
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		metrics.ProviderCallErrors.WithLabelValues("lookup", "transport").Inc()
		return nil
	}

	var wire airlineResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		metrics.ProviderCallErrors.WithLabelValues("lookup", "malformed").Inc()
		logging.Ctx(ctx).Debug().Err(err).Str("code", code).Msg("Airline lookup undecodable response")
		return nil
	}
	if wire.Name == "" {
		// Some reference APIs answer 200 with an empty object for
		// unknown codes.
		metrics.ProviderCallErrors.WithLabelValues("lookup", "not_found").Inc()
		return nil
	}

	return &models.AirlineRecord{
		Name:     wire.Name,
		IATA:     strings.ToUpper(wire.IATA),
		ICAO:     strings.ToUpper(wire.ICAO),
		Callsign: strings.ToUpper(wire.Callsign),
		Country:  wire.Country,
	}
}

// MemoLen returns the number of memoized codes. Test hook.
func (c *Client) MemoLen() int {
	return c.memo.Len()
}
