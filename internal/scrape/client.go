// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package scrape provides the last-resort flight-status page scraper.
//
// This stage depends on a third party's markup staying stable, which
// makes it the least reliable provider in the chain. Failures are
// therefore classified explicitly (blocked, not found, malformed,
// transport) instead of returning a silently empty result, and the
// client is wrapped in a circuit breaker so a blocked or broken target
// site stops costing a page fetch per flight.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
)

// Failure classification. Callers and tests can tell "no such flight"
// apart from "scrape broke".
var (
	// ErrBlocked means the target site rejected the request (403/429 or
	// a challenge page).
	ErrBlocked = errors.New("scrape target blocked the request")

	// ErrNotFound means the page loaded but describes no such flight.
	ErrNotFound = errors.New("flight not found on target site")

	// ErrMalformed means the page loaded but the expected selectors
	// matched nothing, typically after a site redesign.
	ErrMalformed = errors.New("scrape target markup did not match selectors")

	// ErrUnavailable means the circuit breaker is open and no fetch was
	// attempted.
	ErrUnavailable = errors.New("scrape stage unavailable")
)

// Field selectors for the flight-status page. Fixed set; if the site
// redesigns, extraction fails loudly as ErrMalformed rather than
// degrading into empty results.
const (
	selAirline     = ".flight-header .airline-name"
	selStatus      = ".flight-status .status-text"
	selOrigin      = ".route .origin .airport-code"
	selDestination = ".route .destination .airport-code"
	selGate        = ".departure-details .gate-value"
	selDeparture   = ".departure-details .time-scheduled"
	selArrival     = ".arrival-details .time-scheduled"
	selNotFound    = ".flight-not-found"
	selChallenge   = "#challenge-form"
	selFlightMap   = ".flight-map"
)

// browser-like headers reduce the block rate on the target site.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// Client fetches and parses flight-status pages. Use NewBreakerClient to
// get the circuit-breaker-wrapped variant the resolver consumes.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an unwrapped scrape client from configuration.
func NewClient(cfg config.ScrapeConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
	}
}

// LookupFlight fetches the status page for a callsign and extracts the
// fixed field set. Exactly one fetch per call; no retry.
func (c *Client) LookupFlight(ctx context.Context, callsign string) (*models.ScrapedFlightInfo, error) {
	callsign = strings.ToUpper(strings.TrimSpace(callsign))
	if callsign == "" {
		return nil, ErrNotFound
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("scrape rate limit wait: %w", err)
	}

	start := time.Now()
	defer func() { metrics.RecordProviderCall("scrape", time.Since(start)) }()

	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(callsign))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("scrape request build: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ProviderCallErrors.WithLabelValues("scrape", "transport").Inc()
		return nil, fmt.Errorf("scrape fetch: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		metrics.ProviderCallErrors.WithLabelValues("scrape", "blocked").Inc()
		return nil, ErrBlocked
	case resp.StatusCode == http.StatusNotFound:
		metrics.ProviderCallErrors.WithLabelValues("scrape", "not_found").Inc()
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.ProviderCallErrors.WithLabelValues("scrape", "transport").Inc()
		return nil, fmt.Errorf("scrape fetch: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		metrics.ProviderCallErrors.WithLabelValues("scrape", "malformed").Inc()
		return nil, fmt.Errorf("scrape parse: %w", err)
	}

	return extract(doc, callsign)
}

// extract pulls the fixed field set out of a parsed page.
func extract(doc *goquery.Document, callsign string) (*models.ScrapedFlightInfo, error) {
	if doc.Find(selChallenge).Length() > 0 {
		metrics.ProviderCallErrors.WithLabelValues("scrape", "blocked").Inc()
		return nil, ErrBlocked
	}
	if doc.Find(selNotFound).Length() > 0 {
		metrics.ProviderCallErrors.WithLabelValues("scrape", "not_found").Inc()
		return nil, ErrNotFound
	}

	info := &models.ScrapedFlightInfo{
		Airline:     text(doc, selAirline),
		Status:      text(doc, selStatus),
		Origin:      text(doc, selOrigin),
		Destination: text(doc, selDestination),
		Gate:        text(doc, selGate),
		Departure:   text(doc, selDeparture),
		Arrival:     text(doc, selArrival),
		Position:    position(doc),
	}

	// A page with neither an airline label nor a route is not a flight
	// page we understand.
	if info.Airline == "" && info.Origin == "" && info.Destination == "" {
		metrics.ProviderCallErrors.WithLabelValues("scrape", "malformed").Inc()
		return nil, fmt.Errorf("%w: no fields for %s", ErrMalformed, callsign)
	}

	return info, nil
}

// text returns the trimmed text of the first node matching the selector.
func text(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// position reads the live map coordinates when the page carries them.
// Both attributes must parse; a partial pair is dropped.
func position(doc *goquery.Document) *models.Position {
	node := doc.Find(selFlightMap).First()
	latAttr, latOK := node.Attr("data-lat")
	lngAttr, lngOK := node.Attr("data-lng")
	if !latOK || !lngOK {
		return nil
	}
	lat, latErr := strconv.ParseFloat(latAttr, 64)
	lng, lngErr := strconv.ParseFloat(lngAttr, 64)
	if latErr != nil || lngErr != nil {
		return nil
	}
	return &models.Position{Lat: lat, Lng: lng}
}
