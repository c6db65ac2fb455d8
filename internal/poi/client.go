// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package poi implements the point-of-interest fetch pipeline: a
// cache-aside layer over an upstream places API, with per-type fan-out,
// quota-bounded merging, and TTL write-through to the geo cache.
package poi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
)

// ErrNotConfigured means the places API key is absent. There is no
// fallback provider, so this surfaces to the caller as a structured
// 500-class error instead of degrading silently.
var ErrNotConfigured = errors.New("places api key not configured")

const (
	// maxUpstreamBytes bounds places API response reads.
	maxUpstreamBytes = 4 << 20 // 4MB

	// photoMaxWidth is the width requested for display photos.
	photoMaxWidth = 800

	// photoMemoMax bounds the photo-URL memo.
	photoMemoMax = 4096
)

// PlacesClient is the upstream POI search interface. Implemented by
// Client; faked in pipeline tests.
type PlacesClient interface {
	SearchNearby(ctx context.Context, coord models.Coordinates, radiusMeters int, poiType string, limit int) ([]models.POI, error)
}

// Client queries a places API for nearby POIs of a single type.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client

	// photoMemo caches derived photo URLs by reference. Entries are
	// idempotent re-derivations; last write wins.
	photoMemo *cache.Memo[string]
}

// placesResponse is the upstream wire shape. Results are projected down
// to the minimal display shape before they leave this package; the full
// upstream payload is never stored.
type placesResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID string  `json:"place_id"`
		Name    string  `json:"name"`
		Rating  float64 `json:"rating"`
		Photos  []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// NewClient creates a places client from configuration. A missing API
// key is not an error here; it is reported per call so the service can
// start without credentials and fail only when the pipeline is used.
func NewClient(cfg config.POIConfig) *Client {
	return &Client{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      &http.Client{Timeout: cfg.Timeout},
		photoMemo: cache.NewMemo[string]("photo_url", photoMemoMax),
	}
}

// SearchNearby issues one upstream request for a single POI type and
// projects the results down to the display shape, capped at limit.
func (c *Client) SearchNearby(ctx context.Context, coord models.Coordinates, radiusMeters int, poiType string, limit int) ([]models.POI, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	defer func() { metrics.RecordProviderCall("places", time.Since(start)) }()

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", coord.Lat, coord.Lng))
	params.Set("radius", strconv.Itoa(radiusMeters))
	params.Set("type", poiType)
	params.Set("key", c.apiKey)

	endpoint := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("places request build: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ProviderCallErrors.WithLabelValues("places", "transport").Inc()
		return nil, fmt.Errorf("places fetch: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ProviderCallErrors.WithLabelValues("places", "transport").Inc()
		return nil, fmt.Errorf("places fetch: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBytes))
	if err != nil {
		metrics.ProviderCallErrors.WithLabelValues("places", "transport").Inc()
		return nil, fmt.Errorf("places read: %w", err)
	}

	var wire placesResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		metrics.ProviderCallErrors.WithLabelValues("places", "malformed").Inc()
		return nil, fmt.Errorf("places decode: %w", err)
	}
	if wire.Status == "REQUEST_DENIED" {
		metrics.ProviderCallErrors.WithLabelValues("places", "denied").Inc()
		return nil, fmt.Errorf("places fetch: %w", ErrNotConfigured)
	}
	if wire.Status != "" && wire.Status != "OK" && wire.Status != "ZERO_RESULTS" {
		metrics.ProviderCallErrors.WithLabelValues("places", "upstream").Inc()
		logging.Ctx(ctx).Debug().Str("status", wire.Status).Str("type", poiType).Msg("Places upstream non-OK status")
	}

	pois := make([]models.POI, 0, min(len(wire.Results), limit))
	for _, res := range wire.Results {
		if len(pois) >= limit {
			break
		}
		p := models.POI{
			ID:     res.PlaceID,
			Name:   res.Name,
			Rating: res.Rating,
			Type:   poiType,
			Geometry: models.Coordinates{
				Lat: res.Geometry.Location.Lat,
				Lng: res.Geometry.Location.Lng,
			},
		}
		if len(res.Photos) > 0 {
			p.PhotoRef = res.Photos[0].PhotoReference
			p.PhotoURL = c.photoURL(p.PhotoRef)
		}
		pois = append(pois, p)
	}
	return pois, nil
}

// photoURL derives the display URL for a photo reference, memoized per
// reference so repeat results skip the query encoding.
func (c *Client) photoURL(ref string) string {
	if ref == "" {
		return ""
	}
	if u, ok := c.photoMemo.Get(ref); ok {
		return u
	}

	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(photoMaxWidth))
	params.Set("photo_reference", ref)
	params.Set("key", c.apiKey)
	u := fmt.Sprintf("%s/photo?%s", c.baseURL, params.Encode())

	c.photoMemo.Put(ref, u)
	return u
}
