// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package api provides the HTTP surface: flight resolution, POI fetch,
// refresh hooks, and health endpoints, routed with Chi.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/poi"
	"github.com/tomtom215/wayfarer/internal/staticdata"
)

const (
	// maxRequestBytes bounds request bodies on POST endpoints.
	maxRequestBytes = 1 << 20 // 1MB

	// refreshTimeout bounds a detached background refresh.
	refreshTimeout = 30 * time.Second
)

// FlightResolver is the batch enrichment entry point.
type FlightResolver interface {
	ResolveBatch(ctx context.Context, records []models.FlightRecord) []models.EnrichedFlight
}

// POIPipeline is the cache-aside POI flow.
type POIPipeline interface {
	FetchOrCache(ctx context.Context, req poi.Request) ([]models.POI, string, error)
	Refresh(ctx context.Context, req poi.Request) error
}

// Handler holds the dependencies of all HTTP handlers.
type Handler struct {
	resolver  FlightResolver
	pipeline  POIPipeline
	store     *cache.Store
	table     *staticdata.Table
	startTime time.Time
}

// NewHandler creates the handler set.
func NewHandler(resolver FlightResolver, pipeline POIPipeline, store *cache.Store, table *staticdata.Table) *Handler {
	return &Handler{
		resolver:  resolver,
		pipeline:  pipeline,
		store:     store,
		table:     table,
		startTime: time.Now(),
	}
}

// ResolveFlights handles POST /api/v1/flights/resolve. The flights list
// is required; an empty list is valid and resolves to an empty list.
func (h *Handler) ResolveFlights(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	// Pointer distinguishes a missing flights field from an empty list.
	var req struct {
		Flights *[]models.FlightRecord `json:"flights"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be valid JSON with a flights list", err)
		return
	}
	if req.Flights == nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "flights list is required", nil)
		return
	}

	enriched := h.resolver.ResolveBatch(r.Context(), *req.Flights)

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   models.ResolveResponse{Flights: enriched},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMs: time.Since(start).Milliseconds(),
		},
	})
}

// poiQuery is the validated parameter set of the POI endpoints.
// DestinationID identifies the originating document; it is carried for
// log correlation only and never enters the cache key.
type poiQuery struct {
	DestinationID string   `validate:"max=128"`
	Lat           float64  `validate:"latitude"`
	Lng           float64  `validate:"longitude"`
	Radius        int      `validate:"gte=1,lte=50000"`
	DataType      string   `validate:"required,max=64"`
	Types         []string `validate:"min=1,dive,required"`
}

// POIGet handles GET /api/v1/poi.
func (h *Handler) POIGet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	lat, latOK := getFloatParam(r, "lat")
	lng, lngOK := getFloatParam(r, "lng")
	if !latOK || !lngOK {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "lat and lng query parameters are required", nil)
		return
	}

	query := poiQuery{
		DestinationID: getStringParam(r, "destination_id", ""),
		Lat:           lat,
		Lng:           lng,
		Radius:        getIntParam(r, "radius", 1000),
		DataType:      getStringParam(r, "data_type", "poi"),
		Types:         parseCommaSeparated(r.URL.Query().Get("types")),
	}
	if apiErr := validateRequest(&query); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if query.DestinationID != "" {
		logging.Ctx(r.Context()).Debug().
			Str("destination_id", sanitizeLogValue(query.DestinationID)).
			Msg("POI lookup for destination")
	}

	pois, source, err := h.pipeline.FetchOrCache(r.Context(), poi.Request{
		DataType:     query.DataType,
		Coord:        models.Coordinates{Lat: query.Lat, Lng: query.Lng},
		RadiusMeters: query.Radius,
		Types:        query.Types,
	})
	if err != nil {
		if errors.Is(err, poi.ErrNotConfigured) {
			respondError(w, http.StatusServiceUnavailable, "CONFIG_ERROR", "Places API key is not configured", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "POI fetch failed", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   models.POIResponse{Source: source, Data: pois},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMs: time.Since(start).Milliseconds(),
			Cached:      source == poi.SourceCache,
		},
	})
}

// refreshRequest is the body of POST /api/v1/poi/refresh.
type refreshRequest struct {
	DestinationID string   `json:"destination_id" validate:"max=128"`
	Lat           float64  `json:"lat" validate:"latitude"`
	Lng           float64  `json:"lng" validate:"longitude"`
	Radius        int      `json:"radius" validate:"gte=1,lte=50000"`
	DataType      string   `json:"data_type" validate:"required,max=64"`
	Types         []string `json:"types" validate:"min=1,dive,required"`
}

// POIRefresh handles POST /api/v1/poi/refresh, the document-change
// hook. The refresh runs detached; the response is 202 regardless of
// the eventual outcome and refresh failures are only logged. The
// originating document save must never block on or fail because of
// cache population.
func (h *Handler) POIRefresh(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Request body must be valid JSON", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	requestID := logging.RequestIDFromContext(r.Context())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		ctx = logging.ContextWithRequestID(ctx, requestID)

		err := h.pipeline.Refresh(ctx, poi.Request{
			DataType:     req.DataType,
			Coord:        models.Coordinates{Lat: req.Lat, Lng: req.Lng},
			RadiusMeters: req.Radius,
			Types:        req.Types,
		})
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("destination_id", sanitizeLogValue(req.DestinationID)).
				Float64("lat", req.Lat).
				Float64("lng", req.Lng).
				Msg("Background POI refresh failed")
		}
	}()

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "accepted"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// Health handles GET /api/v1/health with cache and dataset stats.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.store.GetStats()

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"status":         "healthy",
			"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
			"airlines":       h.table.AirlineCount(),
			"cache": map[string]int64{
				"hits":      stats.Hits,
				"misses":    stats.Misses,
				"evictions": stats.Evictions,
			},
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthLive handles GET /api/v1/health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "alive"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles GET /api/v1/health/ready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.table == nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "Service dependencies are not initialized", nil)
		return
	}
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "ready"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
