// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package poi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
)

// Source labels for FetchOrCache results.
const (
	SourceCache = "cache"
	SourceAPI   = "api"
)

// Request identifies one logical POI fetch. Two requests with the same
// fields (types in any order) map to the same cache key.
type Request struct {
	DataType     string
	Coord        models.Coordinates
	RadiusMeters int
	Types        []string
}

// Pipeline is the cache-aside POI fetch flow: check cache, on miss fan
// out one upstream call per requested type, merge, trim, write through.
// The geo cache is the single source of truth for POI data; nothing
// else persists POI results.
type Pipeline struct {
	store     *cache.Store
	places    PlacesClient
	globalMax int
	ttl       time.Duration
}

// NewPipeline creates a pipeline over the given cache store and places
// client.
func NewPipeline(store *cache.Store, places PlacesClient, cfg config.POIConfig) *Pipeline {
	return &Pipeline{
		store:     store,
		places:    places,
		globalMax: cfg.GlobalMax,
		ttl:       time.Duration(cfg.TTLDays) * 24 * time.Hour,
	}
}

// TypeQuota computes the per-type result ceiling so the merged total
// stays bounded regardless of how many types are requested. Never
// returns less than 1 for a positive type count, so oversubscribed
// requests still yield something per type before the final trim.
func TypeQuota(globalMax, typeCount int) int {
	if typeCount <= 0 {
		return 0
	}
	quota := globalMax / typeCount
	if quota < 1 {
		quota = 1
	}
	return quota
}

// FetchOrCache returns POIs for a request, serving from the geo cache
// when a valid entry exists and fetching upstream otherwise. The source
// label tells callers which path answered.
//
// On a miss, each requested type is fetched independently and a type's
// failure drops only that type's results. The merge waits for every
// per-type call to settle before trimming and writing through. A
// missing API key is the one unrecoverable failure and is returned as
// ErrNotConfigured.
func (p *Pipeline) FetchOrCache(ctx context.Context, req Request) ([]models.POI, string, error) {
	if len(req.Types) == 0 {
		return []models.POI{}, SourceCache, nil
	}

	key := cache.Key(req.DataType, req.Coord.Lat, req.Coord.Lng, req.RadiusMeters, req.Types)

	if payload, ok := p.store.Get(key); ok {
		var pois []models.POI
		if err := json.Unmarshal(payload, &pois); err == nil {
			metrics.POIFetchesTotal.WithLabelValues(SourceCache).Inc()
			return pois, SourceCache, nil
		}
		// Undecodable cached payload; treat as a miss and overwrite.
		logging.Ctx(ctx).Warn().Str("key", key).Msg("Discarding undecodable cached POI payload")
	}

	pois, cacheable, err := p.fetchUpstream(ctx, req)
	if err != nil {
		return nil, "", err
	}

	if cacheable {
		payload, err := json.Marshal(pois)
		if err != nil {
			return nil, "", fmt.Errorf("encode poi payload: %w", err)
		}
		if err := p.store.SetWithMeta(key, req.DataType, payload, p.ttl, entryMeta(req)); err != nil {
			// Serving fresh data beats failing the request over a cache
			// write problem.
			logging.Ctx(ctx).Error().Err(err).Str("key", key).Msg("POI cache write failed")
		}
	}

	metrics.POIFetchesTotal.WithLabelValues(SourceAPI).Inc()
	return pois, SourceAPI, nil
}

// Refresh recomputes a request's entry unconditionally: invalidate,
// fetch upstream, write through. Used by document-change hooks; callers
// run it detached and only log failures.
func (p *Pipeline) Refresh(ctx context.Context, req Request) error {
	if len(req.Types) == 0 {
		return nil
	}

	key := cache.Key(req.DataType, req.Coord.Lat, req.Coord.Lng, req.RadiusMeters, req.Types)
	if err := p.store.Invalidate(key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("POI cache invalidate failed")
	}

	pois, cacheable, err := p.fetchUpstream(ctx, req)
	if err != nil {
		return err
	}
	if !cacheable {
		return fmt.Errorf("all %d poi type fetches failed", len(req.Types))
	}

	payload, err := json.Marshal(pois)
	if err != nil {
		return fmt.Errorf("encode poi payload: %w", err)
	}
	if err := p.store.SetWithMeta(key, req.DataType, payload, p.ttl, entryMeta(req)); err != nil {
		return fmt.Errorf("poi cache write: %w", err)
	}
	return nil
}

// entryMeta captures the request shape stored alongside a cached
// payload.
func entryMeta(req Request) cache.EntryMeta {
	coord := req.Coord
	return cache.EntryMeta{
		Coordinates: &coord,
		SearchParams: &models.SearchParams{
			RadiusMeters: req.RadiusMeters,
			Types:        req.Types,
		},
	}
}

// fetchUpstream fans out one places call per type, waits for all of
// them to settle, then merges and trims to the global ceiling. The
// cacheable flag is false when every type failed; an all-failure result
// is served empty but never written through, so a transient upstream
// outage cannot be cached for the full TTL.
func (p *Pipeline) fetchUpstream(ctx context.Context, req Request) ([]models.POI, bool, error) {
	quota := TypeQuota(p.globalMax, len(req.Types))

	perType := make([][]models.POI, len(req.Types))
	typeErrs := make([]error, len(req.Types))

	g, gctx := errgroup.WithContext(ctx)
	for i, poiType := range req.Types {
		g.Go(func() error {
			results, err := p.places.SearchNearby(gctx, req.Coord, req.RadiusMeters, poiType, quota)
			if err != nil {
				typeErrs[i] = err
				return nil // settle, never abort siblings
			}
			perType[i] = results
			return nil
		})
	}
	g.Wait() //nolint:errcheck // goroutines never return errors

	merged := make([]models.POI, 0, p.globalMax)
	anySettled := false
	for i := range req.Types {
		if err := typeErrs[i]; err != nil {
			if errors.Is(err, ErrNotConfigured) {
				return nil, false, ErrNotConfigured
			}
			metrics.POITypeFailures.Inc()
			logging.Ctx(ctx).Warn().Err(err).Str("type", req.Types[i]).Msg("Dropping POI type after upstream failure")
			continue
		}
		anySettled = true
		merged = append(merged, perType[i]...)
	}

	if len(merged) > p.globalMax {
		merged = merged[:p.globalMax]
	}
	return merged, anySettled, nil
}
