// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package resolver orchestrates flight enrichment across the resolution
// chain: static table, remote reference API, then the page scraper.
// Each stage implements the same narrow interface and the chain is a
// fixed ordered list; first non-empty result wins. Records are processed
// independently and concurrently; one record's failure or slowness never
// blocks another, and no provider error ever reaches the caller.
package resolver

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/staticdata"
)

// maxConcurrentResolutions bounds the per-batch goroutine fan-out.
const maxConcurrentResolutions = 8

// RemoteClient is the reference-API stage. A nil record means no match
// or a swallowed provider failure; both fall through to the next stage.
type RemoteClient interface {
	LookupAirline(ctx context.Context, code string) *models.AirlineRecord
}

// ScrapeClient is the last-resort page-scrape stage.
type ScrapeClient interface {
	LookupFlight(ctx context.Context, callsign string) (*models.ScrapedFlightInfo, error)
}

// stage is one provider in the resolution chain. It returns the
// enriched record (with its provenance already set) and whether it
// matched; a miss falls through to the next stage.
type stage interface {
	resolve(ctx context.Context, rec models.FlightRecord, callsign string) (models.EnrichedFlight, bool)
}

// Resolver enriches batches of raw flight records by iterating an
// ordered stage list per record.
type Resolver struct {
	static   *staticStage
	stages   []stage
	maxBatch int
}

// New creates a resolver over the given providers. remote and scraper
// may be nil, in which case their stages are omitted from the chain.
func New(table *staticdata.Table, remote RemoteClient, scraper ScrapeClient, cfg config.ResolverConfig) *Resolver {
	static := &staticStage{table: table}
	stages := []stage{static}
	if remote != nil {
		stages = append(stages, &remoteStage{client: remote})
	}
	if scraper != nil {
		stages = append(stages, &scrapeStage{
			client: scraper,
			table:  table,
			sem:    make(chan struct{}, 1),
		})
	}
	return &Resolver{
		static:   static,
		stages:   stages,
		maxBatch: cfg.MaxBatch,
	}
}

// ResolveBatch enriches a batch of flight records. Only the first
// maxBatch records get the full resolution chain; the remainder are
// enriched only if a zero-cost static match exists, otherwise passed
// through as Unresolved. The output always has the same length and
// ordering as the input.
func (r *Resolver) ResolveBatch(ctx context.Context, records []models.FlightRecord) []models.EnrichedFlight {
	metrics.ResolveBatchSize.Observe(float64(len(records)))

	out := make([]models.EnrichedFlight, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentResolutions)

	for i := range records {
		if i >= r.maxBatch {
			out[i] = r.resolveStaticOnly(records[i])
			continue
		}
		g.Go(func() error {
			out[i] = r.resolveOne(gctx, records[i])
			return nil
		})
	}
	g.Wait() //nolint:errcheck // goroutines never return errors

	for i := range out {
		metrics.ResolutionsTotal.WithLabelValues(string(out[i].ResolutionSource)).Inc()
	}
	return out
}

// resolveOne walks the stage chain for a single record. Any panic or
// provider error is contained here and degrades to the next stage or,
// ultimately, to an Unresolved passthrough.
func (r *Resolver) resolveOne(ctx context.Context, rec models.FlightRecord) (out models.EnrichedFlight) {
	defer func() {
		if p := recover(); p != nil {
			logging.Ctx(ctx).Error().
				Interface("panic", p).
				Str("callsign", rec.Callsign).
				Msg("Recovered panic during flight resolution")
			out = unresolved(rec)
		}
	}()

	callsign := strings.ToUpper(strings.TrimSpace(rec.Callsign))
	if callsign == "" {
		return unresolved(rec)
	}

	for _, st := range r.stages {
		if enriched, ok := st.resolve(ctx, rec, callsign); ok {
			return enriched
		}
	}
	return unresolved(rec)
}

// resolveStaticOnly is the overflow path past the batch ceiling. No
// network; a static miss passes the record through Unresolved.
func (r *Resolver) resolveStaticOnly(rec models.FlightRecord) models.EnrichedFlight {
	callsign := strings.ToUpper(strings.TrimSpace(rec.Callsign))
	if callsign == "" {
		return unresolved(rec)
	}
	if enriched, ok := r.static.resolve(context.Background(), rec, callsign); ok {
		return enriched
	}
	return unresolved(rec)
}

// staticStage matches against the bundled airline dataset.
type staticStage struct {
	table *staticdata.Table
}

func (s *staticStage) resolve(_ context.Context, rec models.FlightRecord, callsign string) (models.EnrichedFlight, bool) {
	airline := s.table.FindAirline(callsign)
	if airline == nil {
		return models.EnrichedFlight{}, false
	}
	return enrichFromAirline(rec, airline, models.SourceStatic), true
}

// remoteStage queries the reference-data API by airline designator.
type remoteStage struct {
	client RemoteClient
}

func (s *remoteStage) resolve(ctx context.Context, rec models.FlightRecord, callsign string) (models.EnrichedFlight, bool) {
	airline := s.client.LookupAirline(ctx, stripTrailingDigits(callsign))
	if airline == nil {
		return models.EnrichedFlight{}, false
	}
	return enrichFromAirline(rec, airline, models.SourceRemote), true
}

// scrapeStage fetches the flight-status page. The one-slot semaphore
// keeps at most one scrape on the synchronous path at a time: the
// scrape stage is the least reliable provider and must never fan out
// per flight.
type scrapeStage struct {
	client ScrapeClient
	table  *staticdata.Table
	sem    chan struct{}
}

func (s *scrapeStage) resolve(ctx context.Context, rec models.FlightRecord, callsign string) (models.EnrichedFlight, bool) {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return models.EnrichedFlight{}, false
	}

	info, err := s.client.LookupFlight(ctx, callsign)
	if err != nil || info == nil {
		logging.Ctx(ctx).Debug().Err(err).Str("callsign", callsign).Msg("Scrape stage miss")
		return models.EnrichedFlight{}, false
	}

	enriched := models.EnrichedFlight{
		FlightRecord:     rec,
		AirlineName:      info.Airline,
		DepartureAirport: s.airportName(info.Origin),
		ArrivalAirport:   s.airportName(info.Destination),
		ResolutionSource: models.SourceScrape,
	}
	return enriched, true
}

// airportName resolves a scraped airport code to its full name, falling
// back to the raw code when the bundled dataset has no record.
func (s *scrapeStage) airportName(code string) string {
	if code == "" {
		return ""
	}
	if ap := s.table.FindAirport(code); ap != nil {
		return ap.Name
	}
	return code
}

func enrichFromAirline(rec models.FlightRecord, airline *models.AirlineRecord, source models.ResolutionSource) models.EnrichedFlight {
	return models.EnrichedFlight{
		FlightRecord:     rec,
		AirlineName:      airline.Name,
		AirlineIATA:      airline.IATA,
		AirlineICAO:      airline.ICAO,
		ResolutionSource: source,
	}
}

func unresolved(rec models.FlightRecord) models.EnrichedFlight {
	return models.EnrichedFlight{
		FlightRecord:     rec,
		ResolutionSource: models.SourceUnresolved,
	}
}

// stripTrailingDigits removes the flight-number suffix so the remote
// stage queries the airline designator, not the full callsign.
func stripTrailingDigits(s string) string {
	end := len(s)
	for end > 0 && s[end-1] >= '0' && s[end-1] <= '9' {
		end--
	}
	if end == 0 {
		return s
	}
	return s[:end]
}
