// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/staticdata"
)

type fakeRemote struct {
	calls   atomic.Int64
	records map[string]*models.AirlineRecord
}

func (f *fakeRemote) LookupAirline(_ context.Context, code string) *models.AirlineRecord {
	f.calls.Add(1)
	return f.records[code]
}

type fakeScraper struct {
	calls      atomic.Int64
	concurrent atomic.Int64
	maxSeen    atomic.Int64
	info       *models.ScrapedFlightInfo
	err        error
}

func (f *fakeScraper) LookupFlight(_ context.Context, _ string) (*models.ScrapedFlightInfo, error) {
	f.calls.Add(1)
	cur := f.concurrent.Add(1)
	defer f.concurrent.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if cur <= seen || f.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

type panickyRemote struct{}

func (panickyRemote) LookupAirline(context.Context, string) *models.AirlineRecord {
	panic("provider bug")
}

func testTable() *staticdata.Table {
	return staticdata.NewTable(
		[]models.AirlineRecord{
			{Name: "American Airlines", IATA: "AA", ICAO: "AAL", Callsign: "AMERICAN", Country: "United States"},
			{Name: "British Airways", IATA: "BA", ICAO: "BAW", Callsign: "SPEEDBIRD", Country: "United Kingdom"},
		},
		[]models.AirportRecord{
			{Name: "John F. Kennedy International Airport", City: "New York", IATA: "JFK", ICAO: "KJFK"},
			{Name: "Los Angeles International Airport", City: "Los Angeles", IATA: "LAX", ICAO: "KLAX"},
		},
	)
}

func newTestResolver(remote RemoteClient, scraper ScrapeClient, maxBatch int) *Resolver {
	return New(testTable(), remote, scraper, config.ResolverConfig{MaxBatch: maxBatch})
}

func TestResolveBatchStaticHitSkipsNetwork(t *testing.T) {
	remote := &fakeRemote{}
	scraper := &fakeScraper{}
	r := newTestResolver(remote, scraper, 25)

	out := r.ResolveBatch(context.Background(), []models.FlightRecord{
		{ICAO24: "a1b2c3", Callsign: "AAL123"},
	})

	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if out[0].ResolutionSource != models.SourceStatic {
		t.Errorf("source = %q, want static", out[0].ResolutionSource)
	}
	if out[0].AirlineName != "American Airlines" || out[0].AirlineICAO != "AAL" {
		t.Errorf("airline = %q/%q", out[0].AirlineName, out[0].AirlineICAO)
	}
	if remote.calls.Load() != 0 || scraper.calls.Load() != 0 {
		t.Errorf("static hit still made network calls: remote=%d scrape=%d",
			remote.calls.Load(), scraper.calls.Load())
	}
}

func TestResolveBatchFallsThroughToRemote(t *testing.T) {
	remote := &fakeRemote{records: map[string]*models.AirlineRecord{
		"XQZ": {Name: "Example Air", IATA: "XQ", ICAO: "XQZ"},
	}}
	r := newTestResolver(remote, &fakeScraper{}, 25)

	out := r.ResolveBatch(context.Background(), []models.FlightRecord{
		{Callsign: "XQZ447"},
	})

	if out[0].ResolutionSource != models.SourceRemote {
		t.Fatalf("source = %q, want remote", out[0].ResolutionSource)
	}
	if out[0].AirlineName != "Example Air" {
		t.Errorf("airline = %q", out[0].AirlineName)
	}
}

func TestResolveBatchFallsThroughToScrape(t *testing.T) {
	scraper := &fakeScraper{info: &models.ScrapedFlightInfo{
		Airline:     "Mystery Air",
		Origin:      "JFK",
		Destination: "LAX",
	}}
	r := newTestResolver(&fakeRemote{}, scraper, 25)

	out := r.ResolveBatch(context.Background(), []models.FlightRecord{
		{Callsign: "MYS001"},
	})

	if out[0].ResolutionSource != models.SourceScrape {
		t.Fatalf("source = %q, want scrape", out[0].ResolutionSource)
	}
	if out[0].AirlineName != "Mystery Air" {
		t.Errorf("airline = %q", out[0].AirlineName)
	}
	if out[0].DepartureAirport != "John F. Kennedy International Airport" {
		t.Errorf("departure = %q, want full airport name", out[0].DepartureAirport)
	}
	if out[0].ArrivalAirport != "Los Angeles International Airport" {
		t.Errorf("arrival = %q", out[0].ArrivalAirport)
	}
}

func TestResolveBatchUnknownCallsignNeverAborts(t *testing.T) {
	scraper := &fakeScraper{err: errors.New("scrape broke")}
	r := newTestResolver(&fakeRemote{}, scraper, 25)

	out := r.ResolveBatch(context.Background(), []models.FlightRecord{
		{Callsign: "XYZ999"},
		{Callsign: ""},
	})

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	for i, ef := range out {
		if ef.ResolutionSource != models.SourceUnresolved {
			t.Errorf("record %d: source = %q, want unresolved", i, ef.ResolutionSource)
		}
	}
}

func TestResolveBatchPreservesLengthAndOrder(t *testing.T) {
	r := newTestResolver(&fakeRemote{}, &fakeScraper{err: errors.New("down")}, 25)

	records := make([]models.FlightRecord, 12)
	for i := range records {
		records[i] = models.FlightRecord{ICAO24: fmt.Sprintf("%06x", i), Callsign: fmt.Sprintf("AAL%d", i)}
	}

	out := r.ResolveBatch(context.Background(), records)
	if len(out) != len(records) {
		t.Fatalf("len = %d, want %d", len(out), len(records))
	}
	for i := range out {
		if out[i].ICAO24 != records[i].ICAO24 {
			t.Errorf("record %d out of order: got %q want %q", i, out[i].ICAO24, records[i].ICAO24)
		}
	}
}

func TestResolveBatchCeilingLimitsNetworkCalls(t *testing.T) {
	remote := &fakeRemote{}
	r := newTestResolver(remote, &fakeScraper{err: errors.New("down")}, 3)

	records := make([]models.FlightRecord, 10)
	for i := range records {
		// Not in the static table; only the first maxBatch may go remote.
		records[i] = models.FlightRecord{Callsign: fmt.Sprintf("ZZZ%d", i)}
	}

	out := r.ResolveBatch(context.Background(), records)
	if len(out) != 10 {
		t.Fatalf("len = %d, want 10", len(out))
	}
	if got := remote.calls.Load(); got != 3 {
		t.Errorf("remote calls = %d, want 3 (batch ceiling)", got)
	}
	for i := 3; i < 10; i++ {
		if out[i].ResolutionSource != models.SourceUnresolved {
			t.Errorf("overflow record %d: source = %q, want unresolved", i, out[i].ResolutionSource)
		}
	}
}

func TestResolveBatchOverflowStillGetsStaticMatch(t *testing.T) {
	r := newTestResolver(&fakeRemote{}, &fakeScraper{}, 1)

	out := r.ResolveBatch(context.Background(), []models.FlightRecord{
		{Callsign: "ZZZ1"},   // full chain, unresolved
		{Callsign: "BAW22"},  // past ceiling, static hit
		{Callsign: "QQQ123"}, // past ceiling, static miss
	})

	if out[1].ResolutionSource != models.SourceStatic || out[1].AirlineName != "British Airways" {
		t.Errorf("overflow static match: source=%q airline=%q", out[1].ResolutionSource, out[1].AirlineName)
	}
	if out[2].ResolutionSource != models.SourceUnresolved {
		t.Errorf("overflow miss: source = %q, want unresolved", out[2].ResolutionSource)
	}
}

func TestResolveBatchScrapeStageSerialized(t *testing.T) {
	scraper := &fakeScraper{info: &models.ScrapedFlightInfo{Airline: "Mystery Air"}}
	r := newTestResolver(&fakeRemote{}, scraper, 25)

	records := make([]models.FlightRecord, 8)
	for i := range records {
		records[i] = models.FlightRecord{Callsign: fmt.Sprintf("ZZZ%d", i)}
	}

	r.ResolveBatch(context.Background(), records)
	if got := scraper.maxSeen.Load(); got > 1 {
		t.Errorf("scrape concurrency = %d, want at most 1", got)
	}
	if got := scraper.calls.Load(); got != 8 {
		t.Errorf("scrape calls = %d, want 8", got)
	}
}

func TestResolveBatchRecoversProviderPanic(t *testing.T) {
	r := newTestResolver(panickyRemote{}, &fakeScraper{}, 25)

	out := r.ResolveBatch(context.Background(), []models.FlightRecord{
		{Callsign: "ZZZ1"},
		{Callsign: "AAL123"},
	})

	if out[0].ResolutionSource != models.SourceUnresolved {
		t.Errorf("panicking record: source = %q, want unresolved", out[0].ResolutionSource)
	}
	if out[1].ResolutionSource != models.SourceStatic {
		t.Errorf("healthy record: source = %q, want static", out[1].ResolutionSource)
	}
}

func TestResolveBatchEmptyInput(t *testing.T) {
	r := newTestResolver(&fakeRemote{}, &fakeScraper{}, 25)
	out := r.ResolveBatch(context.Background(), nil)
	if len(out) != 0 {
		t.Errorf("len = %d, want 0", len(out))
	}
}

func TestResolveBatchNilProviders(t *testing.T) {
	r := New(testTable(), nil, nil, config.ResolverConfig{MaxBatch: 25})
	out := r.ResolveBatch(context.Background(), []models.FlightRecord{
		{Callsign: "ZZZ1"},
		{Callsign: "AAL123"},
	})
	if out[0].ResolutionSource != models.SourceUnresolved {
		t.Errorf("source = %q, want unresolved", out[0].ResolutionSource)
	}
	if out[1].ResolutionSource != models.SourceStatic {
		t.Errorf("source = %q, want static", out[1].ResolutionSource)
	}
}
