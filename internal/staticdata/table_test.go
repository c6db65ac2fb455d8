// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package staticdata

import (
	"testing"

	"github.com/tomtom215/wayfarer/internal/models"
)

func TestLoadBundledDatasets(t *testing.T) {
	table := Load()
	if table.AirlineCount() == 0 {
		t.Fatal("no airlines loaded from bundled dataset")
	}

	rec := table.FindAirline("AAL")
	if rec == nil || rec.Name != "American Airlines" {
		t.Errorf("AAL = %+v", rec)
	}

	ap := table.FindAirport("JFK")
	if ap == nil || ap.City != "New York" {
		t.Errorf("JFK = %+v", ap)
	}
}

func TestFindAirlineExactMatch(t *testing.T) {
	table := Load()

	if rec := table.FindAirline("BAW"); rec == nil || rec.Name != "British Airways" {
		t.Errorf("BAW = %+v", rec)
	}
	// Callsign key.
	if rec := table.FindAirline("SPEEDBIRD"); rec == nil || rec.Name != "British Airways" {
		t.Errorf("SPEEDBIRD = %+v", rec)
	}
}

func TestFindAirlineStripsTrailingDigits(t *testing.T) {
	table := Load()

	rec := table.FindAirline("AAL123")
	if rec == nil || rec.ICAO != "AAL" {
		t.Errorf("AAL123 = %+v, want American Airlines via digit strip", rec)
	}
}

func TestFindAirlineCallsignPrefixScan(t *testing.T) {
	table := NewTable([]models.AirlineRecord{
		{Name: "Speedy Cargo", ICAO: "SPD", Callsign: "SPEEDY CARGO"},
	}, nil)

	// Neither exact nor digit-stripped matches; the linear scan catches
	// a record whose callsign prefixes the input.
	rec := table.FindAirline("SPEEDY CARGO HEAVY")
	if rec == nil || rec.Name != "Speedy Cargo" {
		t.Errorf("prefix scan = %+v", rec)
	}
}

func TestFindAirlineCaseAndWhitespace(t *testing.T) {
	table := Load()

	if rec := table.FindAirline("  aal123 "); rec == nil || rec.ICAO != "AAL" {
		t.Errorf("lowercase padded lookup = %+v", rec)
	}
}

func TestFindAirlineUnknown(t *testing.T) {
	table := Load()
	if rec := table.FindAirline("XYZ999"); rec != nil {
		t.Errorf("XYZ999 = %+v, want nil", rec)
	}
	if rec := table.FindAirline(""); rec != nil {
		t.Errorf("empty = %+v, want nil", rec)
	}
}

func TestFindAirportByEitherCode(t *testing.T) {
	table := Load()

	iata := table.FindAirport("LHR")
	icao := table.FindAirport("EGLL")
	if iata == nil || icao == nil || iata != icao {
		t.Errorf("LHR=%p EGLL=%p, want same record", iata, icao)
	}
}

func TestEmptyTableNeverErrors(t *testing.T) {
	table := NewTable(nil, nil)

	if rec := table.FindAirline("AAL123"); rec != nil {
		t.Errorf("empty table returned %+v", rec)
	}
	if ap := table.FindAirport("JFK"); ap != nil {
		t.Errorf("empty table returned %+v", ap)
	}
	if table.AirlineCount() != 0 {
		t.Errorf("count = %d", table.AirlineCount())
	}
}

func TestIndexPrefersICAOOverCallsign(t *testing.T) {
	// Two records where one's callsign equals another's ICAO code; the
	// ICAO key must win.
	table := NewTable([]models.AirlineRecord{
		{Name: "First Air", ICAO: "AAA", Callsign: "FIRST"},
		{Name: "Imposter Air", ICAO: "BBB", Callsign: "AAA"},
	}, nil)

	rec := table.FindAirline("AAA")
	if rec == nil || rec.Name != "First Air" {
		t.Errorf("AAA = %+v, want ICAO key to win", rec)
	}
}
