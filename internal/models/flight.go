// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package models defines the shared data types for flight enrichment and
// point-of-interest caching. All types are plain structs with JSON tags;
// serialization happens at the API boundary.
package models

// ResolutionSource records which provider resolved a flight's airline.
// It is set at resolution time, never inferred afterwards, so tests and
// debugging can tell exactly which stage produced a result.
type ResolutionSource string

const (
	// SourceStatic means the bundled dataset matched the callsign.
	SourceStatic ResolutionSource = "static"
	// SourceRemote means the reference-data API returned the airline.
	SourceRemote ResolutionSource = "remote"
	// SourceScrape means the flight-status page scraper produced the data.
	SourceScrape ResolutionSource = "scrape"
	// SourceUnresolved means no provider had a match.
	SourceUnresolved ResolutionSource = "unresolved"
)

// Position is a geographic coordinate attached to a live flight record.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FlightRecord is a raw flight observation as received from the caller.
// The resolver treats it as immutable and returns an augmented copy.
type FlightRecord struct {
	ICAO24      string    `json:"icao24"`
	Callsign    string    `json:"callsign"`
	Position    *Position `json:"position,omitempty"`
	Airline     string    `json:"airline,omitempty"`
	AirlineCode string    `json:"airlineCode,omitempty"`
}

// EnrichedFlight is a FlightRecord augmented with resolved airline and
// route information plus the provenance of that resolution.
type EnrichedFlight struct {
	FlightRecord

	AirlineName      string           `json:"airlineName,omitempty"`
	AirlineIATA      string           `json:"airlineIata,omitempty"`
	AirlineICAO      string           `json:"airlineIcao,omitempty"`
	DepartureAirport string           `json:"departureAirport,omitempty"`
	ArrivalAirport   string           `json:"arrivalAirport,omitempty"`
	ResolutionSource ResolutionSource `json:"resolutionSource"`
}

// AirlineRecord is a reference-data airline entry. Keyed canonically by
// uppercase ICAO/callsign prefix. Two records may share an IATA code
// (codeshares); exact callsign match always wins over prefix match.
type AirlineRecord struct {
	Name     string `json:"name"`
	IATA     string `json:"iata"`
	ICAO     string `json:"icao"`
	Callsign string `json:"callsign"`
	Country  string `json:"country"`
}

// AirportRecord is a reference-data airport entry, immutable once loaded
// from the bundled dataset.
type AirportRecord struct {
	Name     string  `json:"name"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	IATA     string  `json:"iata"`
	ICAO     string  `json:"icao"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Timezone string  `json:"timezone"`
}

// ScrapedFlightInfo holds the fixed set of fields extracted from a
// flight-status page. Empty fields mean the selector matched nothing.
type ScrapedFlightInfo struct {
	Airline     string    `json:"airline,omitempty"`
	Status      string    `json:"status,omitempty"`
	Origin      string    `json:"origin,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Gate        string    `json:"gate,omitempty"`
	Departure   string    `json:"departure,omitempty"`
	Arrival     string    `json:"arrival,omitempty"`
	Position    *Position `json:"position,omitempty"`
}
