// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package staticdata provides the in-memory airline/airport lookup table
// built once at process start from the bundled datasets. A missing or
// corrupt dataset yields an empty table; lookups on an empty table simply
// return no match, never an error.
package staticdata

import (
	"bytes"
	"embed"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
)

//go:embed data/airlines.csv data/airports.csv
var datasets embed.FS

// Table is the immutable lookup index. Build it once with Load (or
// NewTable for tests) and share it; all lookups are read-only.
type Table struct {
	// airlines maps uppercase ICAO code and callsign prefix to records.
	airlines map[string]*models.AirlineRecord
	// airlineList preserves load order for the prefix scan fallback.
	airlineList []*models.AirlineRecord
	// airports maps uppercase IATA and ICAO codes to records.
	airports map[string]*models.AirportRecord
}

// Load builds the table from the bundled datasets. Parse errors are
// logged and the affected rows skipped; an entirely absent dataset
// produces an empty (but usable) table.
func Load() *Table {
	t := &Table{
		airlines: make(map[string]*models.AirlineRecord),
		airports: make(map[string]*models.AirportRecord),
	}

	if raw, err := datasets.ReadFile("data/airlines.csv"); err == nil {
		t.loadAirlines(raw)
	} else {
		logging.Warn().Err(err).Msg("Airline dataset missing, static lookups disabled")
	}

	if raw, err := datasets.ReadFile("data/airports.csv"); err == nil {
		t.loadAirports(raw)
	} else {
		logging.Warn().Err(err).Msg("Airport dataset missing, static lookups disabled")
	}

	logging.Info().
		Int("airlines", len(t.airlineList)).
		Int("airports", len(t.airports)).
		Msg("Static lookup table loaded")
	return t
}

// NewTable builds a table from explicit records. Test hook.
func NewTable(airlines []models.AirlineRecord, airports []models.AirportRecord) *Table {
	t := &Table{
		airlines: make(map[string]*models.AirlineRecord),
		airports: make(map[string]*models.AirportRecord),
	}
	for i := range airlines {
		t.indexAirline(&airlines[i])
	}
	for i := range airports {
		t.indexAirport(&airports[i])
	}
	return t
}

// FindAirline resolves a callsign or airline code to an airline record.
// It tries, in order: exact key match, trailing-digit-stripped match
// (AAL123 -> AAL), then a linear scan for any record whose callsign is a
// prefix of the input. The scan is a last resort and is O(n) over the
// dataset.
func (t *Table) FindAirline(code string) *models.AirlineRecord {
	key := canonical(code)
	if key == "" {
		return nil
	}

	if rec, ok := t.airlines[key]; ok {
		return rec
	}

	if stripped := stripTrailingDigits(key); stripped != key && stripped != "" {
		if rec, ok := t.airlines[stripped]; ok {
			return rec
		}
	}

	for _, rec := range t.airlineList {
		if rec.Callsign != "" && strings.HasPrefix(key, rec.Callsign) {
			return rec
		}
	}
	return nil
}

// FindAirport resolves an IATA or ICAO code to an airport record.
func (t *Table) FindAirport(code string) *models.AirportRecord {
	key := canonical(code)
	if key == "" {
		return nil
	}
	return t.airports[key]
}

// AirlineCount returns the number of loaded airline records.
func (t *Table) AirlineCount() int {
	return len(t.airlineList)
}

// canonical uppercases and trims a lookup code.
func canonical(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// stripTrailingDigits removes the flight-number suffix from a callsign.
func stripTrailingDigits(s string) string {
	end := len(s)
	for end > 0 && s[end-1] >= '0' && s[end-1] <= '9' {
		end--
	}
	return s[:end]
}

// loadAirlines parses the airline CSV: name,iata,icao,callsign,country.
func (t *Table) loadAirlines(raw []byte) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = 5

	for line := 0; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logging.Warn().Err(err).Int("line", line).Msg("Skipping malformed airline row")
			continue
		}
		if line == 0 && row[0] == "name" {
			continue // header
		}
		rec := &models.AirlineRecord{
			Name:     strings.TrimSpace(row[0]),
			IATA:     canonical(row[1]),
			ICAO:     canonical(row[2]),
			Callsign: canonical(row[3]),
			Country:  strings.TrimSpace(row[4]),
		}
		t.indexAirline(rec)
	}
}

// indexAirline registers a record under its ICAO code and callsign.
// Exact ICAO keys win over callsign keys when both exist, matching the
// resolution preference of exact match over prefix match.
func (t *Table) indexAirline(rec *models.AirlineRecord) {
	t.airlineList = append(t.airlineList, rec)
	if rec.ICAO != "" {
		t.airlines[rec.ICAO] = rec
	}
	if rec.Callsign != "" {
		if _, exists := t.airlines[rec.Callsign]; !exists {
			t.airlines[rec.Callsign] = rec
		}
	}
}

// loadAirports parses the airport CSV:
// name,city,country,iata,icao,lat,lng,timezone.
func (t *Table) loadAirports(raw []byte) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = 8

	for line := 0; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logging.Warn().Err(err).Int("line", line).Msg("Skipping malformed airport row")
			continue
		}
		if line == 0 && row[0] == "name" {
			continue // header
		}
		lat, latErr := strconv.ParseFloat(row[5], 64)
		lng, lngErr := strconv.ParseFloat(row[6], 64)
		if latErr != nil || lngErr != nil {
			logging.Warn().Int("line", line).Msg("Skipping airport row with bad coordinates")
			continue
		}
		rec := &models.AirportRecord{
			Name:     strings.TrimSpace(row[0]),
			City:     strings.TrimSpace(row[1]),
			Country:  strings.TrimSpace(row[2]),
			IATA:     canonical(row[3]),
			ICAO:     canonical(row[4]),
			Lat:      lat,
			Lng:      lng,
			Timezone: strings.TrimSpace(row[7]),
		}
		t.indexAirport(rec)
	}
}

func (t *Table) indexAirport(rec *models.AirportRecord) {
	if rec.IATA != "" {
		t.airports[rec.IATA] = rec
	}
	if rec.ICAO != "" {
		t.airports[rec.ICAO] = rec
	}
}
