// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package models

import "time"

// Coordinates is a latitude/longitude pair used for POI searches.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// POI is the minimal display shape a point of interest is projected down
// to before caching. The trimming is deliberate: upstream responses carry
// dozens of fields the frontend never renders, and storing them would
// inflate every cache entry.
type POI struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Rating   float64     `json:"rating,omitempty"`
	PhotoRef string      `json:"photoRef,omitempty"`
	PhotoURL string      `json:"photoUrl,omitempty"`
	Type     string      `json:"type"`
	Geometry Coordinates `json:"geometry"`
}

// SearchParams records the query that produced a cached payload. Stored
// alongside the payload for debugging and offline cache inspection; it
// never participates in key derivation.
type SearchParams struct {
	RadiusMeters int      `json:"radiusMeters"`
	Types        []string `json:"types"`
}

// CacheEntry is the stored form of a cached payload. Invariant:
// ExpiresAt > CreatedAt; an entry is valid iff now < ExpiresAt. Entries
// are replaced wholesale by key, never merged.
type CacheEntry struct {
	Key          string        `json:"cacheKey"`
	DataType     string        `json:"dataType"`
	Coordinates  *Coordinates  `json:"coordinates,omitempty"`
	SearchParams *SearchParams `json:"searchParams,omitempty"`
	Payload      []byte        `json:"data"`
	CreatedAt    time.Time     `json:"createdAt"`
	ExpiresAt    time.Time     `json:"expiresAt"`
}

// Valid reports whether the entry is still within its TTL at the given
// instant.
func (e *CacheEntry) Valid(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}
