// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package models

import "time"

// APIResponse is the standardized envelope used by all HTTP endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMs int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError describes a failed request in a machine-readable form.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ResolveRequest is the body of POST /api/v1/flights/resolve.
type ResolveRequest struct {
	Flights []FlightRecord `json:"flights"`
}

// ResolveResponse is the payload of a successful resolve call. Output
// length and ordering always match the request.
type ResolveResponse struct {
	Flights []EnrichedFlight `json:"flights"`
}

// POIResponse is the payload of a successful POI fetch. Source records
// whether the data came from cache or a fresh upstream call.
type POIResponse struct {
	Source string `json:"source"`
	Data   []POI  `json:"data"`
}
