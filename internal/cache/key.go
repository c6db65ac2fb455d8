// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package cache

import (
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Key derives a deterministic cache key from a POI request. The same
// logical request always produces the same key regardless of the order
// types are passed in: coordinates are rounded to 6 decimal places and
// the type set is sorted before hashing.
func Key(dataType string, lat, lng float64, radiusMeters int, types []string) string {
	sorted := make([]string, len(types))
	copy(sorted, types)
	sort.Strings(sorted)

	canonical := fmt.Sprintf("%s|%.6f|%.6f|%d|%s",
		dataType, round6(lat), round6(lng), radiusMeters, strings.Join(sorted, ","))

	hash := sha256.Sum256([]byte(canonical))
	return fmt.Sprintf("%s:%x", dataType, hash[:16])
}

// round6 rounds a coordinate to 6 decimal places (~11cm resolution),
// collapsing float noise from different callers into one key.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
