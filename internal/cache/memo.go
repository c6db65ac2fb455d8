// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package cache

import (
	"sync"

	"github.com/tomtom215/wayfarer/internal/metrics"
)

// Memo is a bounded, append-mostly in-process map used to remember
// provider results (including negative ones) for the process lifetime.
//
// Concurrent writers may race on the same key; last write wins. That is
// acceptable because entries are idempotent re-derivations of the same
// external truth. When the bound is reached the whole map is reset
// rather than evicting per-entry: losing entries only costs one refetch
// each, and reset keeps Put O(1).
type Memo[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
	max     int
	name    string
}

// NewMemo creates a Memo bounded to max entries. The name labels the
// memo's cache metrics.
func NewMemo[V any](name string, max int) *Memo[V] {
	if max < 1 {
		max = 1
	}
	return &Memo[V]{
		entries: make(map[string]V),
		max:     max,
		name:    name,
	}
}

// Get returns the memoized value for key, if present.
func (m *Memo[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	v, ok := m.entries[key]
	m.mu.RUnlock()

	if ok {
		metrics.CacheHits.WithLabelValues(m.name).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(m.name).Inc()
	}
	return v, ok
}

// Put stores a value, resetting the map first if the bound is reached.
func (m *Memo[V]) Put(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.max {
		metrics.CacheEvictions.WithLabelValues(m.name).Add(float64(len(m.entries)))
		m.entries = make(map[string]V)
	}
	m.entries[key] = value
}

// Len returns the current number of memoized entries.
func (m *Memo[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
