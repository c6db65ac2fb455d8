// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package cache provides the TTL-bound key/value store backing the POI
// cache-aside layer, the deterministic cache key function, and a bounded
// in-memory memo used by the remote lookup client.
//
// The store is a generic TTL key/value store: it knows nothing about
// geography. Keys are opaque strings produced by Key(); payloads are raw
// JSON. An expired-but-present entry behaves exactly like an absent one
// on read; it is physically removed only by SweepExpired or overwrite.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
)

// Store is a badger-backed TTL key/value store.
type Store struct {
	db *badger.DB

	mu    sync.RWMutex
	stats Stats

	// now is swappable for expiry tests.
	now func() time.Time
}

// Stats tracks store performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	LastSweep time.Time
}

// Open creates a Store at the given path. An empty path opens an
// in-memory store, used in tests and ephemeral deployments.
func Open(path string) (*Store, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	// Badger's default logger writes to stdlib log; silence it and rely
	// on our own structured logging around store operations.
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the payload for key if a valid (unexpired) entry exists.
// The second return value is false for both absent and expired entries;
// expired entries are not deleted on read.
func (s *Store) Get(key string) ([]byte, bool) {
	var entry models.CacheEntry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &entry)
		})
	})
	if err != nil {
		s.recordMiss()
		return nil, false
	}

	if !entry.Valid(s.now()) {
		s.recordMiss()
		return nil, false
	}

	s.recordHit()
	return entry.Payload, true
}

// EntryMeta is optional descriptive metadata stored with a payload. It
// records where and how the payload was produced; it never participates
// in lookup.
type EntryMeta struct {
	Coordinates  *models.Coordinates
	SearchParams *models.SearchParams
}

// Set upserts an entry by key. An existing entry with the same key is
// replaced wholesale, never merged.
func (s *Store) Set(key, dataType string, payload []byte, ttl time.Duration) error {
	return s.SetWithMeta(key, dataType, payload, ttl, EntryMeta{})
}

// SetWithMeta upserts like Set and additionally records the query that
// produced the payload.
func (s *Store) SetWithMeta(key, dataType string, payload []byte, ttl time.Duration, meta EntryMeta) error {
	now := s.now()
	entry := models.CacheEntry{
		Key:          key,
		DataType:     dataType,
		Coordinates:  meta.Coordinates,
		SearchParams: meta.SearchParams,
		Payload:      payload,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}

	raw, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
}

// Invalidate removes an entry by key. Removing a non-existent key is a
// no-op.
func (s *Store) Invalidate(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", key, err)
	}
	s.recordEviction(1)
	return nil
}

// SweepExpired removes all entries whose TTL has elapsed and returns the
// number removed. Called periodically by the supervised sweep service.
func (s *Store) SweepExpired() (int, error) {
	start := s.now()

	var expired [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var entry models.CacheEntry
			err := item.Value(func(v []byte) error {
				return json.Unmarshal(v, &entry)
			})
			if err != nil || !entry.Valid(start) {
				// Undecodable entries are swept along with expired ones;
				// they can never be served.
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cache sweep scan failed: %w", err)
	}

	for _, key := range expired {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err != nil {
			return 0, fmt.Errorf("cache sweep delete failed: %w", err)
		}
	}

	s.recordEviction(int64(len(expired)))
	s.mu.Lock()
	s.stats.LastSweep = start
	s.mu.Unlock()

	metrics.CacheSweepDuration.Observe(time.Since(start).Seconds())
	return len(expired), nil
}

// GetStats returns a snapshot of the store's counters.
func (s *Store) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// SetNowFunc replaces the store's clock. Test hook for expiry behavior.
func (s *Store) SetNowFunc(now func() time.Time) {
	s.now = now
}

func (s *Store) recordHit() {
	s.mu.Lock()
	s.stats.Hits++
	s.mu.Unlock()
	metrics.CacheHits.WithLabelValues("geo").Inc()
}

func (s *Store) recordMiss() {
	s.mu.Lock()
	s.stats.Misses++
	s.mu.Unlock()
	metrics.CacheMisses.WithLabelValues("geo").Inc()
}

func (s *Store) recordEviction(n int64) {
	s.mu.Lock()
	s.stats.Evictions += n
	s.mu.Unlock()
	metrics.CacheEvictions.WithLabelValues("geo").Add(float64(n))
}
