// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"
	"time"

	"github.com/tomtom215/wayfarer/internal/logging"
)

// Sweeper deletes expired cache entries and reports how many went.
type Sweeper interface {
	SweepExpired() (int, error)
}

// CacheSweepService runs the expired-entry sweep on a fixed interval.
// Expired entries are invisible to readers, so the sweep is purely a
// space reclamation concern; a failed pass is logged and retried on the
// next tick rather than crashing the service.
type CacheSweepService struct {
	sweeper  Sweeper
	interval time.Duration
}

// NewCacheSweepService creates the sweep loop.
func NewCacheSweepService(sweeper Sweeper, interval time.Duration) *CacheSweepService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CacheSweepService{
		sweeper:  sweeper,
		interval: interval,
	}
}

// Serve implements suture.Service.
func (s *CacheSweepService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed, err := s.sweeper.SweepExpired()
			if err != nil {
				logging.Error().Err(err).Msg("Cache sweep failed")
				continue
			}
			if removed > 0 {
				logging.Info().Int("removed", removed).Msg("Cache sweep completed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *CacheSweepService) String() string {
	return "cache-sweep"
}
