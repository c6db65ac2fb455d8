// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package config defines Wayfarer's configuration structure and the
// layered loading logic (defaults, optional YAML file, environment
// variables) built on Koanf v2.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Resolver ResolverConfig `koanf:"resolver"`
	Lookup   LookupConfig   `koanf:"lookup"`
	Scrape   ScrapeConfig   `koanf:"scrape"`
	Cache    CacheConfig    `koanf:"cache"`
	POI      POIConfig      `koanf:"poi"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// ResolverConfig bounds the flight-resolution pipeline.
type ResolverConfig struct {
	// MaxBatch is the number of records per request that receive the full
	// resolution chain. Records beyond it get static-only enrichment.
	MaxBatch int `koanf:"max_batch"`
}

// LookupConfig configures the remote reference-data client.
type LookupConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
	// MemoMaxEntries bounds the in-process result memo. The memo is reset
	// wholesale when the bound is reached; entries are idempotent
	// re-derivations, so losing them only costs one refetch.
	MemoMaxEntries int `koanf:"memo_max_entries"`
	// RatePerSecond caps outbound calls to the reference API.
	RatePerSecond float64 `koanf:"rate_per_second"`
}

// ScrapeConfig configures the flight-status page scraper.
type ScrapeConfig struct {
	BaseURL       string        `koanf:"base_url"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	// BreakerMinRequests and BreakerFailureRatio control when the circuit
	// opens; BreakerTimeout is how long it stays open before probing.
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
}

// CacheConfig configures the persistent TTL cache.
type CacheConfig struct {
	// Path is the badger database directory. Empty selects an in-memory
	// store, used in tests and ephemeral deployments.
	Path          string        `koanf:"path"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// POIConfig configures the point-of-interest fetch pipeline.
type POIConfig struct {
	// APIKey is the places API credential. Its absence is not a startup
	// error; the POI path degrades to "service unavailable" at request
	// time instead.
	APIKey    string        `koanf:"api_key"`
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	GlobalMax int           `koanf:"global_max"`
	TTLDays   int           `koanf:"ttl_days"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the host:port the HTTP server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks configuration invariants. It is called after loading,
// before any component is constructed.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Resolver.MaxBatch < 1 {
		return fmt.Errorf("resolver.max_batch must be positive, got %d", c.Resolver.MaxBatch)
	}
	if c.POI.GlobalMax < 1 {
		return fmt.Errorf("poi.global_max must be positive, got %d", c.POI.GlobalMax)
	}
	if c.POI.TTLDays < 1 {
		return fmt.Errorf("poi.ttl_days must be positive, got %d", c.POI.TTLDays)
	}
	if c.Cache.SweepInterval < time.Second {
		return fmt.Errorf("cache.sweep_interval must be at least 1s, got %s", c.Cache.SweepInterval)
	}
	if c.Scrape.BreakerFailureRatio <= 0 || c.Scrape.BreakerFailureRatio > 1 {
		return fmt.Errorf("scrape.breaker_failure_ratio must be in (0, 1], got %f", c.Scrape.BreakerFailureRatio)
	}
	return nil
}
