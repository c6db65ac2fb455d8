// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8464 {
		t.Errorf("port = %d, want 8464", cfg.Server.Port)
	}
	if cfg.Resolver.MaxBatch != 25 {
		t.Errorf("max batch = %d, want 25", cfg.Resolver.MaxBatch)
	}
	if cfg.POI.GlobalMax != 30 || cfg.POI.TTLDays != 7 {
		t.Errorf("poi = %+v", cfg.POI)
	}
	if cfg.Scrape.BreakerFailureRatio != 0.6 {
		t.Errorf("breaker ratio = %v", cfg.Scrape.BreakerFailureRatio)
	}
	if cfg.Cache.SweepInterval != time.Hour {
		t.Errorf("sweep interval = %v", cfg.Cache.SweepInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("PLACES_API_KEY", "secret-key")
	t.Setenv("RESOLVER_MAX_BATCH", "10")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.POI.APIKey != "secret-key" {
		t.Errorf("api key = %q", cfg.POI.APIKey)
	}
	if cfg.Resolver.MaxBatch != 10 {
		t.Errorf("max batch = %d, want 10", cfg.Resolver.MaxBatch)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadIgnoresUnmappedEnv(t *testing.T) {
	t.Setenv("RANDOM_UNRELATED_VAR", "surprise")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8464 {
		t.Errorf("port = %d, unmapped env leaked into config", cfg.Server.Port)
	}
}

func TestLoadCORSOriginsFromEnv(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors origins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  port: 8080\npoi:\n  global_max: 12\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want file value 8080", cfg.Server.Port)
	}
	if cfg.POI.GlobalMax != 12 {
		t.Errorf("global max = %d, want 12", cfg.POI.GlobalMax)
	}
	// Unset file keys keep their defaults.
	if cfg.Resolver.MaxBatch != 25 {
		t.Errorf("max batch = %d, want default 25", cfg.Resolver.MaxBatch)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("HTTP_PORT", "9001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want env value 9001", cfg.Server.Port)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 99999 }},
		{"zero batch", func(c *Config) { c.Resolver.MaxBatch = 0 }},
		{"zero global max", func(c *Config) { c.POI.GlobalMax = 0 }},
		{"zero ttl", func(c *Config) { c.POI.TTLDays = 0 }},
		{"tiny sweep interval", func(c *Config) { c.Cache.SweepInterval = time.Millisecond }},
		{"breaker ratio above one", func(c *Config) { c.Scrape.BreakerFailureRatio = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("want validation error")
			}
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}
