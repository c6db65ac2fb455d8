// Wayfarer - Travel Data Enrichment and Caching Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Command server runs the Wayfarer service: flight enrichment and POI
// caching behind an HTTP API, supervised by a suture tree.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/wayfarer/internal/api"
	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/lookup"
	"github.com/tomtom215/wayfarer/internal/poi"
	"github.com/tomtom215/wayfarer/internal/resolver"
	"github.com/tomtom215/wayfarer/internal/scrape"
	"github.com/tomtom215/wayfarer/internal/staticdata"
	"github.com/tomtom215/wayfarer/internal/supervisor"
	"github.com/tomtom215/wayfarer/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Starting wayfarer")

	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("Service failed")
	}
	logging.Info().Msg("Stopped gracefully")
}

func run(cfg *config.Config) error {
	table := staticdata.Load()

	store, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Cache close failed")
		}
	}()

	// Resolution chain: static table, remote reference API, scraper.
	remote := lookup.New(cfg.Lookup)
	scraper := scrape.NewBreakerClient(cfg.Scrape)
	flightResolver := resolver.New(table, remote, scraper, cfg.Resolver)

	// POI cache-aside pipeline.
	places := poi.NewClient(cfg.POI)
	pipeline := poi.NewPipeline(store, places, cfg.POI)

	handler := api.NewHandler(flightResolver, pipeline, store, table)
	mw := api.NewChiMiddleware(api.MiddlewareConfigFromServer(cfg.Server))
	router := api.NewRouter(handler, mw)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMaintenanceService(services.NewCacheSweepService(store, cfg.Cache.SweepInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	return tree.Serve(ctx)
}
