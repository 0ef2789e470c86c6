// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

// Package main is the entry point for the Kinosync replication service.
//
// Kinosync continuously replicates a film catalog from PostgreSQL into an
// Elasticsearch full-text index. Each pass pages changed films from the
// database, denormalizes them into search documents, bulk-upserts them
// into the movies index, and advances a durable checkpoint so the service
// resumes exactly where it left off across restarts.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layered env/file/defaults
//  2. Logging: zerolog, JSON by default
//  3. Checkpoint store: local state file
//  4. PostgreSQL pool: dial verified with exponential backoff
//  5. Elasticsearch client: ping verified with exponential backoff
//  6. Supervisor tree: pipeline layer (ETL manager) + api layer (metrics)
//
// # Configuration
//
// Environment variables (see internal/config):
//
//	POSTGRES_DB, POSTGRES_USER, POSTGRES_PASSWORD   source credentials (required)
//	POSTGRES_HOST, POSTGRES_PORT                    source endpoint (localhost:5432)
//	ES_HOST                                         index endpoint (http://localhost:9200)
//	SLEEP_INTERVAL                                  seconds between passes (60)
//	BATCH_SIZE                                      rows per page (100)
//	STATE_FILE_PATH                                 checkpoint file (state.txt)
//	HTTP_PORT                                       observability port (8099)
//
// # Signal handling
//
// SIGINT and SIGTERM cancel the root context; the pipeline stops at the
// next page boundary without saving a checkpoint for any partially loaded
// page, then connections are closed and the process exits.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/kinosync/internal/config"
	"github.com/tomtom215/kinosync/internal/etl"
	"github.com/tomtom215/kinosync/internal/extract"
	"github.com/tomtom215/kinosync/internal/load"
	"github.com/tomtom215/kinosync/internal/logging"
	"github.com/tomtom215/kinosync/internal/retry"
	"github.com/tomtom215/kinosync/internal/server"
	"github.com/tomtom215/kinosync/internal/state"
	"github.com/tomtom215/kinosync/internal/supervisor"
	"github.com/tomtom215/kinosync/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors use the default logger; config is not available yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("postgres_host", cfg.Postgres.Host).
		Str("elastic_host", cfg.Elastic.Host).
		Str("index", cfg.Elastic.Index).
		Str("state_file", cfg.ETL.StateFilePath).
		Dur("sleep_interval", cfg.ETL.SleepInterval).
		Int("batch_size", cfg.ETL.BatchSize).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	retryCfg := retry.Config{
		MaxAttempts: cfg.ETL.RetryAttempts,
		MaxElapsed:  cfg.ETL.RetryMaxElapsed,
	}

	checkpoints := state.NewStore(cfg.ETL.StateFilePath)

	source, err := extract.NewPGSource(ctx, &cfg.Postgres)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize PostgreSQL pool")
	}
	defer source.Close()

	if err := retry.Do(ctx, retryCfg, "postgres_connect", func() error {
		return source.Ping(ctx)
	}); err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	logging.Info().Msg("Connected to PostgreSQL")

	es, err := load.NewClient(ctx, &cfg.Elastic, retryCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to Elasticsearch")
	}

	loader := load.NewLoader(es, cfg.Elastic.Index)
	manager := etl.NewManager(cfg, source, loader, checkpoints)

	// Bridge zerolog to slog for sutureslog.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddPipelineService(services.NewETLService(manager))

	httpServer := server.NewHTTPServer(&cfg.Server, server.NewRouter(manager.Ready))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, supervisor.DefaultTreeConfig().ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	if err := <-errCh; err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Supervisor tree terminated")
		os.Exit(1)
	}

	logging.Info().Msg("Kinosync stopped")
}
