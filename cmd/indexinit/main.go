// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

// Package main is the one-shot index bootstrap tool.
//
// It creates the movies index with its full mapping (strict, ru_en
// analyzer, nested participants) and exits. The replication service never
// creates or alters the index itself; run this once before the service.
//
//	indexinit          # create the index if missing
//	indexinit --force  # delete and recreate (destroys documents)
package main

import (
	"context"
	"os"

	"github.com/spf13/pflag"
	"github.com/tomtom215/kinosync/internal/config"
	"github.com/tomtom215/kinosync/internal/load"
	"github.com/tomtom215/kinosync/internal/logging"
	"github.com/tomtom215/kinosync/internal/retry"
)

func main() {
	force := pflag.Bool("force", false, "delete and recreate the index if it exists")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx := context.Background()
	retryCfg := retry.Config{
		MaxAttempts: cfg.ETL.RetryAttempts,
		MaxElapsed:  cfg.ETL.RetryMaxElapsed,
	}

	es, err := load.NewClient(ctx, &cfg.Elastic, retryCfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to Elasticsearch")
	}

	created, err := load.EnsureIndex(ctx, es, cfg.Elastic.Index, *force)
	if err != nil {
		logging.Fatal().Err(err).Str("index", cfg.Elastic.Index).Msg("Index bootstrap failed")
	}

	if created {
		logging.Info().Str("index", cfg.Elastic.Index).Msg("Index bootstrap complete")
	} else {
		logging.Info().Str("index", cfg.Elastic.Index).Msg("Index unchanged; use --force to recreate")
	}
	os.Exit(0)
}
