// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

// Package load submits film documents to the Elasticsearch movies index as
// idempotent bulk upserts, and owns the index bootstrap mapping.
package load

import (
	"context"
	"fmt"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/tomtom215/kinosync/internal/config"
	"github.com/tomtom215/kinosync/internal/logging"
	"github.com/tomtom215/kinosync/internal/retry"
)

// NewClient builds an Elasticsearch client for the configured endpoint and
// verifies connectivity with the backoff harness, mirroring the treatment
// of the database connection: the process does not enter its pass loop
// until the index has answered a ping once.
func NewClient(ctx context.Context, cfg *config.ElasticConfig, retryCfg retry.Config) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Host},
		// The transport's built-in retry on 502/503/504 would multiply every
		// attempt underneath the backoff harness; retry policy lives in the
		// retry package alone.
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}

	err = retry.Do(ctx, retryCfg, "elastic_connect", func() error {
		return ping(ctx, es)
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to elasticsearch at %s: %w", cfg.Host, err)
	}

	logging.Info().Str("host", cfg.Host).Msg("Connected to Elasticsearch")
	return es, nil
}

// ping issues a HEAD / and classifies refusals as transient so the backoff
// harness keeps trying while the cluster boots.
func ping(ctx context.Context, es *elasticsearch.Client) error {
	res, err := es.Ping(es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return retry.MarkTransient(fmt.Errorf("elasticsearch ping: %s", res.Status()))
	}
	return nil
}
