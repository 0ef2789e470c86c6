// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

// Package etl drives the replication pipeline: one pass drains the
// extractor page by page, pipes each page through the transformer and the
// loader, and advances the durable checkpoint only after the loader has
// acknowledged the page.
package etl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/kinosync/internal/config"
	"github.com/tomtom215/kinosync/internal/extract"
	"github.com/tomtom215/kinosync/internal/load"
	"github.com/tomtom215/kinosync/internal/logging"
	"github.com/tomtom215/kinosync/internal/metrics"
	"github.com/tomtom215/kinosync/internal/models"
	"github.com/tomtom215/kinosync/internal/retry"
	"github.com/tomtom215/kinosync/internal/transform"
)

// Loader is the bulk submission dependency of the pipeline.
// Satisfied by *load.Loader.
type Loader interface {
	Load(ctx context.Context, docs []models.FilmDocument) (load.Result, error)
}

// CheckpointStore is the durable high-water-mark dependency.
// Satisfied by *state.Store.
type CheckpointStore interface {
	Load() time.Time
	Save(t time.Time) error
}

// Manager owns the replication loop. It runs one pass, sleeps, and repeats
// until stopped; a failed pass sleeps the (typically shorter-or-equal)
// failure penalty instead of the nominal interval. The checkpoint store is
// the only shared mutable resource and is touched exclusively from the
// pass goroutine.
type Manager struct {
	cfg         *config.Config
	extractor   *extract.Extractor
	loader      Loader
	checkpoints CheckpointStore
	retryCfg    retry.Config

	mu       sync.Mutex
	started  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewManager wires the pipeline. The source is decorated with the backoff
// harness so transient database failures retry without involving the pass
// loop; the loader is retried at the page level in runPass.
func NewManager(cfg *config.Config, source extract.Source, loader Loader, checkpoints CheckpointStore) *Manager {
	retryCfg := retry.Config{
		MaxAttempts: cfg.ETL.RetryAttempts,
		MaxElapsed:  cfg.ETL.RetryMaxElapsed,
	}
	return &Manager{
		cfg:         cfg,
		extractor:   extract.NewExtractor(extract.NewRetryingSource(source, retryCfg), cfg.ETL.BatchSize),
		loader:      loader,
		checkpoints: checkpoints,
		retryCfg:    retryCfg,
		stopChan:    make(chan struct{}),
	}
}

// Start launches the replication loop in a background goroutine.
// It is an error to start a manager twice.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return fmt.Errorf("etl manager already started")
	}
	m.started = true

	m.wg.Add(1)
	go m.runLoop(ctx)
	return nil
}

// Stop signals the loop to finish and waits for it. Stop returns once the
// in-flight pass has reached a page boundary and the goroutine has exited.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	select {
	case <-m.stopChan:
	default:
		close(m.stopChan)
	}
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}

// Ready reports whether the manager has been started. The observability
// surface uses this for /readyz.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// runLoop alternates passes and sleeps until the context is canceled or
// Stop is called.
func (m *Manager) runLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		sleep := m.cfg.ETL.SleepInterval
		if err := m.RunPass(ctx); err != nil {
			if ctx.Err() != nil {
				logging.Info().Msg("Replication loop stopping")
				return
			}
			logging.Error().Err(err).Dur("penalty", m.cfg.ETL.FailurePenalty).Msg("Pass aborted")
			sleep = m.cfg.ETL.FailurePenalty
		}

		logging.Info().Dur("sleep", sleep).Msg("Pass finished, sleeping")
		select {
		case <-ctx.Done():
			logging.Info().Msg("Replication loop stopping")
			return
		case <-m.stopChan:
			logging.Info().Msg("Replication loop stopping")
			return
		case <-time.After(sleep):
		}
	}
}

// RunPass executes one full traversal of changes newer than the stored
// checkpoint. The checkpoint is reloaded at the top of every pass and
// advanced after each page the loader acknowledged, never past rows that
// have not been loaded. A processing error aborts the pass and leaves the
// checkpoint at the last acknowledged page.
func (m *Manager) RunPass(ctx context.Context) error {
	start := time.Now()
	checkpoint := m.checkpoints.Load()
	logging.Info().Time("checkpoint", checkpoint).Msg("Starting pass")

	it := m.extractor.Pages(checkpoint)
	pages := 0
	indexed := 0

	for it.Next(ctx) {
		page := it.Page()
		docs := transform.Page(page)

		var result load.Result
		err := retry.Do(ctx, m.retryCfg, "bulk_index", func() error {
			var loadErr error
			result, loadErr = m.loader.Load(ctx, docs)
			return loadErr
		})
		if err != nil {
			m.finishPass(start, "error")
			return fmt.Errorf("loading page of %d documents: %w", len(docs), err)
		}

		for _, f := range result.Failed {
			logging.Warn().
				Str("document_id", f.ID).
				Int("status", f.Status).
				Str("error_type", f.Type).
				Str("reason", f.Reason).
				Msg("Document rejected by index")
		}

		// The page is acknowledged; the checkpoint may now advance to the
		// page's maximum modified, and no further.
		next := it.Bound()
		if err := m.checkpoints.Save(next); err != nil {
			m.finishPass(start, "error")
			return fmt.Errorf("saving checkpoint: %w", err)
		}
		metrics.CheckpointSaves.Inc()
		metrics.CheckpointTimestamp.Set(float64(next.Unix()))
		metrics.PagesTotal.Inc()

		pages++
		indexed += result.Indexed
		logging.Info().
			Int("page_size", len(page)).
			Int("indexed", result.Indexed).
			Int("rejected", len(result.Failed)).
			Time("checkpoint", next).
			Msg("Page indexed")

		// Shutdown lands on page boundaries.
		if ctx.Err() != nil {
			m.finishPass(start, "error")
			return ctx.Err()
		}
	}

	if err := it.Err(); err != nil {
		m.finishPass(start, "error")
		return fmt.Errorf("extracting pages: %w", err)
	}

	m.finishPass(start, "success")
	logging.Info().
		Int("pages", pages).
		Int("documents", indexed).
		Dur("elapsed", time.Since(start)).
		Msg("Pass complete")
	return nil
}

func (m *Manager) finishPass(start time.Time, result string) {
	metrics.PassesTotal.WithLabelValues(result).Inc()
	metrics.PassDuration.Observe(time.Since(start).Seconds())
}
