// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

// Package extract produces ordered pages of changed films from PostgreSQL.
//
// Given a checkpoint T, the extractor yields non-empty pages of rows with
// modified > T, sorted by (modified, id) ascending, each page capped at the
// configured batch size. Pagination is keyset-based on modified: each page's
// maximum modified becomes the next page's lower bound, which is correct
// only because the ORDER BY leads with modified.
package extract

import (
	"context"
	"time"

	"github.com/tomtom215/kinosync/internal/metrics"
	"github.com/tomtom215/kinosync/internal/models"
	"github.com/tomtom215/kinosync/internal/retry"
)

// Extractor turns a Source into a stream of pages.
type Extractor struct {
	source    Source
	batchSize int
}

// NewExtractor creates an extractor reading pages of batchSize rows.
func NewExtractor(source Source, batchSize int) *Extractor {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Extractor{source: source, batchSize: batchSize}
}

// Pages returns a pull iterator over all pages changed strictly after
// checkpoint. The iterator is single-use and not safe for concurrent use.
func (e *Extractor) Pages(checkpoint time.Time) *PageIterator {
	return &PageIterator{
		source: e.source,
		bound:  checkpoint,
		limit:  e.batchSize,
	}
}

// PageIterator walks pages with explicit advance/end semantics:
//
//	it := extractor.Pages(checkpoint)
//	for it.Next(ctx) {
//	    process(it.Page())
//	    save(it.Bound())
//	}
//	if err := it.Err(); err != nil { ... }
//
// Bound() after a successful Next is the maximum modified of the current
// page; it is the only value the checkpoint may advance to.
type PageIterator struct {
	source Source
	bound  time.Time
	limit  int
	page   []models.FilmRow
	err    error
	done   bool
}

// Next fetches the next page. It returns false when the source is drained
// or a fetch failed; Err distinguishes the two.
func (it *PageIterator) Next(ctx context.Context) bool {
	if it.done || it.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		return false
	}

	page, err := it.source.FetchPage(ctx, it.bound, it.limit)
	if err != nil {
		it.err = err
		return false
	}
	if len(page) == 0 {
		it.done = true
		return false
	}

	it.page = page
	it.bound = page[len(page)-1].Modified
	metrics.RecordsExtracted.Add(float64(len(page)))
	return true
}

// Page returns the current page. Valid only after Next returned true.
func (it *PageIterator) Page() []models.FilmRow {
	return it.page
}

// Bound returns the pagination lower bound: the checkpoint before the first
// Next, then the maximum modified of the most recent page.
func (it *PageIterator) Bound() time.Time {
	return it.bound
}

// Err returns the first error encountered, or nil if the stream ended
// because the source was drained.
func (it *PageIterator) Err() error {
	return it.err
}

// RetryingSource decorates a Source with the backoff harness: transient
// connection failures are retried per the configured budget, everything
// else propagates immediately.
type RetryingSource struct {
	inner Source
	cfg   retry.Config
}

// NewRetryingSource wraps source with retry-on-connection-error semantics.
func NewRetryingSource(source Source, cfg retry.Config) *RetryingSource {
	return &RetryingSource{inner: source, cfg: cfg}
}

// FetchPage implements Source.
func (s *RetryingSource) FetchPage(ctx context.Context, since time.Time, limit int) ([]models.FilmRow, error) {
	var page []models.FilmRow
	err := retry.Do(ctx, s.cfg, "postgres_fetch", func() error {
		var fetchErr error
		page, fetchErr = s.inner.FetchPage(ctx, since, limit)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}
