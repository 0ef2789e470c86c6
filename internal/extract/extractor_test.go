// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tomtom215/kinosync/internal/models"
	"github.com/tomtom215/kinosync/internal/retry"
)

// fakeSource serves rows from memory with the same contract as PGSource:
// rows with modified > since, ordered by (modified, id), at most limit.
type fakeSource struct {
	rows    []models.FilmRow
	calls   int
	failFor int   // fail this many leading calls
	err     error // error returned while failing
}

func (f *fakeSource) FetchPage(_ context.Context, since time.Time, limit int) ([]models.FilmRow, error) {
	f.calls++
	if f.failFor > 0 {
		f.failFor--
		return nil, f.err
	}

	var page []models.FilmRow
	for _, row := range f.rows {
		if row.Modified.After(since) {
			page = append(page, row)
			if len(page) == limit {
				break
			}
		}
	}
	return page, nil
}

func rowAt(t *testing.T, modified string) models.FilmRow {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, modified)
	if err != nil {
		t.Fatalf("bad fixture timestamp %q: %v", modified, err)
	}
	return models.FilmRow{ID: uuid.New(), Modified: ts}
}

func collectPages(t *testing.T, it *PageIterator) [][]models.FilmRow {
	t.Helper()
	var pages [][]models.FilmRow
	for it.Next(context.Background()) {
		pages = append(pages, it.Page())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration failed: %v", err)
	}
	return pages
}

func TestPagesWalksAllRowsInOrder(t *testing.T) {
	source := &fakeSource{rows: []models.FilmRow{
		rowAt(t, "2024-01-01T00:00:01Z"),
		rowAt(t, "2024-01-01T00:00:02Z"),
		rowAt(t, "2024-01-01T00:00:03Z"),
		rowAt(t, "2024-01-01T00:00:04Z"),
		rowAt(t, "2024-01-01T00:00:05Z"),
	}}

	pages := collectPages(t, NewExtractor(source, 2).Pages(time.Time{}))

	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if len(pages[0]) != 2 || len(pages[1]) != 2 || len(pages[2]) != 1 {
		t.Errorf("expected page sizes 2/2/1, got %d/%d/%d", len(pages[0]), len(pages[1]), len(pages[2]))
	}

	var prev time.Time
	for _, page := range pages {
		for _, row := range page {
			if row.Modified.Before(prev) {
				t.Errorf("rows out of order: %v after %v", row.Modified, prev)
			}
			prev = row.Modified
		}
	}
}

func TestPagesBoundTracksPageMaximum(t *testing.T) {
	source := &fakeSource{rows: []models.FilmRow{
		rowAt(t, "2024-01-01T00:00:01Z"),
		rowAt(t, "2024-01-01T00:00:02Z"),
		rowAt(t, "2024-01-01T00:00:03Z"),
	}}

	it := NewExtractor(source, 2).Pages(time.Time{})

	if !it.Next(context.Background()) {
		t.Fatalf("expected first page, got none (err=%v)", it.Err())
	}
	want := time.Date(2024, 1, 1, 0, 0, 2, 0, time.UTC)
	if !it.Bound().Equal(want) {
		t.Errorf("bound after page 1: expected %v, got %v", want, it.Bound())
	}

	if !it.Next(context.Background()) {
		t.Fatalf("expected second page, got none (err=%v)", it.Err())
	}
	want = time.Date(2024, 1, 1, 0, 0, 3, 0, time.UTC)
	if !it.Bound().Equal(want) {
		t.Errorf("bound after page 2: expected %v, got %v", want, it.Bound())
	}
}

func TestPagesExactBatchBoundary(t *testing.T) {
	// Row count divisible by batch size: the final full page is followed by
	// one empty fetch that terminates the stream cleanly.
	source := &fakeSource{rows: []models.FilmRow{
		rowAt(t, "2024-01-01T00:00:01Z"),
		rowAt(t, "2024-01-01T00:00:02Z"),
		rowAt(t, "2024-01-01T00:00:03Z"),
		rowAt(t, "2024-01-01T00:00:04Z"),
	}}

	pages := collectPages(t, NewExtractor(source, 2).Pages(time.Time{}))

	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if source.calls != 3 {
		t.Errorf("expected 3 fetches (2 full + 1 empty), got %d", source.calls)
	}
}

func TestPagesEmptySource(t *testing.T) {
	source := &fakeSource{}
	it := NewExtractor(source, 10).Pages(time.Time{})

	if it.Next(context.Background()) {
		t.Fatal("expected no pages from an empty source")
	}
	if err := it.Err(); err != nil {
		t.Errorf("expected clean end, got %v", err)
	}
}

func TestPagesSkipsRowsAtOrBeforeCheckpoint(t *testing.T) {
	checkpoint := time.Date(2024, 1, 1, 0, 0, 2, 0, time.UTC)
	source := &fakeSource{rows: []models.FilmRow{
		rowAt(t, "2024-01-01T00:00:01Z"),
		rowAt(t, "2024-01-01T00:00:02Z"), // equal to checkpoint, excluded
		rowAt(t, "2024-01-01T00:00:03Z"),
	}}

	pages := collectPages(t, NewExtractor(source, 10).Pages(checkpoint))

	if len(pages) != 1 || len(pages[0]) != 1 {
		t.Fatalf("expected a single page of one row, got %v", pages)
	}
	if !pages[0][0].Modified.After(checkpoint) {
		t.Errorf("row at %v not strictly after checkpoint %v", pages[0][0].Modified, checkpoint)
	}
}

func TestPagesSharedTimestamps(t *testing.T) {
	// Several rows with an identical modified must fit in one page together,
	// otherwise advancing the bound would skip their siblings.
	ts := "2024-01-01T00:00:01Z"
	source := &fakeSource{rows: []models.FilmRow{
		rowAt(t, ts), rowAt(t, ts), rowAt(t, ts),
	}}

	pages := collectPages(t, NewExtractor(source, 10).Pages(time.Time{}))

	if len(pages) != 1 || len(pages[0]) != 3 {
		t.Fatalf("expected one page of 3 rows, got %v", pages)
	}
}

func TestPagesPropagatesFetchError(t *testing.T) {
	wantErr := errors.New("query failed")
	source := &fakeSource{failFor: 1, err: wantErr}
	it := NewExtractor(source, 10).Pages(time.Time{})

	if it.Next(context.Background()) {
		t.Fatal("expected Next to fail")
	}
	if !errors.Is(it.Err(), wantErr) {
		t.Errorf("expected %v, got %v", wantErr, it.Err())
	}

	// The iterator stays terminated.
	if it.Next(context.Background()) {
		t.Error("expected Next to keep returning false after an error")
	}
}

func TestPagesStopsOnCanceledContext(t *testing.T) {
	source := &fakeSource{rows: []models.FilmRow{rowAt(t, "2024-01-01T00:00:01Z")}}
	it := NewExtractor(source, 10).Pages(time.Time{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if it.Next(ctx) {
		t.Fatal("expected Next to fail on canceled context")
	}
	if !errors.Is(it.Err(), context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", it.Err())
	}
	if source.calls != 0 {
		t.Errorf("expected no fetch after cancellation, got %d", source.calls)
	}
}

func TestRetryingSourceRetriesConnectionErrors(t *testing.T) {
	source := &fakeSource{
		rows:    []models.FilmRow{rowAt(t, "2024-01-01T00:00:01Z")},
		failFor: 2,
		err:     retry.MarkTransient(errors.New("connection refused")),
	}
	wrapped := NewRetryingSource(source, retry.Config{
		MaxAttempts:     5,
		MaxElapsed:      time.Second,
		InitialInterval: time.Millisecond,
	})

	page, err := wrapped.FetchPage(context.Background(), time.Time{}, 10)
	if err != nil {
		t.Fatalf("expected recovery after transient failures, got %v", err)
	}
	if len(page) != 1 {
		t.Errorf("expected 1 row, got %d", len(page))
	}
	if source.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", source.calls)
	}
}

func TestRetryingSourceDoesNotRetryPermanentErrors(t *testing.T) {
	wantErr := errors.New("column does not exist")
	source := &fakeSource{failFor: 10, err: wantErr}
	wrapped := NewRetryingSource(source, retry.Config{
		MaxAttempts:     5,
		MaxElapsed:      time.Second,
		InitialInterval: time.Millisecond,
	})

	_, err := wrapped.FetchPage(context.Background(), time.Time{}, 10)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if source.calls != 1 {
		t.Errorf("expected a single attempt for a permanent error, got %d", source.calls)
	}
}
