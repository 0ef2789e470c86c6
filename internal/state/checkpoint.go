// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

// Package state persists the replication checkpoint: the greatest modified
// timestamp that has been fully extracted, transformed, and acknowledged by
// the search index.
//
// The checkpoint lives in a single local file as an ISO-8601 timestamp with
// a UTC offset. Writes are atomic (temp file + rename) so a crash mid-save
// leaves either the previous value or the new one, never a torn file. A
// missing or malformed file reads as the minimum UTC timestamp, which makes
// the next pass reprocess from the beginning; that is safe because index
// upserts are idempotent.
package state

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/tomtom215/kinosync/internal/logging"
)

// timeLayout formats timestamps with a numeric UTC offset (+00:00 rather
// than Z) so the file stays interchangeable with other ISO-8601 consumers.
// Sub-second precision is preserved when present.
const timeLayout = "2006-01-02T15:04:05.999999999-07:00"

// Store is a durable single-value checkpoint store backed by a local file.
type Store struct {
	path string
}

// NewStore creates a checkpoint store at the given file path.
// The file is created on the first Save; it need not exist beforehand.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the checkpoint file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored checkpoint. A missing or unparseable file yields
// the minimum UTC timestamp (the zero time), which restarts replication
// from the beginning of the catalog.
func (s *Store) Load() time.Time {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn().Err(err).Str("path", s.path).Msg("Checkpoint file unreadable, starting from minimum timestamp")
		}
		return time.Time{}
	}

	raw := strings.TrimSpace(string(data))
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		logging.Warn().Str("path", s.path).Str("value", raw).Msg("Checkpoint file malformed, starting from minimum timestamp")
		return time.Time{}
	}
	return t.UTC()
}

// Save atomically replaces the stored checkpoint with t.
//
// Callers must only invoke Save after the loader has acknowledged the page
// that produced t; saving speculatively would let a crash skip rows.
func (s *Store) Save(t time.Time) error {
	value := t.UTC().Format(timeLayout)
	if err := atomic.WriteFile(s.path, strings.NewReader(value+"\n")); err != nil {
		return fmt.Errorf("writing checkpoint %s: %w", s.path, err)
	}
	return nil
}

// Reset removes the checkpoint file entirely. This is the administrative
// "reprocess everything" escape hatch; a missing file is not an error.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing checkpoint %s: %w", s.path, err)
	}
	return nil
}
