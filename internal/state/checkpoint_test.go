// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "state.txt"))
}

func checkTime(t *testing.T, got, want time.Time) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("expected checkpoint %v, got %v", want, got)
	}
}

func TestLoadMissingFileReturnsMinimum(t *testing.T) {
	s := newTestStore(t)
	checkTime(t, s.Load(), time.Time{})
}

func TestLoadMalformedFileReturnsMinimum(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"garbage", "not-a-timestamp\n"},
		{"empty", ""},
		{"whitespace only", "   \n"},
		{"date without time", "2024-01-01\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			if err := os.WriteFile(s.Path(), []byte(tt.content), 0o644); err != nil {
				t.Fatalf("writing fixture: %v", err)
			}
			checkTime(t, s.Load(), time.Time{})
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	want := time.Date(2024, 3, 15, 10, 30, 0, 123456000, time.UTC)

	if err := s.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	checkTime(t, s.Load(), want)
}

func TestSaveWritesNumericUTCOffset(t *testing.T) {
	// The file format is ISO-8601 with +00:00, not Z, so it stays readable
	// by consumers that expect an explicit offset.
	s := newTestStore(t)
	if err := s.Save(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("reading checkpoint file: %v", err)
	}
	got := strings.TrimSpace(string(data))
	if got != "2024-01-01T00:00:00+00:00" {
		t.Errorf("expected %q on disk, got %q", "2024-01-01T00:00:00+00:00", got)
	}
}

func TestSaveNormalizesToUTC(t *testing.T) {
	s := newTestStore(t)
	loc := time.FixedZone("UTC+3", 3*60*60)
	local := time.Date(2024, 6, 1, 15, 0, 0, 0, loc)

	if err := s.Save(local); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got := s.Load()
	checkTime(t, got, local)
	if got.Location() != time.UTC {
		t.Errorf("expected UTC location after load, got %v", got.Location())
	}
}

func TestLoadAcceptsZuluSuffix(t *testing.T) {
	// Hand-edited files using the Z shorthand still parse.
	s := newTestStore(t)
	if err := os.WriteFile(s.Path(), []byte("2024-05-01T12:00:00Z\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	checkTime(t, s.Load(), time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
}

func TestSaveOverwritesPrevious(t *testing.T) {
	s := newTestStore(t)
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	if err := s.Save(first); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := s.Save(second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	checkTime(t, s.Load(), second)
}

func TestResetRemovesCheckpoint(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(time.Now()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	checkTime(t, s.Load(), time.Time{})

	// Resetting an absent file is not an error.
	if err := s.Reset(); err != nil {
		t.Errorf("Reset on missing file: %v", err)
	}
}
