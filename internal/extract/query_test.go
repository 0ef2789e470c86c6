// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

package extract

import (
	"strings"
	"testing"
)

// Keyset pagination is only correct if the query keeps these clauses; guard
// them against accidental edits.
func TestFilmPageQueryShape(t *testing.T) {
	for _, clause := range []string{
		"WHERE fw.modified > $1",
		"ORDER BY fw.modified, fw.id",
		"LIMIT $2",
		"GROUP BY fw.id",
	} {
		if !strings.Contains(filmPageQuery, clause) {
			t.Errorf("query missing clause %q", clause)
		}
	}

	// Aggregates must be null-safe so films without participants still scan.
	if !strings.Contains(filmPageQuery, "COALESCE") {
		t.Error("query missing COALESCE around aggregates")
	}
	if !strings.Contains(filmPageQuery, "FILTER") {
		t.Error("query missing FILTER on role aggregates")
	}
}
