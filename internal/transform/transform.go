// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

// Package transform maps raw film rows into search documents.
//
// The mapping is pure: no I/O, no shared state, one document per input row.
// All defaulting and sanitization rules live here so the extractor can stay
// a faithful reflection of the source and the loader can submit documents
// verbatim.
package transform

import (
	"github.com/tomtom215/kinosync/internal/models"
)

// naSentinel marks an unknown participant name in the source catalog.
// It carries no search value and is stripped from the name-only lists.
const naSentinel = "N/A"

// Document converts one raw film row into its search document:
//
//   - id is the string form of the film UUID
//   - title and description default to the empty string
//   - imdb_rating defaults to 0.0 and is never null in the document
//   - genres keeps names of entries that have an id
//   - participant lists drop entries without an id and deduplicate by id
//   - name-only lists drop empty entries and the "N/A" sentinel
func Document(row models.FilmRow) models.FilmDocument {
	return models.FilmDocument{
		ID:             row.ID.String(),
		Title:          stringOrEmpty(row.Title),
		Description:    stringOrEmpty(row.Description),
		IMDBRating:     floatOrZero(row.IMDBRating),
		Genres:         genreNames(row.Genres),
		Directors:      cleanPersons(row.Directors),
		Actors:         cleanPersons(row.Actors),
		Writers:        cleanPersons(row.Writers),
		DirectorsNames: cleanNames(row.DirectorsNames),
		ActorsNames:    cleanNames(row.ActorsNames),
		WritersNames:   cleanNames(row.WritersNames),
	}
}

// Page converts a full extractor page, preserving row order.
func Page(rows []models.FilmRow) []models.FilmDocument {
	docs := make([]models.FilmDocument, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, Document(row))
	}
	return docs
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrZero(f *float64) float64 {
	if f == nil {
		return 0.0
	}
	return *f
}

// genreNames keeps the names of genres that carry an id, in input order.
func genreNames(genres []models.GenreRef) []string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		if g.ID == "" {
			continue
		}
		names = append(names, g.Name)
	}
	return names
}

// cleanPersons drops participants lacking an id and deduplicates by id,
// keeping the first occurrence. Names are preserved verbatim.
func cleanPersons(persons []models.PersonRef) []models.PersonRef {
	out := make([]models.PersonRef, 0, len(persons))
	seen := make(map[string]struct{}, len(persons))
	for _, p := range persons {
		if p.ID == "" {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// cleanNames drops empty entries and the "N/A" sentinel.
func cleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || n == naSentinel {
			continue
		}
		out = append(out, n)
	}
	return out
}
