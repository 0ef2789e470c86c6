// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

// Package models defines the two shapes the pipeline moves between:
// FilmRow, the raw join product extracted from PostgreSQL, and
// FilmDocument, the denormalized record indexed into Elasticsearch.
package models

import (
	"time"

	"github.com/google/uuid"
)

// PersonRef is a single participant as aggregated by the extraction query.
// The ID is the string form of the person UUID; entries whose ID is empty
// are dropped by the transformer before indexing.
type PersonRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GenreRef is a single genre as aggregated by the extraction query.
// Only the name survives into the document; the ID gates inclusion.
type GenreRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FilmRow is one raw record emitted by the extractor: one film joined with
// its genres and its three role-partitioned participant sets.
//
// Optional scalar columns are pointers so that SQL NULL survives into the
// transformer, which owns the defaulting rules. The name-only lists may
// contain the "N/A" sentinel, which the transformer strips.
type FilmRow struct {
	ID          uuid.UUID
	Title       *string
	Description *string
	IMDBRating  *float64

	// Modified is the row's change timestamp. It drives keyset pagination
	// and the durable checkpoint; it never reaches the index.
	Modified time.Time

	Genres    []GenreRef
	Directors []PersonRef
	Actors    []PersonRef
	Writers   []PersonRef

	DirectorsNames []string
	ActorsNames    []string
	WritersNames   []string
}

// FilmDocument is the denormalized search record. Field names and JSON tags
// match the strict mapping of the movies index exactly; any extra field
// would be rejected by the index.
type FilmDocument struct {
	ID             string      `json:"id"`
	IMDBRating     float64     `json:"imdb_rating"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Genres         []string    `json:"genres"`
	DirectorsNames []string    `json:"directors_names"`
	ActorsNames    []string    `json:"actors_names"`
	WritersNames   []string    `json:"writers_names"`
	Directors      []PersonRef `json:"directors"`
	Actors         []PersonRef `json:"actors"`
	Writers        []PersonRef `json:"writers"`
}
