// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tomtom215/kinosync/internal/config"
	"github.com/tomtom215/kinosync/internal/models"
)

// Source fetches one page of raw film rows changed strictly after since,
// ordered by (modified, id) ascending, at most limit rows.
//
// The interface exists so pagination logic can be exercised against an
// in-memory source in tests; PGSource is the production implementation.
type Source interface {
	FetchPage(ctx context.Context, since time.Time, limit int) ([]models.FilmRow, error)
}

// PGSource reads film pages from PostgreSQL through a pgx connection pool.
// The pool is owned by the caller for the process lifetime and reused
// across passes; pgx re-dials dropped connections on the next acquire.
type PGSource struct {
	pool *pgxpool.Pool
}

// NewPGSource opens a connection pool against the configured PostgreSQL
// endpoint. The pool dials lazily; use Ping to verify connectivity.
func NewPGSource(ctx context.Context, cfg *config.PostgresConfig) (*PGSource, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	return &PGSource{pool: pool}, nil
}

// Ping verifies the database is reachable.
func (s *PGSource) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *PGSource) Close() {
	s.pool.Close()
}

// FetchPage executes the canonical extraction query for one page.
func (s *PGSource) FetchPage(ctx context.Context, since time.Time, limit int) ([]models.FilmRow, error) {
	rows, err := s.pool.Query(ctx, filmPageQuery, since, limit)
	if err != nil {
		return nil, fmt.Errorf("querying film page: %w", err)
	}
	defer rows.Close()

	page := make([]models.FilmRow, 0, limit)
	for rows.Next() {
		row, err := scanFilmRow(rows)
		if err != nil {
			return nil, err
		}
		page = append(page, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading film page: %w", err)
	}
	return page, nil
}

// scanFilmRow decodes one result row. The three participant aggregates and
// the genre aggregate arrive as JSON arrays; the name lists arrive as
// native text arrays.
func scanFilmRow(rows pgx.Rows) (models.FilmRow, error) {
	var (
		row                                       models.FilmRow
		genresJSON, directorsJSON                 []byte
		actorsJSON, writersJSON                   []byte
		directorsNames, actorsNames, writersNames []string
	)

	err := rows.Scan(
		&row.ID,
		&row.Title,
		&row.Description,
		&row.IMDBRating,
		&row.Modified,
		&genresJSON,
		&directorsJSON,
		&actorsJSON,
		&writersJSON,
		&directorsNames,
		&actorsNames,
		&writersNames,
	)
	if err != nil {
		return models.FilmRow{}, fmt.Errorf("scanning film row: %w", err)
	}

	if err := json.Unmarshal(genresJSON, &row.Genres); err != nil {
		return models.FilmRow{}, fmt.Errorf("decoding genres for film %s: %w", row.ID, err)
	}
	if err := json.Unmarshal(directorsJSON, &row.Directors); err != nil {
		return models.FilmRow{}, fmt.Errorf("decoding directors for film %s: %w", row.ID, err)
	}
	if err := json.Unmarshal(actorsJSON, &row.Actors); err != nil {
		return models.FilmRow{}, fmt.Errorf("decoding actors for film %s: %w", row.ID, err)
	}
	if err := json.Unmarshal(writersJSON, &row.Writers); err != nil {
		return models.FilmRow{}, fmt.Errorf("decoding writers for film %s: %w", row.ID, err)
	}

	row.DirectorsNames = directorsNames
	row.ActorsNames = actorsNames
	row.WritersNames = writersNames
	return row, nil
}
