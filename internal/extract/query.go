// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

package extract

// filmPageQuery is the canonical extraction query: one row per changed film,
// with genres and role-partitioned participants aggregated in place.
//
// Keyset pagination contract: the WHERE bound, the ORDER BY, and the LIMIT
// must stay aligned. The caller passes the previous page's maximum modified
// as $1; because rows are ordered by (modified, id) ascending, every page
// starts strictly after the rows already seen. Films sharing the exact same
// modified value may be re-observed across passes, which the idempotent
// index upserts absorb.
//
// The DISTINCT inside each aggregate collapses the row multiplication
// introduced by the double LEFT JOIN fan-out (genres x participants).
// Participant aggregates additionally require a non-null person id so a
// role row pointing at a deleted person never yields a null member.
const filmPageQuery = `
SELECT
    fw.id,
    fw.title,
    fw.description,
    fw.rating AS imdb_rating,
    fw.modified,
    COALESCE(
        json_agg(DISTINCT jsonb_build_object('id', g.id, 'name', g.name))
        FILTER (WHERE g.id IS NOT NULL),
        '[]'
    ) AS genres,
    COALESCE(
        json_agg(DISTINCT jsonb_build_object('id', p.id, 'name', p.full_name))
        FILTER (WHERE pfw.role = 'director' AND p.id IS NOT NULL),
        '[]'
    ) AS directors,
    COALESCE(
        json_agg(DISTINCT jsonb_build_object('id', p.id, 'name', p.full_name))
        FILTER (WHERE pfw.role = 'actor' AND p.id IS NOT NULL),
        '[]'
    ) AS actors,
    COALESCE(
        json_agg(DISTINCT jsonb_build_object('id', p.id, 'name', p.full_name))
        FILTER (WHERE pfw.role = 'writer' AND p.id IS NOT NULL),
        '[]'
    ) AS writers,
    COALESCE(array_remove(array_agg(DISTINCT p.full_name)
        FILTER (WHERE pfw.role = 'director'), NULL), '{}') AS directors_names,
    COALESCE(array_remove(array_agg(DISTINCT p.full_name)
        FILTER (WHERE pfw.role = 'actor'), NULL), '{}') AS actors_names,
    COALESCE(array_remove(array_agg(DISTINCT p.full_name)
        FILTER (WHERE pfw.role = 'writer'), NULL), '{}') AS writers_names
FROM film_work fw
LEFT JOIN genre_film_work gfw ON fw.id = gfw.film_work_id
LEFT JOIN genre g ON gfw.genre_id = g.id
LEFT JOIN person_film_work pfw ON fw.id = pfw.film_work_id
LEFT JOIN person p ON pfw.person_id = p.id
WHERE fw.modified > $1
GROUP BY fw.id, fw.modified
ORDER BY fw.modified, fw.id
LIMIT $2`
