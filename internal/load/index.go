// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

package load

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/tomtom215/kinosync/internal/logging"
)

// movieIndexBody is the full settings+mappings document for the movies
// index: one shard, no replicas, strict mapping, and the ru_en analysis
// chain (standard tokenizer, lowercase, English/Russian stop words,
// English possessive stemmer, English and Russian stemmers).
const movieIndexBody = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "refresh_interval": "1s",
    "analysis": {
      "filter": {
        "english_stop": {"type": "stop", "stopwords": "_english_"},
        "english_stemmer": {"type": "stemmer", "language": "english"},
        "english_possessive_stemmer": {"type": "stemmer", "language": "possessive_english"},
        "russian_stop": {"type": "stop", "stopwords": "_russian_"},
        "russian_stemmer": {"type": "stemmer", "language": "russian"}
      },
      "analyzer": {
        "ru_en": {
          "tokenizer": "standard",
          "filter": [
            "lowercase",
            "english_stop",
            "english_stemmer",
            "english_possessive_stemmer",
            "russian_stop",
            "russian_stemmer"
          ]
        }
      }
    }
  },
  "mappings": {
    "dynamic": "strict",
    "properties": {
      "id": {"type": "keyword"},
      "imdb_rating": {"type": "float"},
      "genres": {"type": "keyword"},
      "title": {
        "type": "text",
        "analyzer": "ru_en",
        "fields": {"raw": {"type": "keyword"}}
      },
      "description": {"type": "text", "analyzer": "ru_en"},
      "directors_names": {"type": "text", "analyzer": "ru_en"},
      "actors_names": {"type": "text", "analyzer": "ru_en"},
      "writers_names": {"type": "text", "analyzer": "ru_en"},
      "directors": {
        "type": "nested",
        "dynamic": "strict",
        "properties": {
          "id": {"type": "keyword"},
          "name": {"type": "text", "analyzer": "ru_en"}
        }
      },
      "actors": {
        "type": "nested",
        "dynamic": "strict",
        "properties": {
          "id": {"type": "keyword"},
          "name": {"type": "text", "analyzer": "ru_en"}
        }
      },
      "writers": {
        "type": "nested",
        "dynamic": "strict",
        "properties": {
          "id": {"type": "keyword"},
          "name": {"type": "text", "analyzer": "ru_en"}
        }
      }
    }
  }
}`

// EnsureIndex creates the movies index with its full mapping if it does not
// exist. With force set, an existing index is deleted and recreated; this
// destroys indexed documents and is meant for the one-shot bootstrap tool,
// never the service.
//
// Returns true when the index was (re)created, false when it already
// existed and was left alone.
func EnsureIndex(ctx context.Context, es *elasticsearch.Client, index string, force bool) (bool, error) {
	exists, err := indexExists(ctx, es, index)
	if err != nil {
		return false, err
	}

	if exists {
		if !force {
			logging.Info().Str("index", index).Msg("Index already exists")
			return false, nil
		}
		logging.Warn().Str("index", index).Msg("Deleting existing index")
		if err := deleteIndex(ctx, es, index); err != nil {
			return false, err
		}
	}

	res, err := es.Indices.Create(
		index,
		es.Indices.Create.WithBody(strings.NewReader(movieIndexBody)),
		es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("creating index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return false, fmt.Errorf("creating index %s: %s: %s", index, res.Status(), string(body))
	}

	logging.Info().Str("index", index).Msg("Index created")
	return true, nil
}

func indexExists(ctx context.Context, es *elasticsearch.Client, index string) (bool, error) {
	res, err := es.Indices.Exists(
		[]string{index},
		es.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("checking index %s: %w", index, err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("checking index %s: %s", index, res.Status())
	}
}

func deleteIndex(ctx context.Context, es *elasticsearch.Client, index string) error {
	res, err := es.Indices.Delete(
		[]string{index},
		es.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("deleting index %s: %w", index, err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.IsError() {
		return fmt.Errorf("deleting index %s: %s", index, res.Status())
	}
	return nil
}
