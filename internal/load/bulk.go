// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

package load

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tomtom215/kinosync/internal/logging"
	"github.com/tomtom215/kinosync/internal/metrics"
	"github.com/tomtom215/kinosync/internal/models"
	"github.com/tomtom215/kinosync/internal/retry"
)

// DocumentError is one per-document bulk rejection. Rejections do not abort
// the page; they are collected, logged, and surfaced in the Result.
type DocumentError struct {
	ID     string
	Status int
	Type   string
	Reason string
}

// Result reports the outcome of one bulk submission.
type Result struct {
	Indexed int
	Failed  []DocumentError
}

// Loader submits batches of film documents to a single index as bulk
// upserts keyed by document id. Re-loading a document with the same id
// replaces the existing version, which underwrites at-least-once safety.
//
// A circuit breaker guards the bulk call so a degraded cluster is not
// hammered between backoff retries; an open breaker surfaces as a
// connection-class error and lands in the same retry path.
type Loader struct {
	es      *elasticsearch.Client
	index   string
	breaker *gobreaker.CircuitBreaker[*esapi.Response]
}

// NewLoader creates a loader targeting the given index.
func NewLoader(es *elasticsearch.Client, index string) *Loader {
	cbName := "elastic-bulk"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	breaker := gobreaker.NewCircuitBreaker[*esapi.Response](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Only transport-health failures count against the breaker. A 400
		// from a malformed payload is a caller defect; tripping on it would
		// block healthy traffic.
		IsSuccessful: func(err error) bool {
			return err == nil || !retry.IsConnectionError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
	})

	return &Loader{es: es, index: index, breaker: breaker}
}

// Load submits docs as one bulk request. Per-document failures are returned
// in the Result and do not produce an error; a transport-level failure
// returns an error classified for the retry harness.
func (l *Loader) Load(ctx context.Context, docs []models.FilmDocument) (Result, error) {
	if len(docs) == 0 {
		return Result{}, nil
	}

	body, err := encodeBulkBody(l.index, docs)
	if err != nil {
		return Result{}, err
	}

	// Status classification happens inside Execute so the breaker sees a
	// 502/503/504 as the failure it is; the client returns those as a
	// response, not an error.
	start := time.Now()
	res, err := l.breaker.Execute(func() (*esapi.Response, error) {
		res, err := l.es.Bulk(bytes.NewReader(body), l.es.Bulk.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		if res.IsError() {
			// Drain so the connection can be reused.
			_, _ = io.Copy(io.Discard, res.Body)
			res.Body.Close()
			err := fmt.Errorf("bulk request rejected: %s", res.Status())
			if isGatewayStatus(res.StatusCode) {
				return nil, retry.MarkTransient(err)
			}
			return nil, err
		}
		return res, nil
	})
	metrics.BulkRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return Result{}, fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	result, err := decodeBulkResponse(res.Body)
	if err != nil {
		return Result{}, err
	}

	metrics.DocumentsIndexed.Add(float64(result.Indexed))
	metrics.DocumentFailures.Add(float64(len(result.Failed)))
	return result, nil
}

// encodeBulkBody renders the NDJSON bulk payload: an index action keyed by
// the document id, then the document source, for every document.
func encodeBulkBody(index string, docs []models.FilmDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	type indexAction struct {
		Index string `json:"_index"`
		ID    string `json:"_id"`
	}
	type actionLine struct {
		Index indexAction `json:"index"`
	}

	for i := range docs {
		if err := enc.Encode(actionLine{Index: indexAction{Index: index, ID: docs[i].ID}}); err != nil {
			return nil, fmt.Errorf("encoding bulk action for %s: %w", docs[i].ID, err)
		}
		if err := enc.Encode(docs[i]); err != nil {
			return nil, fmt.Errorf("encoding document %s: %w", docs[i].ID, err)
		}
	}
	return buf.Bytes(), nil
}

// bulkResponse mirrors the subset of the Elasticsearch bulk response the
// loader needs: per-item status and error details.
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

func decodeBulkResponse(r io.Reader) (Result, error) {
	var parsed bulkResponse
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("decoding bulk response: %w", err)
	}

	var result Result
	for _, item := range parsed.Items {
		// Each item has exactly one key (the action name, "index" here).
		for _, detail := range item {
			if detail.Status >= 200 && detail.Status < 300 {
				result.Indexed++
				continue
			}
			docErr := DocumentError{ID: detail.ID, Status: detail.Status}
			if detail.Error != nil {
				docErr.Type = detail.Error.Type
				docErr.Reason = detail.Error.Reason
			}
			result.Failed = append(result.Failed, docErr)
		}
	}
	return result, nil
}

// isGatewayStatus reports whether an HTTP status signals a transport-level
// availability problem rather than a request defect.
func isGatewayStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return -1
	}
}
