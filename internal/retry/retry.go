// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

// Package retry wraps network-bound operations in exponential backoff.
//
// Only connection-class failures are retried: refused or reset connections,
// unexpected EOFs, timeouts reported by the network stack, and an open
// circuit breaker. Everything else is treated as permanent and propagates
// to the caller after a single attempt, so a malformed query or a server
// rejection aborts the current pass instead of burning the retry budget.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tomtom215/kinosync/internal/logging"
	"github.com/tomtom215/kinosync/internal/metrics"
)

// Config bounds a backoff run.
type Config struct {
	// MaxAttempts caps the number of operation invocations, first try
	// included. Default: 10
	MaxAttempts int

	// MaxElapsed caps the total time spent, waits included.
	// Default: 60s
	MaxElapsed time.Duration

	// InitialInterval is the first wait; subsequent waits grow
	// exponentially with jitter. Default: 500ms
	InitialInterval time.Duration
}

// DefaultConfig returns the retry budget used for all endpoint operations.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     10,
		MaxElapsed:      60 * time.Second,
		InitialInterval: 500 * time.Millisecond,
	}
}

// Do executes op, retrying connection-class failures with exponential
// backoff until the attempt cap or the elapsed budget is exhausted.
//
// The operation name labels retry metrics and log lines. Context
// cancellation interrupts any pending wait and returns the context error.
// Non-connection errors return immediately without further attempts.
func Do(ctx context.Context, cfg Config, operation string, op func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = DefaultConfig().MaxElapsed
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = DefaultConfig().InitialInterval
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxElapsedTime = cfg.MaxElapsed

	policy := backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(cfg.MaxAttempts-1)), ctx)

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !IsConnectionError(err) {
			return backoff.Permanent(err)
		}
		metrics.RetryAttempts.WithLabelValues(operation).Inc()
		logging.Warn().
			Err(err).
			Str("operation", operation).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Msg("Transient failure, backing off")
		return err
	}

	return backoff.Retry(wrapped, policy)
}
