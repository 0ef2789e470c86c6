// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

// Package services adapts the pipeline and the HTTP server to suture's
// Serve pattern.
package services

import (
	"context"
	"fmt"
)

// StartStopManager is the lifecycle shape of the replication manager.
// Satisfied by *etl.Manager.
type StartStopManager interface {
	Start(ctx context.Context) error
	Stop() error
}

// ETLService wraps the replication manager as a supervised service:
// start the manager, wait for cancellation, stop the manager.
type ETLService struct {
	manager StartStopManager
	name    string
}

// NewETLService creates the supervised wrapper around the manager.
func NewETLService(manager StartStopManager) *ETLService {
	return &ETLService{
		manager: manager,
		name:    "etl-manager",
	}
}

// Serve implements suture.Service. If Start fails, the error is returned
// immediately and suture restarts the service per its backoff policy.
func (s *ETLService) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return fmt.Errorf("etl manager start failed: %w", err)
	}

	<-ctx.Done()

	// Stop blocks until the in-flight pass reaches a page boundary.
	if err := s.manager.Stop(); err != nil {
		return fmt.Errorf("etl manager stop failed: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer; suture uses it in log messages.
func (s *ETLService) String() string {
	return s.name
}
