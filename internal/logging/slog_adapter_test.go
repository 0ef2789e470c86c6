// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newAdapterLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(NewSlogHandlerWithLogger(zerolog.New(buf)))
}

func TestSlogHandlerRoutesLevels(t *testing.T) {
	tests := []struct {
		name string
		log  func(l *slog.Logger)
		want string
	}{
		{"info", func(l *slog.Logger) { l.Info("m") }, "info"},
		{"warn", func(l *slog.Logger) { l.Warn("m") }, "warn"},
		{"error", func(l *slog.Logger) { l.Error("m") }, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newAdapterLogger(&buf))

			var fields map[string]any
			if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &fields); err != nil {
				t.Fatalf("output is not JSON: %v", err)
			}
			if fields["level"] != tt.want {
				t.Errorf("expected level %s, got %v", tt.want, fields["level"])
			}
		})
	}
}

func TestSlogHandlerCarriesAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := newAdapterLogger(&buf).With("service", "pipeline-layer")

	logger.Info("Service started", "restarts", int64(2))

	var fields map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &fields); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if fields["service"] != "pipeline-layer" {
		t.Errorf("expected service attr from With, got %v", fields)
	}
	if fields["restarts"] != float64(2) {
		t.Errorf("expected restarts attr, got %v", fields)
	}
	if fields["message"] != "Service started" {
		t.Errorf("expected message, got %v", fields["message"])
	}
}

func TestSlogHandlerGroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := newAdapterLogger(&buf).WithGroup("suture")

	logger.Info("m", "supervisor", "kinosync")

	var fields map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &fields); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if fields["suture.supervisor"] != "kinosync" {
		t.Errorf("expected grouped key suture.supervisor, got %v", fields)
	}
}

func TestSlogHandlerNestedGroupsKeepOrder(t *testing.T) {
	var buf bytes.Buffer
	logger := newAdapterLogger(&buf).WithGroup("outer").WithGroup("inner")

	logger.Info("m", "key", "v")

	var fields map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &fields); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if fields["outer.inner.key"] != "v" {
		t.Errorf("expected outer.inner.key, got %v", fields)
	}
}

func TestNewSlogLoggerUsesGlobal(t *testing.T) {
	if NewSlogLogger() == nil {
		t.Fatal("expected a logger")
	}
}
