// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// captureLogger redirects the global logger into a buffer for one test.
func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	return &buf
}

func parseLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line, got none")
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, line)
	}
	return fields
}

func TestInfoEmitsStructuredJSON(t *testing.T) {
	buf := captureLogger(t)

	Info().Str("index", "movies").Int("page_size", 100).Msg("Page indexed")

	fields := parseLogLine(t, buf)
	if fields["level"] != "info" {
		t.Errorf("expected level info, got %v", fields["level"])
	}
	if fields["message"] != "Page indexed" {
		t.Errorf("expected message, got %v", fields["message"])
	}
	if fields["index"] != "movies" {
		t.Errorf("expected index field, got %v", fields["index"])
	}
	if fields["page_size"] != float64(100) {
		t.Errorf("expected page_size 100, got %v", fields["page_size"])
	}
}

func TestWithAttachesDefaultFields(t *testing.T) {
	buf := captureLogger(t)

	child := With().Str("component", "etl").Logger()
	child.Info().Msg("hello")

	fields := parseLogLine(t, buf)
	if fields["component"] != "etl" {
		t.Errorf("expected component field on child logger, got %v", fields)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"WARN", zerolog.WarnLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitConsoleFormat(t *testing.T) {
	t.Cleanup(func() { Init(DefaultConfig()) })

	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "console", Timestamp: false, Output: &buf})

	Info().Msg("console line")

	out := buf.String()
	if out == "" {
		t.Fatal("expected console output")
	}
	// Console format is human-oriented, not JSON.
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected console format, got JSON: %s", out)
	}
}

func TestInitLevelFiltersLowerEvents(t *testing.T) {
	t.Cleanup(func() { Init(DefaultConfig()) })

	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Timestamp: false, Output: &buf})

	Info().Msg("dropped")
	Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("expected info event to be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("expected warn event to be emitted")
	}
}
