// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/kinosync/config.yaml",
	"/etc/kinosync/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// POSTGRES_DB -> postgres.db, SLEEP_INTERVAL -> etl.sleep_interval, ...
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Bare numbers in duration fields mean seconds (SLEEP_INTERVAL=60).
	if err := processDurationFields(k); err != nil {
		return nil, fmt.Errorf("failed to process duration fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the first file found, or empty string if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// durationConfigPaths lists config paths holding durations that accept
// either a Go duration string ("90s", "2m") or a bare number of seconds.
var durationConfigPaths = []string{
	"etl.sleep_interval",
	"etl.failure_penalty",
	"etl.retry_max_elapsed",
	"postgres.connect_timeout",
	"elastic.request_timeout",
	"server.timeout",
}

// processDurationFields normalizes duration values that arrived from the
// environment as strings. A plain integer is interpreted as seconds for
// compatibility with SLEEP_INTERVAL=60 style deployments.
func processDurationFields(k *koanf.Koanf) error {
	for _, path := range durationConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok {
			continue
		}

		var d time.Duration
		if n, err := strconv.Atoi(strVal); err == nil {
			d = time.Duration(n) * time.Second
		} else if parsed, err := time.ParseDuration(strVal); err == nil {
			d = parsed
		} else {
			return fmt.Errorf("%s: cannot parse %q as duration or seconds", path, strVal)
		}

		if err := k.Set(path, d); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unrecognized variables are dropped so unrelated environment noise never
// leaks into the configuration tree.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		// Relational source (spec'd names)
		"postgres_db":       "postgres.db",
		"postgres_user":     "postgres.user",
		"postgres_password": "postgres.password",
		"postgres_host":     "postgres.host",
		"postgres_port":     "postgres.port",

		// Search index
		"es_host":  "elastic.host",
		"es_index": "elastic.index",

		// Pipeline
		"sleep_interval":    "etl.sleep_interval",
		"failure_penalty":   "etl.failure_penalty",
		"batch_size":        "etl.batch_size",
		"state_file_path":   "etl.state_file_path",
		"retry_attempts":    "etl.retry_attempts",
		"retry_max_elapsed": "etl.retry_max_elapsed",

		// Observability surface
		"http_host": "server.host",
		"http_port": "server.port",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
