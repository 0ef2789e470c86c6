// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

// Package config loads and validates Kinosync configuration.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (POSTGRES_DB, ES_HOST, SLEEP_INTERVAL, ...)
//   - Optional YAML config file (config.yaml)
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the single configuration record built at startup and injected
// into the extractor, loader, and pipeline constructors. There is no other
// process-wide mutable state besides the connections owned by the pipeline.
type Config struct {
	Postgres PostgresConfig `koanf:"postgres"`
	Elastic  ElasticConfig  `koanf:"elastic"`
	ETL      ETLConfig      `koanf:"etl"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// PostgresConfig describes the relational source endpoint.
type PostgresConfig struct {
	DB             string        `koanf:"db"`
	User           string        `koanf:"user"`
	Password       string        `koanf:"password"`
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// DSN renders the pgx connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.DB)
}

// ElasticConfig describes the search index endpoint.
type ElasticConfig struct {
	Host           string        `koanf:"host"`  // base URL, e.g. http://localhost:9200
	Index          string        `koanf:"index"` // target index name
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// ETLConfig tunes the replication pipeline.
type ETLConfig struct {
	// SleepInterval is the pause between successful passes.
	SleepInterval time.Duration `koanf:"sleep_interval"`

	// FailurePenalty is the pause after a failed pass.
	FailurePenalty time.Duration `koanf:"failure_penalty"`

	// BatchSize caps rows per extracted page.
	BatchSize int `koanf:"batch_size"`

	// StateFilePath locates the durable checkpoint file.
	StateFilePath string `koanf:"state_file_path"`

	// RetryAttempts caps backoff attempts per network operation.
	RetryAttempts int `koanf:"retry_attempts"`

	// RetryMaxElapsed caps total backoff time per network operation.
	RetryMaxElapsed time.Duration `koanf:"retry_max_elapsed"`
}

// ServerConfig describes the observability HTTP surface.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig mirrors internal/logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// layered first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Postgres: PostgresConfig{
			DB:             "",
			User:           "",
			Password:       "",
			Host:           "localhost",
			Port:           5432,
			ConnectTimeout: 10 * time.Second,
		},
		Elastic: ElasticConfig{
			Host:           "http://localhost:9200",
			Index:          "movies",
			RequestTimeout: 30 * time.Second,
		},
		ETL: ETLConfig{
			SleepInterval:   60 * time.Second,
			FailurePenalty:  60 * time.Second,
			BatchSize:       100,
			StateFilePath:   "state.txt",
			RetryAttempts:   10,
			RetryMaxElapsed: 60 * time.Second,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8099,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load is the entry point used by the binaries; it delegates to the Koanf
// loader and validates the result.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
