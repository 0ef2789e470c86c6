// Kinosync - Film Catalog Search Replication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kinosync

package config

import (
	"fmt"
	"net/url"
)

// Validate checks that required configuration is present and valid.
// A validation failure is fatal at startup: the service refuses to run
// with a configuration it cannot honor.
func (c *Config) Validate() error {
	if err := c.validatePostgres(); err != nil {
		return err
	}
	if err := c.validateElastic(); err != nil {
		return err
	}
	if err := c.validateETL(); err != nil {
		return err
	}
	return c.validateServer()
}

func (c *Config) validatePostgres() error {
	if c.Postgres.DB == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}
	if c.Postgres.User == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.Postgres.Password == "" {
		return fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if c.Postgres.Host == "" {
		return fmt.Errorf("POSTGRES_HOST must not be empty")
	}
	if c.Postgres.Port < 1 || c.Postgres.Port > 65535 {
		return fmt.Errorf("POSTGRES_PORT must be between 1 and 65535, got %d", c.Postgres.Port)
	}
	return nil
}

func (c *Config) validateElastic() error {
	if c.Elastic.Host == "" {
		return fmt.Errorf("ES_HOST must not be empty")
	}
	u, err := url.Parse(c.Elastic.Host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ES_HOST must be a valid URL (e.g. http://localhost:9200), got %q", c.Elastic.Host)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("ES_HOST scheme must be http or https, got %q", u.Scheme)
	}
	if c.Elastic.Index == "" {
		return fmt.Errorf("ES_INDEX must not be empty")
	}
	return nil
}

func (c *Config) validateETL() error {
	if c.ETL.SleepInterval <= 0 {
		return fmt.Errorf("SLEEP_INTERVAL must be positive, got %s", c.ETL.SleepInterval)
	}
	if c.ETL.FailurePenalty <= 0 {
		return fmt.Errorf("FAILURE_PENALTY must be positive, got %s", c.ETL.FailurePenalty)
	}
	if c.ETL.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be at least 1, got %d", c.ETL.BatchSize)
	}
	if c.ETL.StateFilePath == "" {
		return fmt.Errorf("STATE_FILE_PATH must not be empty")
	}
	if c.ETL.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1, got %d", c.ETL.RetryAttempts)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}
