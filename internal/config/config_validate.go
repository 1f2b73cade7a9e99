// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/cohortscope/internal/logging"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatasets(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}
	return nil
}

func (c *Config) validateDatasets() error {
	if strings.TrimSpace(c.Datasets.Ecommerce1) == "" {
		return fmt.Errorf("ECOMMERCE_1_FILE must not be empty")
	}
	if strings.TrimSpace(c.Datasets.Ecommerce2) == "" {
		return fmt.Errorf("ECOMMERCE_2_FILE must not be empty")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("CACHE_CLEANUP_INTERVAL must be positive, got %s", c.Cache.CleanupInterval)
	}
	if c.Cache.BreakerFailures == 0 {
		return fmt.Errorf("CACHE_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", c.Session.IdleTimeout)
	}
	if c.Session.MaxSessions < 1 {
		return fmt.Errorf("SESSION_MAX_SESSIONS must be at least 1, got %d", c.Session.MaxSessions)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQS must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
