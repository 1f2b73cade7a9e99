// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

// Package config loads Cohortscope configuration.
//
// Configuration is layered with koanf: built-in defaults, then an optional YAML
// file (CONFIG_PATH or config.yaml), then environment variables. Environment
// variables use the flat names listed in envTransformFunc, for example
// CACHE_TTL=12h or DATA_DIR=/srv/data.
package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Datasets DatasetsConfig `koanf:"datasets"`
	Cache    CacheConfig    `koanf:"cache"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatasetsConfig locates the source files for the dataset catalog.
type DatasetsConfig struct {
	DataDir    string `koanf:"data_dir"`
	Ecommerce1 string `koanf:"ecommerce_1_file"` // E-commerce Data 1 (Latin-1 invoices)
	Ecommerce2 string `koanf:"ecommerce_2_file"` // E-commerce Data 2 (orders)
}

// Path joins a dataset file name onto DataDir unless it is already absolute.
func (d DatasetsConfig) Path(name string) string {
	if filepath.IsAbs(name) || d.DataDir == "" {
		return name
	}
	return filepath.Join(d.DataDir, name)
}

// CacheConfig controls the process-wide dataset cache.
type CacheConfig struct {
	TTL             time.Duration `koanf:"ttl"`
	SingleFlight    bool          `koanf:"single_flight"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	WarmOnStartup   bool          `koanf:"warm_on_startup"`

	// Loads of a broken source trip the breaker after this many consecutive failures.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// DatabaseConfig configures the embedded DuckDB engine that holds dataset tables.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// SessionConfig bounds the analysis session registry.
type SessionConfig struct {
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	MaxSessions     int           `koanf:"max_sessions"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// SecurityConfig holds HTTP hardening settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
