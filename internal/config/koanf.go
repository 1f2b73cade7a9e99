// Cohortscope - Cohort Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortscope

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file is loaded.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cohortscope/config.yaml",
	"/etc/cohortscope/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8501,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second, // cold dataset loads run inside the request
			ShutdownTimeout: 10 * time.Second,
		},
		Datasets: DatasetsConfig{
			DataDir:    "data",
			Ecommerce1: "ecommerce_data_1.csv",
			Ecommerce2: "ecommerce_data_2.csv",
		},
		Cache: CacheConfig{
			TTL:             24 * time.Hour,
			SingleFlight:    true,
			CleanupInterval: 5 * time.Minute,
			WarmOnStartup:   true,
			BreakerFailures: 3,
			BreakerTimeout:  30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      ":memory:",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Session: SessionConfig{
			IdleTimeout:     2 * time.Hour,
			MaxSessions:     1000,
			CleanupInterval: time.Minute,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration with precedence ENV > file > defaults and
// validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
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

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"http_host":          "server.host",
	"http_port":          "server.port",
	"http_read_timeout":  "server.read_timeout",
	"http_write_timeout": "server.write_timeout",
	"shutdown_timeout":   "server.shutdown_timeout",

	"data_dir":         "datasets.data_dir",
	"ecommerce_1_file": "datasets.ecommerce_1_file",
	"ecommerce_2_file": "datasets.ecommerce_2_file",

	"cache_ttl":              "cache.ttl",
	"cache_single_flight":    "cache.single_flight",
	"cache_cleanup_interval": "cache.cleanup_interval",
	"cache_warm_on_startup":  "cache.warm_on_startup",
	"cache_breaker_failures": "cache.breaker_failures",
	"cache_breaker_timeout":  "cache.breaker_timeout",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"session_idle_timeout":     "session.idle_timeout",
	"session_max_sessions":     "session.max_sessions",
	"session_cleanup_interval": "session.cleanup_interval",

	"cors_origins":       "security.cors_origins",
	"rate_limit_reqs":    "security.rate_limit_reqs",
	"rate_limit_window":  "security.rate_limit_window",
	"disable_rate_limit": "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps flat environment variable names to koanf paths.
// Unknown variables map to "" and are skipped.
//
//   - CACHE_TTL -> cache.ttl
//   - DUCKDB_MAX_MEMORY -> database.max_memory
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
