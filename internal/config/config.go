// Package config defines service configuration and its layered loading.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Validate rejects combinations the service cannot start with.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"regexp"
	"strings"
)

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ModelPath points at the PMML classifier loaded at startup.
	ModelPath string `koanf:"model_path"`

	// StoreDriver selects persistence: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// DatabaseURL is the PostgreSQL DSN used by the postgres driver.
	DatabaseURL string `koanf:"database_url"`

	// ProfileCacheSize bounds the patient profile LRU.
	ProfileCacheSize int `koanf:"profile_cache_size"`

	// IdempotencySize bounds the remembered idempotency keys.
	IdempotencySize int `koanf:"idempotency_size"`

	// DefaultPageSize and MaxPageSize govern listing endpoints.
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`

	// MetricsNamespace prefixes every Prometheus metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsLabels are constant labels attached to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		ModelPath:        "configs/heatstroke.pmml",
		StoreDriver:      StoreMemory,
		SQLitePath:       "data/heatguard.db",
		ProfileCacheSize: 1024,
		IdempotencySize:  50_000,
		DefaultPageSize:  20,
		MaxPageSize:      100,
		MetricsNamespace: "heatguard",
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ModelPath == "":
		return fmt.Errorf("%w: model_path must not be empty", ErrInvalidConfig)
	case c.ProfileCacheSize <= 0:
		return fmt.Errorf("%w: profile_cache_size must be positive", ErrInvalidConfig)
	case c.DefaultPageSize <= 0 || c.MaxPageSize <= 0:
		return fmt.Errorf("%w: page sizes must be positive", ErrInvalidConfig)
	case !metricName.MatchString(c.MetricsNamespace):
		return fmt.Errorf("%w: metrics_namespace %q is not a valid metric name prefix", ErrInvalidConfig, c.MetricsNamespace)
	case c.DefaultPageSize > c.MaxPageSize:
		return fmt.Errorf("%w: default_page_size %d exceeds max_page_size %d", ErrInvalidConfig, c.DefaultPageSize, c.MaxPageSize)
	}

	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite store", ErrInvalidConfig)
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: database_url is required for the postgres store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	for k := range c.MetricsLabels {
		if !metricName.MatchString(k) {
			return fmt.Errorf("%w: metrics label %q is not a valid label name", ErrInvalidConfig, k)
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
