// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error kinds.
package config

import (
	"context"

	"github.com/okian/appraise/internal/domain/criteria"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the persistence backend: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is passed to the SQL driver. Empty uses the driver default.
	StoreDSN string `koanf:"store_dsn"`

	// CanonicalOrder is the reference criterion ordering used for sorting
	// and C<n> codes.
	CanonicalOrder []string `koanf:"canonical_order"`

	// BreakerEnabled wraps the store in a circuit breaker.
	BreakerEnabled bool `koanf:"breaker_enabled"`

	// BreakerMaxFailures is the consecutive failure count that opens the breaker.
	BreakerMaxFailures int `koanf:"breaker_max_failures"`

	// BreakerTimeoutMS is how long the breaker stays open before probing.
	BreakerTimeoutMS int `koanf:"breaker_timeout_ms"`

	// CORSOrigins lists origins allowed to call the API from a browser.
	CORSOrigins []string `koanf:"cors_origins"`

	// SeedFile optionally points at a YAML fixture loaded on startup.
	SeedFile string `koanf:"seed_file"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		StoreDriver:        DriverMemory,
		CanonicalOrder:     criteria.DefaultOrder(),
		BreakerEnabled:     true,
		BreakerMaxFailures: 5,
		BreakerTimeoutMS:   30_000,
		CORSOrigins:        []string{"*"},
	}
}
