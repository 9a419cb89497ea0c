package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if APPRAISE_CONFIG is set
//  3. env (prefix APPRAISE_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("APPRAISE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// APPRAISE_STORE_DRIVER -> store_driver; list values are comma separated.
	envProvider := env.ProviderWithValue("APPRAISE_", ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), "appraise_")
		if _, ok := listKeys[key]; ok {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// Slices are decoded into nil targets so a shorter list fully replaces
	// the default instead of overwriting its prefix.
	cfg := *base
	cfg.CanonicalOrder = nil
	cfg.CORSOrigins = nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if len(cfg.CanonicalOrder) == 0 {
		cfg.CanonicalOrder = base.CanonicalOrder
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = base.CORSOrigins
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the service cannot start without.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreDriver != DriverMemory && c.StoreDriver != DriverSQLite && c.StoreDriver != DriverPostgres:
		return fmt.Errorf("%w: unsupported store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case len(c.CanonicalOrder) == 0:
		return fmt.Errorf("%w: canonical_order must not be empty", ErrInvalidConfig)
	case c.BreakerEnabled && c.BreakerMaxFailures <= 0:
		return fmt.Errorf("%w: breaker_max_failures must be positive", ErrInvalidConfig)
	}
	return nil
}

var listKeys = map[string]struct{}{
	"canonical_order": {},
	"cors_origins":    {},
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
