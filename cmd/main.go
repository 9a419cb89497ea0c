// Package main is the appraise command: the evaluation HTTP service and
// its maintenance commands.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/appraise/internal/adapters/repository"
	"github.com/okian/appraise/internal/config"
	"github.com/okian/appraise/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "appraise",
	Short:         "Criteria-driven employee evaluation service",
	Long:          "appraise stores per-criterion employee scores, reconciles resubmissions and serves one evaluation record per employee.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := logger.Init(); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return nil
	},
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	defer func() { _ = logger.Sync() }()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and applies the configured log level.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// openStore builds the configured store, wrapped in a circuit breaker
// when enabled.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	var st repository.Store
	switch cfg.StoreDriver {
	case config.DriverMemory:
		st = repository.NewMemoryStore()
	case config.DriverSQLite, config.DriverPostgres:
		db, err := repository.OpenDB(ctx, repository.Driver(cfg.StoreDriver), cfg.StoreDSN)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
		}
		st = repository.NewSQLStore(db)
	default:
		return nil, fmt.Errorf("%w: store_driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}
	log.Info(ctx, "store opened", logger.String("driver", cfg.StoreDriver))

	if !cfg.BreakerEnabled {
		return st, nil
	}
	return repository.NewBreakerStore(st, repository.BreakerSettings{
		Name:        cfg.StoreDriver,
		MaxFailures: uint32(cfg.BreakerMaxFailures),
		Timeout:     time.Duration(cfg.BreakerTimeoutMS) * time.Millisecond,
	}, log.Named("breaker")), nil
}
