package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/okian/appraise/internal/adapters/http/api"
	"github.com/okian/appraise/internal/adapters/http/swagger"
	"github.com/okian/appraise/internal/adapters/repository"
	app "github.com/okian/appraise/internal/app"
	"github.com/okian/appraise/internal/config"
	"github.com/okian/appraise/internal/domain/criteria"
	"github.com/okian/appraise/internal/seed"
	"github.com/okian/appraise/pkg/logger"
	"github.com/okian/appraise/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the evaluation HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides APPRAISE_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Disable default Go metrics collection to avoid duplicate metrics;
	// system metrics are collected by the updater below.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := seedOnStart(ctx, cfg, st, log); err != nil {
		_ = st.Close()
		return err
	}

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithOrderIndex(criteria.NewOrderIndex(cfg.CanonicalOrder)),
		app.WithStore(st),
	)
	if err := svc.Start(ctx); err != nil {
		_ = st.Close()
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	handler := api.NewRouter(ctx, api.NewServer(svc, svc),
		api.WithCORSOrigins(cfg.CORSOrigins),
		api.WithMount(swagger.Register),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error(ctx, "HTTP server failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// seedOnStart loads the configured fixture, or the built-in one when the
// store is in memory and would otherwise start empty.
func seedOnStart(ctx context.Context, cfg *config.Config, st repository.Store, log logger.Logger) error {
	var (
		fx  seed.Fixture
		err error
	)
	switch {
	case cfg.SeedFile != "":
		fx, err = seed.LoadFile(cfg.SeedFile)
	case cfg.StoreDriver == config.DriverMemory:
		fx, err = seed.Default()
	default:
		return nil
	}
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, st, fx)
	if err != nil {
		return err
	}
	log.Info(ctx, "fixture applied",
		logger.Int("criteria", res.Criteria),
		logger.Int("employees", res.Employees),
	)
	return nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the evaluation gauges, which
// otherwise only move when the matching endpoints are called.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Unevaluated(ctx); err != nil {
				logger.Get().Debug(ctx, "service metrics refresh failed", logger.Error(err))
			}
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
