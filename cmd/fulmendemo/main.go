// Command fulmendemo wires fulmen-go's catalog-driven signal manager,
// structured logger, telemetry engine, and HTTP admin scaffolds into a
// minimal running service, demonstrating how an application assembles
// the pieces in internal/.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fulmenhq/fulmen-go/internal/catalog"
	"github.com/fulmenhq/fulmen-go/internal/fulmenlog"
	"github.com/fulmenhq/fulmen-go/internal/fulmensignal"
	"github.com/fulmenhq/fulmen-go/internal/httpadmin"
	"github.com/fulmenhq/fulmen-go/internal/telemetry"
	"github.com/fulmenhq/fulmen-go/pkg/config"
	"github.com/fulmenhq/fulmen-go/pkg/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load:", err)
		os.Exit(1)
	}

	loader := catalog.DefaultLoader()

	logger, err := fulmenlog.New(fulmenlog.Config{
		Service:     cfg.Service,
		Environment: cfg.Environment,
		Profile:     fulmenlog.Profile(cfg.LogProfile),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer logger.Flush()

	telemetryEngine := telemetry.NewEngine(loader, prometheus.DefaultRegisterer, telemetry.WithServiceName(cfg.Service))
	if err := telemetryEngine.RegisterAll(); err != nil {
		logger.Error("telemetry registration failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	signals := fulmensignal.NewManager(loader,
		fulmensignal.WithLogger(logger),
		fulmensignal.WithTelemetry(telemetryEngine),
		// SIGHUP never mutates this process's running config in place:
		// it validates the candidate and, if accepted, exits with the
		// conventional restart code so a supervisor relaunches fulmendemo
		// with the new environment already in effect.
		fulmensignal.WithConfigReload(
			func(ctx context.Context) error {
				candidate, err := config.Load()
				if err != nil {
					return &fulmensignal.ConfigValidationError{Errors: []error{err}}
				}
				if candidate.Addr == "" {
					return &fulmensignal.ConfigValidationError{Errors: []error{fmt.Errorf("addr must not be empty")}}
				}
				return nil
			},
			func() {
				logger.Info("reloaded configuration accepted, restarting", nil)
			},
		),
	)

	shutdownCtx, cancel := context.WithCancel(context.Background())
	_ = signals.RegisterHandler(fulmensignal.Handler{
		Name:     "server-shutdown",
		Signal:   "SIGTERM",
		Priority: 100,
		Timeout:  5 * time.Second,
		Fn: func(ctx context.Context) error {
			logger.Info("shutdown signal received, stopping server", nil)
			cancel()
			return nil
		},
	})
	_ = signals.RegisterHandler(fulmensignal.Handler{
		Name:     "interrupt-shutdown",
		Signal:   "SIGINT",
		Priority: 100,
		Timeout:  5 * time.Second,
		Fn: func(ctx context.Context) error {
			logger.Info("interrupt received, stopping server", nil)
			cancel()
			return nil
		},
	})

	if err := signals.Start(context.Background()); err != nil {
		logger.Error("signal manager start failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer signals.Stop()

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	reload := func(r *http.Request) error {
		logger.Info("config reload requested", nil)
		return nil
	}
	httpadmin.Mount(router, "/_fulmen", signals, httpadmin.RetryReload(reload, 5*time.Second),
		runtime.GOOS, cfg.LogProfile, version.FullVersion(),
		cfg.AdminTokens(), httpadmin.DefaultLimiter())

	instrumented := telemetryEngine.Middleware("", router)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: instrumented,
	}

	go func() {
		<-shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	logger.Info("fulmendemo listening", map[string]any{"addr": srv.Addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server exited with error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
