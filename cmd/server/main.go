// Package main is the entry point for the numbering API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"brewops/internal/app"
	"brewops/internal/config"
	v1 "brewops/internal/infrastructure/http/v1"
	"brewops/internal/infrastructure/metrics"
	"brewops/pkg/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("BREWOPS_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.App.IsDevelopment(),
		Service:     cfg.App.Name,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	ctx := context.Background()
	log.Infow("starting numbering server",
		"driver", cfg.Database.Driver,
		"timezone", cfg.Numbering.Timezone,
	)

	// --- Counter store ---
	store, err := app.OpenStore(ctx, cfg.Database, log)
	if err != nil {
		log.Fatalw("failed to open counter store", "error", err)
	}
	defer store.Close()

	// --- Metrics ---
	var (
		registry       *prometheus.Registry
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metricsHandler = metrics.Handler(registry)
	}

	// --- Numbering service ---
	var reg prometheus.Registerer
	if registry != nil {
		reg = registry
	}
	numberingService := app.NewNumberingService(cfg, store, reg)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		Numbering:      numberingService,
		DB:             store.DB,
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
		Debug:          cfg.App.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
