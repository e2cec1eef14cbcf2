package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/funnelstack/funnel-probe/internal/agent"
	"github.com/funnelstack/funnel-probe/internal/api"
	"github.com/funnelstack/funnel-probe/internal/classifier"
	"github.com/funnelstack/funnel-probe/internal/config"
	"github.com/funnelstack/funnel-probe/internal/engine"
	"github.com/funnelstack/funnel-probe/internal/insights"
	"github.com/funnelstack/funnel-probe/internal/metrics"
	"github.com/funnelstack/funnel-probe/internal/runner"
	"github.com/funnelstack/funnel-probe/internal/store"
	"github.com/funnelstack/funnel-probe/internal/utils"
)

func main() {
	// Optional .env for local development; a missing file is fine.
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting funnel-probe", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	runStore, err := buildStore(cfg.Store)
	if err != nil {
		logger.Error("failed to initialise run store", slog.Any("error", err))
		os.Exit(1)
	}
	defer runStore.Close()

	provider := agent.NewHTTPProvider(cfg.Agent.BaseURL, cfg.Agent.APIKey, cfg.Agent.Timeout)

	library, err := classifier.LoadLibrary(cfg.Rules.Path, logger)
	if err != nil {
		logger.Error("failed to load rule pack", slog.Any("error", err))
		os.Exit(1)
	}

	orchestrator := engine.NewOrchestrator(logger, provider, library, engine.Config{
		SettleDelay: cfg.Agent.SettleDelay,
	})

	runs := runner.New(logger, runStore, orchestrator, runner.Config{
		MaxConcurrent: cfg.Runner.MaxConcurrent,
		RunTimeout:    cfg.Runner.RunTimeout,
	})

	handler := api.NewHandler(logger, runs, insights.NewMiner(logger))
	server, err := api.NewServer(cfg.Server, handler, logger)
	if err != nil {
		logger.Error("failed to create HTTP server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("HTTP server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	// Let in-flight analyses reach a terminal state before the store closes.
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.Runner.RunTimeout)
	if err := runs.Drain(drainCtx); err != nil {
		logger.Warn("runs still in flight at shutdown", slog.Any("error", err))
	}
	cancelDrain()

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	logger.Info("funnel-probe stopped")
}

func buildStore(cfg config.StoreConfig) (store.RunStore, error) {
	switch cfg.Backend {
	case "valkey":
		return store.NewValkeyStore(store.ValkeyOptions{
			Addr:         cfg.Valkey.Addr,
			Username:     cfg.Valkey.Username,
			Password:     cfg.Valkey.Password,
			DB:           cfg.Valkey.DB,
			DialTimeout:  cfg.Valkey.DialTimeout,
			ReadTimeout:  cfg.Valkey.ReadTimeout,
			WriteTimeout: cfg.Valkey.WriteTimeout,
			MaxRetries:   cfg.Valkey.MaxRetries,
			TLS:          cfg.Valkey.TLS,
		}, cfg.ResultTTL)
	case "sqlite":
		return store.NewSQLiteStore(cfg.SQLitePath, cfg.ResultTTL)
	default:
		return store.NewMemoryStore(cfg.ResultTTL), nil
	}
}
