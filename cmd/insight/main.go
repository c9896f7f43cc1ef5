package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adlens/insight/internal/config"
	"github.com/adlens/insight/internal/dashboard"
	"github.com/adlens/insight/internal/database"
	"github.com/adlens/insight/internal/httpserver"
	"github.com/adlens/insight/internal/metrics"
	"github.com/adlens/insight/internal/middleware"
	"github.com/adlens/insight/internal/report"
	"github.com/adlens/insight/internal/storage"
	"github.com/adlens/insight/internal/upstream"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg)
	defer logger.Sync()

	logger.Info("starting Insight",
		zap.String("env", cfg.Server.Env),
		zap.String("addr", cfg.Server.Addr),
	)

	// Initialize Prometheus metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.NewMetrics("insight")
	}

	// Try to connect to PostgreSQL for snapshot persistence
	var snapshots storage.SnapshotStore
	var db *database.PostgresDB
	if cfg.Database.Enabled {
		db, err = database.NewPostgresDB(cfg.Database.DSN(), cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			logger.Warn("PostgreSQL not available, using in-memory snapshots", zap.Error(err))
			db = nil
		} else {
			defer db.Close()
			logger.Info("connected to PostgreSQL")
		}
	}
	if db != nil {
		pgStore := storage.NewPostgresSnapshotStore(db.Pool)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Warn("failed to ensure snapshot schema, using in-memory snapshots", zap.Error(err))
			snapshots = storage.NewInMemorySnapshotStore()
		} else {
			snapshots = pgStore
		}
		cancel()
	} else {
		snapshots = storage.NewInMemorySnapshotStore()
	}

	// Try to connect to Redis for the KPI preference
	var prefs dashboard.PreferenceStore
	if cfg.Redis.Enabled {
		rdb, err := database.NewRedisDB(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis not available, preferences held in memory", zap.Error(err))
		} else {
			defer rdb.Close()
			logger.Info("connected to Redis")
			prefs = dashboard.NewRedisPreferenceStore(rdb.Client)
		}
	}
	if prefs == nil {
		prefs = dashboard.NewMemoryPreferenceStore()
	}

	// Upstream API client
	fetcher := upstream.NewClient(upstream.Options{
		BaseURL:     cfg.Upstream.BaseURL,
		ReportsPath: cfg.Upstream.ReportsPath,
		ClientsPath: cfg.Upstream.ClientsPath,
		Timeout:     cfg.Upstream.Timeout,
		MaxRetries:  cfg.Upstream.MaxRetries,
	}, logger)

	// Orchestrator owns filter state and the aggregation pipeline
	orch := dashboard.New(context.Background(), fetcher, dashboard.Options{
		Budget: report.BudgetPolicy{
			Default:   cfg.Report.DefaultBudget,
			Overrides: cfg.Report.BudgetOverrides,
		},
		PageSize:         cfg.Report.PageSize,
		DefaultRangeDays: cfg.Report.DefaultRangeDays,
		KPIKey:           cfg.Report.KPIKey,
		Prefs:            prefs,
		Snapshots:        snapshots,
		Metrics:          m,
		Logger:           logger,
	})
	defer orch.Close()

	// Initial load in the background; the server starts serving the Loading
	// state immediately and flips to Ready when the fetch lands.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Upstream.Timeout)
		defer cancel()
		if err := orch.Refresh(ctx); err != nil {
			logger.Error("initial refresh failed", zap.Error(err))
		}
	}()

	// Create HTTP server
	deps := &httpserver.Dependencies{
		Config:       cfg,
		Logger:       logger,
		Metrics:      m,
		Orchestrator: orch,
	}

	handler := httpserver.NewServer(deps)

	// Wrap with middleware, innermost first
	logging := middleware.NewLoggingMiddleware(logger)
	recovery := middleware.NewRecoveryMiddleware(logger)
	requestID := middleware.NewRequestIDMiddleware()
	rateLimit := middleware.NewRateLimitMiddleware(cfg.RateLimit, logger)
	rateLimit.SetMetrics(m)

	handler = rateLimit.Handler(handler)
	handler = logging.Handler(handler)
	handler = recovery.Handler(handler)
	handler = requestID.Handler(handler)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func setupLogger(cfg *config.Config) *zap.Logger {
	var zapCfg zap.Config

	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	switch cfg.Log.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}

	return logger
}
