package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abhishek2316/git-complexity-analyzer/internal/analytics"
	"github.com/abhishek2316/git-complexity-analyzer/internal/api"
	"github.com/abhishek2316/git-complexity-analyzer/internal/config"
	"github.com/abhishek2316/git-complexity-analyzer/internal/github"
	"github.com/abhishek2316/git-complexity-analyzer/internal/ingest"
	"github.com/abhishek2316/git-complexity-analyzer/internal/searchlog"
	"github.com/abhishek2316/git-complexity-analyzer/internal/service"
	"github.com/abhishek2316/git-complexity-analyzer/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully")

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Initialize database connection and run migrations
	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbpool.Close()
	logger.Info("Database connection established")

	if err := runMigrations(cfg.DBURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	// 5. Initialize application components
	facts := store.NewPostgres(dbpool)
	ghClient := github.NewClient(cfg.GithubToken, cfg.GithubTimeout, logger)
	if limit, err := ghClient.CheckRateLimit(ctx); err != nil {
		logger.Warn("Could not check GitHub rate limit", "error", err)
	} else {
		logger.Info("GitHub rate limit", "limit", limit.Limit, "remaining", limit.Remaining, "resets_at", limit.ResetAt)
	}
	coordinator := ingest.NewCoordinator(facts, ghClient, logger)
	aggregator := analytics.NewAggregator(facts, logger)
	svc, err := service.New(coordinator, aggregator, facts, cfg.CacheSize, cfg.CacheTTL, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	recorder := searchlog.NewRecorder(facts, logger)

	// 6. Start the HTTP server
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(svc, recorder, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 7. Wait for shutdown signal or server failure
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received. Exiting.")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	return nil
}

func runMigrations(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
