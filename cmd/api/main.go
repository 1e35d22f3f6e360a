// Package main is the entry point for the family trip API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/pkordes/family-trip/internal/config"
	"github.com/pkordes/family-trip/internal/handler"
	"github.com/pkordes/family-trip/internal/llm"
	"github.com/pkordes/family-trip/internal/metrics"
	"github.com/pkordes/family-trip/internal/pdftext"
	"github.com/pkordes/family-trip/internal/repo"
	"github.com/pkordes/family-trip/internal/roster"
	"github.com/pkordes/family-trip/internal/service"
	"github.com/pkordes/family-trip/migrations"
	"github.com/pkordes/family-trip/spec"
)

func main() {
	// A missing .env is normal in production.
	_ = godotenv.Load()

	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Storage ----------------------------------------------------------
	trips, closeStore, err := openTripRepo(ctx, cfg)
	if err != nil {
		slog.Error("failed to open trip store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	families, err := roster.Load(cfg.RosterPath)
	if err != nil {
		slog.Error("failed to load roster", "error", err)
		os.Exit(1)
	}

	// --- Services ---------------------------------------------------------
	m := metrics.New()

	var model service.TripExtractor
	if cfg.OpenAIAPIKey != "" {
		model = llm.NewClient(llm.Config{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			Temperature: 0.1,
			Timeout:     cfg.OpenAITimeout,
		}, logger)
	} else {
		slog.Warn("OPENAI_API_KEY not set: PDFs are scanned heuristically and image import is disabled")
	}
	pdf := pdftext.New(cfg.PDFToTextPath, pdftext.ExecRunner{Log: logger})

	tripSvc := service.NewTripService(trips, families, m, logger)
	extractSvc := service.NewExtractionService(model, pdf, families, m, logger)
	exportSvc := service.NewExportService(tripSvc)

	// --- Router -----------------------------------------------------------
	srvHandler := handler.NewServer(tripSvc, extractSvc, exportSvc, logger)
	r := srvHandler.Router(handler.RouterOptions{
		CORSOrigins:      cfg.CORSOrigins,
		MaxBodyBytes:     cfg.MaxBodyBytes,
		ExtractPerMinute: cfg.ExtractRatePerMin,
		Metrics:          m,
		OpenAPI:          spec.OpenAPI,
		WebRoot:          cfg.WebRoot,
	})

	// --- HTTP Server ------------------------------------------------------
	// Extraction waits on the model, so writes may take up to its timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.OpenAITimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "llm", model != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openTripRepo connects to Postgres when DATABASE_URL is set and to the
// sqlite file at DataPath otherwise. Migrations run before it returns.
func openTripRepo(ctx context.Context, cfg config.Config) (repo.TripRepo, func(), error) {
	if cfg.DatabaseURL == "" {
		db, err := repo.OpenSQLite(ctx, cfg.DataPath)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using sqlite trip store", "path", cfg.DataPath)
		return repo.NewBlobTripRepo(repo.NewBlobStore(db)), func() { _ = db.Close() }, nil
	}

	// pgxpool.New does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("create database pool: %w", err)
	}
	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// goose needs database/sql, not a pgx pool. The wrapper borrows pool
	// connections and keeps none idle.
	db := stdlib.OpenDBFromPool(pool)
	if err := repo.Migrate(ctx, repo.DialectPostgres, db, migrations.Postgres); err != nil {
		pool.Close()
		return nil, nil, err
	}
	slog.Info("database connection established")
	return repo.NewTripRepo(pool), pool.Close, nil
}
