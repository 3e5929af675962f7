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

	"github.com/gin-gonic/gin"

	"github.com/layoutverifier/backend/config"
	httpDelivery "github.com/layoutverifier/backend/internal/delivery/http"
	"github.com/layoutverifier/backend/internal/domain"
	"github.com/layoutverifier/backend/internal/infrastructure/cache"
	"github.com/layoutverifier/backend/internal/infrastructure/layout"
	"github.com/layoutverifier/backend/internal/infrastructure/spreadsheet"
	"github.com/layoutverifier/backend/internal/infrastructure/storage"
	"github.com/layoutverifier/backend/internal/usecase"
	"github.com/layoutverifier/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("starting layout verifier backend",
		"version", "1.0.0",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
	)

	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize infrastructure dependencies
	sheetOpts := spreadsheet.Options{
		Sheet:          cfg.Spreadsheet.Sheet,
		ItemColumn:     cfg.Spreadsheet.ItemColumn,
		DefaultColumns: cfg.Spreadsheet.Columns,
	}

	service := usecase.NewVerificationService(
		spreadsheet.NewLoader(sheetOpts),
		layout.NewScanner(usecase.ItemNumberFromFilename),
		layout.NewExtractor(layout.ExtractorConfig{}),
		spreadsheet.NewColorizer(sheetOpts),
		usecase.VerificationServiceConfig{
			Workers:            cfg.Verification.Workers,
			DefaultExtension:   cfg.Layout.Extension,
			EnableDebugLogging: cfg.Verification.DebugLogging,
		},
	)

	slog.Info("verification configured",
		"item_column", cfg.Spreadsheet.ItemColumn,
		"columns", len(cfg.Spreadsheet.Columns),
		"extension", cfg.Layout.Extension,
		"workers", cfg.Verification.Workers,
	)

	sessions := cache.NewMemorySessionStore(cache.DefaultCleanupInterval, func(s *domain.Session) {
		if s.TempDir != "" {
			_ = os.RemoveAll(s.TempDir)
		}
	})
	defer sessions.Close()

	reports, err := newReportStore(cfg.Storage)
	if err != nil {
		slog.Error("failed to initialize object storage", "error", err)
		os.Exit(1)
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(service, sessions, reports, httpDelivery.HandlerConfig{
		SessionTTL:      cfg.Session.TTL,
		ReportFormat:    cfg.Report.Format,
		Columns:         cfg.Spreadsheet.Columns,
		LayoutExtension: cfg.Layout.Extension,
	})

	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// newReportStore connects object storage when enabled. A nil store disables
// publishing; it is returned as an untyped nil so the handler sees no store.
func newReportStore(cfg config.StorageConfig) (domain.ReportStore, error) {
	if !cfg.Enabled {
		slog.Info("object storage disabled")
		return nil, nil
	}

	store, err := storage.NewMinioStore(storage.Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
		URLExpiry: cfg.URLExpiry,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	slog.Info("object storage configured", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return store, nil
}
