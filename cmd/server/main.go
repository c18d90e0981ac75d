// Package main initializes and starts the widgetboard HTTP server,
// setting up configuration, logging, the database connection, the secret
// codec, repositories, services and handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atarasenko/widgetboard/internal/config"
	"github.com/atarasenko/widgetboard/internal/db"
	"github.com/atarasenko/widgetboard/internal/logger"
	"github.com/atarasenko/widgetboard/internal/repository"
	"github.com/atarasenko/widgetboard/internal/secrets"
	"github.com/atarasenko/widgetboard/internal/server/handler/http"
	"github.com/atarasenko/widgetboard/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Resolve the API-key encryption key now; a server that cannot encrypt
	// or decrypt stored keys must not start.
	codec := secrets.NewCodec(options.EncryptionKey, options.KeyFile)
	if err := codec.Resolve(); err != nil {
		zapLogger.Fatal("cannot resolve encryption key", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Purge soft-deleted widgets in the background.
	db.StartDeletedWidgetCleaner(ctx, postgresDB,
		time.Hour,       // interval
		30*24*time.Hour, // retention: 30 days
		zapLogger,
	)

	// Initialize the widget repository and business-logic services.
	widgetRepo := repository.NewPostgresWidgetRepository(postgresDB)
	widgetService := service.NewWidgetService(widgetRepo, codec)
	probe := service.NewProbe()

	// Create HTTP handlers and build the router.
	widgetHandler := http.NewWidgetHandler(widgetService, probe)
	router := http.NewRouter(widgetHandler, zapLogger, options.CORSOrigins)

	server := &nethttp.Server{
		Addr:    options.Port,
		Handler: router,
	}

	go func() {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		if err := server.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()

	// Drain in-flight requests before exiting.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("shutdown", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
