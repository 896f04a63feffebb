// Package main provides the GraphQL server for Parley.
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
	"github.com/parley-chat/parley-go/internal/config"
	"github.com/parley-chat/parley-go/internal/graph"
	"github.com/parley-chat/parley-go/internal/server"
)

func main() {
	// Parse flags
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	// Load .env if present, then configuration
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}
	cfg := config.Load()

	port := os.Getenv("PARLEY_SERVER_PORT")
	if port == "" {
		port = "8484"
	}

	// Initialize logging
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()
	slog.SetDefault(logger)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	slog.Info("starting parley-server", "port", port, "event_bus", cfg.EventBus)

	// Create resolver with all dependencies
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	resolver, err := graph.NewResolver(ctx, cfg, logger)
	cancel()
	if err != nil {
		slog.Error("failed to create resolver", "error", err)
		os.Exit(1)
	}

	// Wipe database if requested (via flag or env var)
	if *wipeDB || os.Getenv("PARLEY_WIPE_DB") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := resolver.WipeData(ctx); err != nil {
			cancel()
			slog.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		cancel()
	}
	defer func() {
		if err := resolver.Close(context.Background()); err != nil {
			slog.Error("failed to close resolver", "error", err)
		}
	}()

	srv := server.New(port, resolver, cfg.JWTSecret, logger)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
