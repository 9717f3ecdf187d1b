// Package main provides the SIGEL server entry point. It serves the auction
// lifecycle and inspection checklist APIs from a single process.
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

	"github.com/golang/glog"
	"github.com/spf13/pflag"

	"github.com/sigel-gov/sigel/pkg/config"
	"github.com/sigel-gov/sigel/pkg/database"
	"github.com/sigel-gov/sigel/pkg/server"
)

func main() {
	configPath := pflag.String("config", "", "Path to a YAML config file")
	loader := config.NewLoader()
	if err := loader.RegisterFlags(pflag.CommandLine); err != nil {
		glog.Fatalf("Failed to register flags: %v", err)
	}
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()

	// Initialize glog for backwards compatibility
	_ = flag.Set("logtostderr", "true")

	if *configPath == "" {
		*configPath = os.Getenv("SIGEL_CONFIG")
	}
	cfg, err := loader.Load(*configPath)
	if err != nil {
		glog.Fatalf("Failed to load config: %v", err)
	}

	logger := config.NewLogger(os.Stdout, cfg.Server.LogFormat, loader.Level())
	slog.SetDefault(logger)
	loader.SetLogger(logger)
	loader.Watch(nil)

	logger.Info("starting sigel server",
		"addr", cfg.Server.Addr,
		"config", *configPath,
		"database", cfg.Database.Type,
		"authMode", cfg.Auth.Mode,
		"cache", cfg.Cache.Backend,
		"events", cfg.Events.Backend,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	db, err := database.Open(&cfg.Database)
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	if err := database.Migrate(ctx, db, logger); err != nil {
		glog.Fatalf("Failed to migrate database: %v", err)
	}

	srv, err := server.New(cfg, db, logger)
	if err != nil {
		glog.Fatalf("Failed to initialize server: %v", err)
	}
	srv.Start(ctx)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	logger.Info("sigel server ready", "addr", cfg.Server.Addr)

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("component shutdown error", "error", err)
	}

	logger.Info("sigel server stopped")
}
