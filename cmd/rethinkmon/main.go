package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rethinkmon/rethinkmon/internal/collector"
	"github.com/rethinkmon/rethinkmon/internal/config"
	"github.com/rethinkmon/rethinkmon/internal/emitter"
	"github.com/rethinkmon/rethinkmon/internal/handlers"
	"github.com/rethinkmon/rethinkmon/internal/logging"
	"github.com/rethinkmon/rethinkmon/internal/reader"
	"github.com/rethinkmon/rethinkmon/internal/registry"
	"github.com/rethinkmon/rethinkmon/internal/router"
	"github.com/rethinkmon/rethinkmon/internal/scheduler"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("RethinkMon agent starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Connect to the monitored cluster
	logger.Info("Connecting to RethinkDB", "addresses", cfg.RethinkDB.Addresses)
	rdr, err := reader.Connect(cfg.RethinkDB, logger)
	if err != nil {
		logger.Fatal("Failed to connect to RethinkDB", "error", err)
	}
	defer func() { _ = rdr.Close() }()

	// Connect to the metric sink
	logger.Info("Connecting to metric sink", "type", cfg.Emitter.Type, "url", cfg.Emitter.URL)
	sink, err := emitter.NewSink(cfg.Emitter)
	if err != nil {
		logger.Fatal("Failed to connect to metric sink", "error", err)
	}
	em := emitter.New(logger, sink, cfg.Emitter, cfg.Collector.Tags)
	defer func() { _ = em.Close() }()

	col := collector.New(logger, rdr, cfg.Collector)

	// Create context for background services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional leader election: only the leader emits metrics
	var gate scheduler.Gate
	var leader handlers.LeaderReporter
	var reg *registry.Registry
	if cfg.Registry.Enabled {
		hostname, _ := os.Hostname()
		reg, err = registry.New(cfg.Registry, registry.AgentInfo{
			ID:        uuid.NewString(),
			Hostname:  hostname,
			Version:   Version,
			StartedAt: time.Now(),
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to etcd", "error", err)
		}
		if err := reg.Start(ctx); err != nil {
			logger.Fatal("Failed to start agent registration", "error", err)
		}
		gate = reg.IsLeader
		leader = reg
	}

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	// Start the collection scheduler
	sched := scheduler.New(logger, col, em, cfg.Collector, gate)
	sched.Start(ctx)

	// Initialize status API
	app := router.New(logger, sched, leader, *cfg, Version)

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the agent
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down agent...")

	sched.Stop()

	if reg != nil {
		if err := reg.Close(); err != nil {
			logger.Error("Failed to close registry", "error", err)
		}
	}

	// Graceful shutdown with 10 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Agent exited")
}
