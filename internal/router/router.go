// Package router wires the status API routes and middlewares.
package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/rethinkmon/rethinkmon/internal/config"
	"github.com/rethinkmon/rethinkmon/internal/handlers"
	"github.com/rethinkmon/rethinkmon/internal/logging"
	"github.com/rethinkmon/rethinkmon/internal/middleware"
	"github.com/rethinkmon/rethinkmon/internal/scheduler"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, sched *scheduler.Scheduler, leader handlers.LeaderReporter, cfg config.Config, version string) *handlers.Handler {
	h := handlers.New(logger, sched, leader, version)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	// API key authentication middleware
	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)

	// API v1 routes (protected by API key)
	v1 := app.Group("/v1", authMiddleware)
	v1.Get("/status", h.Status)
	v1.Get("/snapshot/servers", h.SnapshotServers)
	v1.Get("/snapshot/tables", h.SnapshotTables)
	v1.Get("/snapshot/replicas", h.SnapshotReplicas)

	// Admin routes (protected by API key)
	admin := app.Group("/admin", authMiddleware)
	admin.Post("/collect", h.TriggerCollect)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, sched *scheduler.Scheduler, leader handlers.LeaderReporter, cfg config.Config, version string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "RethinkMon Agent",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, sched, leader, cfg, version)

	return app
}
