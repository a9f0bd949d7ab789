package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/libromesh/identity/pkg/apix"
	"github.com/libromesh/identity/pkg/config"
	"github.com/libromesh/identity/pkg/errx"
	"github.com/libromesh/identity/pkg/kernel"
	"github.com/libromesh/identity/pkg/logx"
)

func main() {
	// 1. Initialize Logger
	switch getEnv("LOG_LEVEL", "info") {
	case "debug":
		logx.SetLevel(logx.LevelDebug)
	case "warn":
		logx.SetLevel(logx.LevelWarn)
	case "error":
		logx.SetLevel(logx.LevelError)
	default:
		logx.SetLevel(logx.LevelInfo)
	}

	logx.Info("🚀 Starting LibroMesh Identity Broker...")

	// 2. Load Configuration & Build Container
	cfg := config.Load()
	container := NewContainer(cfg)
	defer container.Cleanup()

	// 3. Optional Role Catalog Seeding
	if cfg.Server.SeedRoles {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := container.Identity.SeedRoles(ctx); err != nil {
			logx.Errorf("Role seeding failed: %v", err)
		}
		cancel()
	}

	// 4. Create Fiber App with Config
	app := fiber.New(fiber.Config{
		AppName:               "LibroMesh Identity",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
	})

	// 5. Global Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// 6. Health Check
	app.Get("/health", healthCheckHandler(container))

	// 7. Register Routes
	container.Identity.AuthHandlers.RegisterRoutes(app)
	logx.Info("✓ Auth routes registered")

	container.Identity.UserHandlers.RegisterRoutes(app)
	logx.Info("✓ User routes registered")

	container.Identity.RoleHandlers.RegisterRoutes(app)
	logx.Info("✓ Role routes registered")

	// 8. 404 Handler
	app.Use(notFoundHandler)

	// 9. Start Server with Graceful Shutdown
	startServer(app, cfg)
}

// ============================================================================
// Handler Functions
// ============================================================================

// healthCheckHandler reports broker health: IdP reachability is best-effort
// and flips the status to degraded, never to down.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": "libromesh-identity",
			"version": getEnv("APP_VERSION", "1.0.0"),
		}

		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		if err := container.Identity.IdP.Ping(ctx); err != nil {
			health["idp"] = "unreachable"
			health["status"] = "degraded"
		} else {
			health["idp"] = "healthy"
		}

		if container.DB != nil {
			if err := container.DB.PingContext(ctx); err != nil {
				health["audit_db"] = "unhealthy"
				health["status"] = "degraded"
			} else {
				health["audit_db"] = "healthy"
			}
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	xerr := &errx.Error{
		Code:       "ROUTE_NOT_FOUND",
		Message:    "The requested endpoint does not exist",
		Type:       errx.TypeNotFound,
		HTTPStatus: fiber.StatusNotFound,
	}
	return c.Status(fiber.StatusNotFound).
		JSON(apix.FromError(xerr, kernel.CorrelationID(requestID(c))))
}

// ============================================================================
// Error Handler
// ============================================================================

// globalErrorHandler renders any error that escaped the handlers into the
// uniform response envelope.
func globalErrorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"ip":         c.IP(),
		"request_id": requestID(c),
	}).Errorf("Request error: %v", err)

	cid := kernel.CorrelationID(requestID(c))

	if e, ok := err.(*errx.Error); ok {
		resp := apix.FromError(e, cid)
		if getEnv("DEBUG", "false") == "true" && len(e.Details) > 0 {
			resp.Error.Details = e.Details
		}
		return c.Status(e.HTTPStatus).JSON(resp)
	}

	if e, ok := err.(*fiber.Error); ok {
		xerr := &errx.Error{
			Code:       "HTTP_ERROR",
			Message:    e.Message,
			Type:       errx.TypeInternal,
			HTTPStatus: e.Code,
		}
		return c.Status(e.Code).JSON(apix.FromError(xerr, cid))
	}

	xerr := &errx.Error{
		Code:       "SYSTEM_INTERNAL",
		Message:    "An unexpected error occurred",
		Type:       errx.TypeInternal,
		HTTPStatus: fiber.StatusInternalServerError,
	}
	return c.Status(fiber.StatusInternalServerError).JSON(apix.FromError(xerr, cid))
}

// ============================================================================
// Utility Functions
// ============================================================================

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && id != "" {
		return id
	}
	return c.Get("X-Request-ID")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// startServer starts the server with graceful shutdown
func startServer(app *fiber.App, cfg *config.Config) {
	go func() {
		logx.Infof("🚀 Server listening on port %s", cfg.Server.Port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", cfg.Server.Port)

		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	gracefulShutdown(app)
}

// gracefulShutdown handles graceful server shutdown
func gracefulShutdown(app *fiber.App) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
