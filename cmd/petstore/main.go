package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lyzr/petstore/cmd/petstore/container"
	"github.com/lyzr/petstore/cmd/petstore/routes"
	"github.com/lyzr/petstore/cmd/petstore/service"
	"github.com/lyzr/petstore/common/bootstrap"
	"github.com/lyzr/petstore/common/db"
	appmiddleware "github.com/lyzr/petstore/common/middleware"
	"github.com/lyzr/petstore/common/ratelimit"
	"github.com/lyzr/petstore/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (DB, logger, redis, cache, event bus)
	components, err := bootstrap.Setup(ctx, "petstore",
		bootstrap.WithDBInitHook(func(database *db.DB) error {
			return db.EnsureSchema(ctx, database)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap petstore: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	// Backstop cache invalidation driven by lifecycle events
	if err := service.RegisterCacheInvalidation(ctx, components.Bus, components.Cache, components.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register cache invalidation consumer: %v\n", err)
		os.Exit(1)
	}

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e)

	// Throttle the write path when redis is available
	if components.Redis != nil {
		limiter := ratelimit.NewLimiter(components.Redis.GetUnderlying(), components.Logger)
		e.Use(appmiddleware.WriteRateLimit(limiter, ratelimit.DefaultConfig))
	}

	// Setup health check
	setupHealthCheck(e, components)

	// Serve uploaded pet images
	e.Static("/images", components.Config.Storage.ImageDir)

	// Register all routes
	registerRoutes(e, serviceContainer)

	// Start server with graceful shutdown
	srv := server.New("petstore", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		if err := components.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "petstore",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterPetRoutes(e, serviceContainer)
	routes.RegisterTagRoutes(e, serviceContainer)
	routes.RegisterCategoryRoutes(e, serviceContainer)
}
