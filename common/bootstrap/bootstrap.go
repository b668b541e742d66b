package bootstrap

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lyzr/petstore/common/cache"
	"github.com/lyzr/petstore/common/config"
	"github.com/lyzr/petstore/common/db"
	"github.com/lyzr/petstore/common/events"
	"github.com/lyzr/petstore/common/logger"
	rediscommon "github.com/lyzr/petstore/common/redis"
)

// Setup initializes all service components
// This is the main entry point for the service
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	// Apply options
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
	)

	// 3. Initialize database (if not skipped)
	if !options.skipDB {
		components.Logger.Info("connecting to database")
		components.DB, err = db.New(ctx, components.Config, components.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		// Register cleanup
		components.addCleanup(func() error {
			components.Logger.Info("closing database connection")
			components.DB.Close()
			return nil
		})

		// Run DB init hook if provided
		if options.dbInitHook != nil {
			components.Logger.Info("running database init hook")
			if err := options.dbInitHook(components.DB); err != nil {
				components.Shutdown(ctx) // Cleanup what we've initialized
				return nil, fmt.Errorf("database init hook failed: %w", err)
			}
		}
	}

	// 4. Initialize Redis (if not skipped)
	if !options.skipRedis {
		raw := goredis.NewClient(&goredis.Options{
			Addr:     components.Config.RedisAddr(),
			Password: components.Config.Redis.Password,
			DB:       components.Config.Redis.DB,
		})

		redisClient := rediscommon.NewClient(raw, components.Logger)
		if err := redisClient.Health(ctx); err != nil {
			// Cached reads are an optimization; run without Redis
			components.Logger.Warn("redis unreachable, continuing without it", "error", err)
			_ = redisClient.Close()
		} else {
			components.Redis = redisClient
			components.addCleanup(func() error {
				components.Logger.Info("closing redis client")
				return redisClient.Close()
			})
		}
	}

	// 5. Initialize cache (if not skipped)
	if !options.skipCache && components.Config.Cache.Enabled {
		if components.Redis != nil {
			components.Logger.Info("initializing redis cache")
			components.Cache = cache.NewRedisCache(components.Redis)
			// Redis client cleanup already registered
		} else {
			components.Logger.Info("initializing memory cache")
			memCache := cache.NewMemoryCache(components.Logger)
			components.Cache = memCache
			components.addCleanup(func() error {
				components.Logger.Info("closing cache")
				return memCache.Close()
			})
		}
	}

	// 6. Initialize event bus (if not skipped)
	if !options.skipBus {
		components.Logger.Info("initializing event bus")
		bus := events.NewMemoryBus(components.Logger)
		components.Bus = bus

		components.addCleanup(func() error {
			components.Logger.Info("closing event bus")
			return bus.Close()
		})
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"db", components.DB != nil,
		"redis", components.Redis != nil,
		"cache", components.Cache != nil,
		"bus", components.Bus != nil,
	)

	return components, nil
}

// MustSetup is like Setup but panics on error
// Useful when the service can't recover from initialization failure
func MustSetup(ctx context.Context, serviceName string, opts ...Option) *Components {
	components, err := Setup(ctx, serviceName, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to setup service %s: %v", serviceName, err))
	}
	return components
}
