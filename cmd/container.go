// cmd/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, SES) and composes
// the identity bounded-context container. This is the only place that knows
// about all modules.
package main

import (
	"context"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/libromesh/identity/pkg/config"
	"github.com/libromesh/identity/pkg/iam/iamcontainer"
	"github.com/libromesh/identity/pkg/logx"
	"github.com/libromesh/identity/pkg/notifx"
	"github.com/libromesh/identity/pkg/notifx/notifxconsole"
	"github.com/libromesh/identity/pkg/notifx/notifxses"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (all optional; the broker core only needs the IdP)
	DB       *sqlx.DB
	Redis    *redis.Client
	Notifier *notifx.Client

	// Bounded-context containers
	Identity *iamcontainer.Container
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure — audit DB, rate-limit Redis, notification provider
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Audit database (optional)
	if c.Config.Database.Enabled {
		db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
		if err != nil {
			logx.Fatalf("Failed to connect to audit database: %v", err)
		}
		db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
		db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
		db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
		c.DB = db
		logx.Info("  ✅ Audit database connected")
	} else {
		logx.Info("  ℹ️  Audit database disabled, audit events go to logs")
	}

	// 2. Rate-limit Redis (optional)
	if c.Config.Redis.Enabled {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Address(),
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
			logx.Fatalf("Failed to connect to Redis: %v", err)
		}
		logx.Info("  ✅ Redis connected")
	} else {
		logx.Info("  ℹ️  Redis disabled, login rate limiting off")
	}

	// 3. Notification provider
	c.initNotifier()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initNotifier() {
	switch c.Config.Notifx.Provider {
	case "ses":
		awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(),
			awsConfig.WithRegion(c.Config.Notifx.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		provider := notifxses.NewSESProvider(ses.NewFromConfig(awsCfg), c.Config.Notifx.FromAddress)
		c.Notifier = notifx.NewClient(provider, c.Config.Notifx.FromAddress, c.Config.Notifx.FromName)
		logx.Infof("  ✅ SES notifications configured (region: %s)", c.Config.Notifx.AWSRegion)

	case "console":
		c.Notifier = notifx.NewClient(notifxconsole.NewConsoleProvider(),
			c.Config.Notifx.FromAddress, c.Config.Notifx.FromName)
		logx.Info("  ✅ Console notifications configured (dev mode)")

	case "none":
		logx.Info("  ℹ️  Notifications disabled")

	default:
		logx.Fatalf("Unknown NOTIFX_PROVIDER: %s (use 'console', 'ses' or 'none')", c.Config.Notifx.Provider)
	}
}

// ---------------------------------------------------------------------------
// Module composition — each bounded context wires itself
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	c.Identity = iamcontainer.New(iamcontainer.Deps{
		Cfg:      c.Config,
		DB:       c.DB,
		Redis:    c.Redis,
		Notifier: c.Notifier,
	})
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}
