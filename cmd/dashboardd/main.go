package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/neinfra/dpr-dashboard/internal/activity"
	"github.com/neinfra/dpr-dashboard/internal/dpr"
	"github.com/neinfra/dpr-dashboard/internal/language"
	"github.com/neinfra/dpr-dashboard/internal/notifications"
	"github.com/neinfra/dpr-dashboard/internal/risk"
	"github.com/neinfra/dpr-dashboard/internal/users"
	"github.com/neinfra/dpr-dashboard/pkg/common"
	"github.com/neinfra/dpr-dashboard/pkg/config"
	"github.com/neinfra/dpr-dashboard/pkg/database"
	"github.com/neinfra/dpr-dashboard/pkg/health"
	"github.com/neinfra/dpr-dashboard/pkg/kvstore"
	"github.com/neinfra/dpr-dashboard/pkg/logger"
	"github.com/neinfra/dpr-dashboard/pkg/pubsub"
	"github.com/neinfra/dpr-dashboard/pkg/redis"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load("dashboard")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.Server.Environment, cfg.Server.LogLevel); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	checks := map[string]func() error{}

	// Pick the storage backend: Postgres when configured, then Redis,
	// falling back to the in-process store.
	var store kvstore.Store
	switch {
	case cfg.Database.Enabled:
		db, err := database.Open(&cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		pg := kvstore.NewPostgres(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pg.Migrate(ctx); err != nil {
			cancel()
			logger.Fatal("Failed to migrate kv schema", zap.Error(err))
		}
		cancel()

		store = pg
		checks["database"] = health.DatabaseChecker(db)
		logger.Info("Using PostgreSQL storage")
	case cfg.Redis.Enabled:
		client, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer client.Close()

		store = kvstore.NewRedis(client.Client)
		checks["redis"] = health.RedisChecker(client.Client)
		logger.Info("Using Redis storage")
	default:
		store = kvstore.NewMemory()
		logger.Info("Using in-memory storage")
	}

	// Broadcast bus for cross-session language convergence.
	var bus pubsub.Bus
	if cfg.NATS.Enabled {
		natsBus, err := pubsub.ConnectNATS(cfg.NATS.URL)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsBus.Close()

		bus = natsBus
		checks["nats"] = health.NATSChecker(natsBus.Conn())
		logger.Info("Using NATS broadcast bus", zap.String("url", cfg.NATS.URL))
	} else {
		bus = pubsub.NewMemoryBus()
	}

	notifier := notifications.NewService(store, cfg.Retention.MaxNotifications)
	activities := activity.NewService(store, notifier, cfg.Retention.MaxActivities)
	scorer := risk.NewMockScorer(time.Now().UnixNano())

	dprService := dpr.NewService(store, scorer, activities, notifier)
	processor := dpr.NewProcessor(dprService, dpr.DefaultProcessingDelay)
	defer processor.Close()

	userService := users.NewService(store, activities)
	seedAdmin(userService)

	langCfg := language.Config{
		Default:      cfg.Language.Default,
		CookieName:   cfg.Language.CookieName,
		CookieMaxAge: cfg.Language.CookieMaxAge,
		ReloadDelay:  time.Duration(cfg.Language.ReloadDelayMs) * time.Millisecond,
	}
	synchronizer := language.New(store, language.NewMemoryCookieJar(), language.NewRuntimeEngine(), bus, langCfg)
	defer synchronizer.Close()
	synchronizer.Init(context.Background(), language.Hints{})

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Operational endpoints only. Dashboard state is consumed through
	// the service layer, not over HTTP.
	router.GET("/healthz", common.HealthCheck(cfg.Server.ServiceName, version, checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := ":" + cfg.Server.Port
	logger.Info("Dashboard service starting", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

// seedAdmin registers the bootstrap administrator on an empty registry.
func seedAdmin(registry *users.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	existing, err := registry.GetAll(ctx)
	if err != nil {
		logger.Warn("Failed to read user registry", zap.Error(err))
		return
	}
	if len(existing) > 0 {
		return
	}

	_, err = registry.Create(ctx, "system", users.Input{
		Name:       "Administrator",
		Email:      "admin@dpr.gov.in",
		Department: "Administration",
		Role:       users.RoleAdmin,
	})
	if err != nil {
		logger.Warn("Failed to seed administrator", zap.Error(err))
	}
}
