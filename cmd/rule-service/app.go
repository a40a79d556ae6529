package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"rulebook/internal/config"
	"rulebook/internal/constants"
	"rulebook/internal/logger"
	"rulebook/internal/rules"
	"rulebook/pkg/bootstrap"
	"rulebook/pkg/health"
	"rulebook/pkg/metrics"
	"rulebook/pkg/middleware"
	"rulebook/pkg/migrations"
	"rulebook/pkg/ratelimit"
	"rulebook/pkg/retry"
	"rulebook/pkg/tracing"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	sqlDB          *sql.DB
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	repo           rules.Repository
	server         *http.Server
	router         *gin.Engine
	tracerProvider *tracing.Provider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("rule-service")
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initStore(ctx); err != nil {
		return fmt.Errorf("failed to initialize rule store: %w", err)
	}

	if a.Config.Broker.Type != "" {
		if err := a.InitBroker(); err != nil {
			return fmt.Errorf("failed to initialize broker: %w", err)
		}
	}

	tp, err := tracing.Init(a.Config.Tracing, "rule-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	if err := a.initRouter(); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds * time.Second,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds * time.Second,
	}

	return nil
}

// initStore connects the configured backend, retrying transient connection
// failures, and stacks the cache and circuit breaker decorators on top.
func (a *App) initStore(ctx context.Context) error {
	policy := retry.DefaultPolicy()
	policy.MaxElapsedTime = 30 * time.Second

	switch a.Config.Database.Driver {
	case "sqlite":
		var db *sql.DB
		err := retry.Retry(ctx, policy, func() error {
			var connErr error
			db, connErr = a.dbConnector.InitSQLite(ctx)
			return connErr
		})
		if err != nil {
			return err
		}
		a.sqlDB = db

		repo := rules.NewSQLiteRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		a.repo = repo

	case "postgres":
		var db *sql.DB
		err := retry.Retry(ctx, policy, func() error {
			var connErr error
			db, connErr = a.dbConnector.InitPostgreSQL(ctx)
			return connErr
		})
		if err != nil {
			return err
		}
		a.sqlDB = db

		if a.Config.Database.RunMigrations {
			if err := a.runPostgresMigrations(db); err != nil {
				return err
			}
		}
		a.repo = rules.NewPostgresRepository(db)

	case "mongodb":
		var client *mongo.Client
		err := retry.Retry(ctx, policy, func() error {
			var connErr error
			client, connErr = a.dbConnector.InitMongoDB(ctx)
			return connErr
		})
		if err != nil {
			return err
		}
		a.mongoClient = client

		dbName := a.Config.Database.MongoDB.Database
		if dbName == "" {
			dbName = constants.DefaultMongoDBName
		}
		mongoDB := client.Database(dbName)

		if err := migrations.EnsureRuleCollections(ctx, mongoDB); err != nil {
			return err
		}
		a.repo = rules.NewMongoRepository(mongoDB)

	default:
		return fmt.Errorf("unknown database driver: %s", a.Config.Database.Driver)
	}

	if a.Config.Database.Redis.Host != "" {
		redisClient, err := a.dbConnector.InitRedis(ctx)
		if err != nil {
			a.Logger.WarnwCtx(ctx, "Redis connection failed, rule cache disabled", "error", err)
		} else if redisClient != nil {
			a.redisClient = redisClient
			a.repo = rules.NewCachedRepository(a.repo, redisClient, a.Config.Database.Redis.TTLSeconds)
		}
	}

	if a.Config.CircuitBreaker.Enabled {
		a.repo = rules.NewCircuitBreakerRepository(a.repo, a.Config.CircuitBreaker)
	}

	return nil
}

func (a *App) runPostgresMigrations(db *sql.DB) error {
	driver, err := migratepostgres.WithInstance(db, &migratepostgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations/postgres", "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (a *App) initRouter() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.Config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware("rule-service"))
		router.Use(tracing.TraceContextMiddleware())
	}

	router.Use(middleware.RecoveryMiddleware(a.Logger))
	router.Use(middleware.LoggerMiddleware(a.Logger))
	router.Use(middleware.RequestIDMiddleware())

	if a.Config.CORS.Enabled {
		router.Use(middleware.CORSMiddleware(a.Config.CORS.AllowedOrigins))
	}

	if a.Config.RateLimit.Enabled {
		rateLimitConfig := ratelimit.Config{
			RPS:             a.Config.RateLimit.RPS,
			Burst:           a.Config.RateLimit.Burst,
			CleanupInterval: time.Duration(a.Config.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(a.Config.RateLimit.MaxAge) * time.Second,
		}
		router.Use(ratelimit.Middleware(rateLimitConfig))
		a.Logger.Infow("Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	opts := []rules.ServiceOption{}
	if a.Producer != nil && a.Config.Broker.Kafka.RuleEventsTopic != "" {
		events := rules.NewRuleEventProducer(a.Producer, a.Config.Broker.Kafka.RuleEventsTopic)
		opts = append(opts, rules.WithRuleEvents(events))
		a.Logger.Infow("Rule event producer initialized", "topic", a.Config.Broker.Kafka.RuleEventsTopic)
	}

	svc := rules.NewService(a.repo, a.Logger, opts...)

	handler := rules.NewHandler(svc, a.Logger)
	handler.RegisterRoutes(router)

	metrics.RegisterRuleMetrics()
	metrics.RegisterCircuitBreakerMetrics()
	metrics.RegisterBrokerMetrics()

	healthRegistry := health.NewCheckerRegistry()
	if a.sqlDB != nil {
		healthRegistry.Register(health.NewSQLChecker(a.Config.Database.Driver, a.sqlDB))
	}
	if a.mongoClient != nil {
		healthRegistry.Register(health.NewMongoDBChecker(a.mongoClient))
	}
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = router
	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.ShutdownApp()
	})

	return g.Wait()
}

func (a *App) ShutdownApp() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	return a.Shutdown(shutdownCtx, func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			if err := a.server.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
			}
		}

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.sqlDB, a.mongoClient)...)

		return errs
	})
}
