// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/vipledger/internal/admin"
	"github.com/carterperez-dev/vipledger/internal/auth"
	"github.com/carterperez-dev/vipledger/internal/catalog"
	"github.com/carterperez-dev/vipledger/internal/config"
	"github.com/carterperez-dev/vipledger/internal/core"
	"github.com/carterperez-dev/vipledger/internal/events"
	"github.com/carterperez-dev/vipledger/internal/health"
	"github.com/carterperez-dev/vipledger/internal/ledger"
	"github.com/carterperez-dev/vipledger/internal/middleware"
	"github.com/carterperez-dev/vipledger/internal/server"
	"github.com/carterperez-dev/vipledger/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := core.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	publisher := events.NewNoopPublisher()
	if cfg.Kafka.Enabled {
		kp, kafkaErr := events.NewKafkaPublisher(cfg.Kafka, logger)
		if kafkaErr != nil {
			return kafkaErr
		}
		publisher = kp
		logger.Info("kafka publisher connected",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
	}

	signer, err := auth.NewCookieSigner(cfg.Session)
	if err != nil {
		return err
	}

	userSvc := user.NewService(user.NewRepository(db), cfg.App)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(auth.NewRepository(db), signer, userSvc)
	authHandler := auth.NewHandler(authSvc, cfg.Session)

	ledgerSvc := ledger.NewService(
		ledger.NewRepository(db),
		ledger.NewRedisDashboardCache(redis, cfg.Cache.DashboardTTL),
		publisher,
		cfg.Ledger,
	)
	ledgerHandler := ledger.NewHandler(ledgerSvc)

	catalogHandler := catalog.NewHandler()

	healthHandler := health.NewHandler(
		health.Probe{Name: "database", Checker: db},
		health.Probe{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:     db.Stats,
		DBPing:      db.Ping,
		DBReconnect: db.Reconnect,
		RedisStats:  redis.PoolStats,
		RedisPing:   redis.Ping,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	baseLimit := middleware.FromWindow(
		cfg.RateLimit.Requests,
		cfg.RateLimit.Burst,
		cfg.RateLimit.Window,
	)

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit:    baseLimit,
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	verify := middleware.Authenticator(authSvc, cfg.Session.CookieName)
	perUser := middleware.RoleRateLimiter(
		redis.Client,
		middleware.DefaultRoleLimits(baseLimit),
	)
	authenticator := func(next http.Handler) http.Handler {
		return verify(perUser(next))
	}
	adminOnly := middleware.RequireAdmin
	credentialLimiter := middleware.CredentialRateLimiter(
		redis.Client,
		middleware.FromWindow(
			cfg.RateLimit.AuthRequests,
			cfg.RateLimit.AuthBurst,
			cfg.RateLimit.Window,
		),
	)

	router.Route("/v1", func(r chi.Router) {
		catalogHandler.RegisterRoutes(r)

		authHandler.RegisterRoutes(r, authenticator, credentialLimiter)
		userHandler.RegisterRoutes(r, authenticator)
		ledgerHandler.RegisterRoutes(r, authenticator)

		authHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		ledgerHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := publisher.Close(); err != nil {
		logger.Error("event publisher close error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
