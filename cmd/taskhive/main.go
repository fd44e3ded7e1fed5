package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskhive/taskhive/internal/app"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/identity"
	"github.com/taskhive/taskhive/internal/loginaudit"
	"github.com/taskhive/taskhive/internal/observability"
	"github.com/taskhive/taskhive/internal/platform/cache"
	"github.com/taskhive/taskhive/internal/platform/db"
	"github.com/taskhive/taskhive/internal/ratelimit"
	"github.com/taskhive/taskhive/internal/tasks"
	"github.com/taskhive/taskhive/internal/token"
	"github.com/taskhive/taskhive/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if err := db.Migrate(ctx, cfg.PGDSN); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, stats cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	tokens := token.NewService(cfg.JWTSecret, cfg.JWTLifetimeHours)

	userRepo := users.NewPGRepository(pool)
	extractor := identity.NewExtractor(tokens, userRepo)

	attempts := loginaudit.NewPGRecorder(pool)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens, attempts)
	authHandler := auth.NewHandler(logger, authService, extractor).WithMetrics(metrics)

	taskRepo := tasks.NewRepository(pool)
	taskService := tasks.NewService(taskRepo, cfg.AllowPastDueDates)
	taskHandler := tasks.NewHandler(logger, taskService, extractor)

	statsCache := users.NewStatsCache(redisClient, cfg.StatsCacheTTL)
	userService := users.NewService(userRepo, statsCache)
	userHandler := users.NewHandler(logger, userService, taskRepo, extractor)

	limiterStore := ratelimit.NewPGStore(pool)
	limiter := ratelimit.NewLimiter(limiterStore, logger).WithMetrics(metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		AuthHandler:  authHandler,
		TasksHandler: taskHandler,
		UsersHandler: userHandler,
		Limiter:      limiter,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
