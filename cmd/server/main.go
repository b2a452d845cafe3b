// Command server runs the stage planning HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/stage-planner/internal/config"
	"github.com/iliyamo/stage-planner/internal/database"
	"github.com/iliyamo/stage-planner/internal/handler"
	"github.com/iliyamo/stage-planner/internal/logger"
	"github.com/iliyamo/stage-planner/internal/metrics"
	"github.com/iliyamo/stage-planner/internal/middleware"
	"github.com/iliyamo/stage-planner/internal/queue"
	"github.com/iliyamo/stage-planner/internal/repository"
	"github.com/iliyamo/stage-planner/internal/router"
	"github.com/iliyamo/stage-planner/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	bodyLimit       = "1M"
)

func main() {
	// A missing .env is fine when the environment is complete.
	_ = config.LoadDotEnv()
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	planCfg, err := config.LoadPlanConfig()
	if err != nil {
		log.Error("invalid plan configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Error("database unavailable", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.Migrate(migrateCtx, db)
	cancel()
	if err != nil {
		log.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Redis is optional: without it the cache and the rate limiter pass through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}

	met := metrics.New()
	var events service.EventPublisher
	if planCfg.EventsEnabled {
		events = service.NewAMQPPublisher(cfg.RabbitURL, log)
	}
	planner := service.NewPlanner(
		repository.NewLineupRepo(db),
		repository.NewPlanRepo(db),
		events,
		planCfg,
		met,
		log,
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit(bodyLimit))
	e.Use(logger.RequestLogger(log))
	e.Use(metrics.RequestMiddleware(met))

	router.RegisterRoutes(e, met, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), cfg.JWTSecret)
	router.RegisterPlanning(e, handler.NewPlanHandler(planner, log), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumerDone := make(chan struct{})
	if planCfg.ConsumerEnabled {
		go func() {
			defer close(consumerDone)
			c := queue.NewConsumer(cfg.RabbitURL, planCfg.LogDir, log)
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("plan consumer stopped", slog.Any("error", err))
			}
		}()
	} else {
		close(consumerDone)
	}

	addr := ":" + cfg.Port
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()
	log.Info("server starting",
		slog.String("addr", addr),
		slog.String("env", cfg.Env),
		slog.String("default_policy", planCfg.DefaultPolicy.String()),
		slog.Int("default_turnover", planCfg.DefaultTurnover),
		slog.Bool("events", planCfg.EventsEnabled),
		slog.Bool("consumer", planCfg.ConsumerEnabled),
	)

	<-ctx.Done()
	log.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
	}
	<-consumerDone
	log.Info("server stopped")
}
