package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/agrivance/agrivance/internal/app"
	"github.com/agrivance/agrivance/internal/locations"
	"github.com/agrivance/agrivance/internal/platform/cache"
	"github.com/agrivance/agrivance/internal/platform/db"
	"github.com/agrivance/agrivance/internal/shipments"
	"github.com/agrivance/agrivance/internal/weather"
	"github.com/agrivance/agrivance/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, continuing degraded", slog.Any("error", err))
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	shipmentService := shipments.NewService(shipments.NewRepository(pool), nil)
	locationService := locations.NewService(locations.NewRepository(pool), nil)

	handlers := []jobs.TaskHandler{
		{Type: jobs.TaskShipmentPositionTick, Handler: jobs.HandleShipmentPositionTick(logger, shipmentService)},
	}
	cron := []jobs.CronRegistration{
		{Spec: "*/5 * * * *", Task: jobs.NewShipmentPositionTickTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
	}

	if cfg.OWMAPIKey != "" {
		weatherService := weather.NewService(logger, weather.NewClient(cfg.OWMAPIKey, ""), redisClient, cfg.WeatherCacheTTL)
		handlers = append(handlers, jobs.TaskHandler{
			Type:    jobs.TaskWeatherWarmup,
			Handler: jobs.HandleWeatherWarmup(logger, locationService, weatherService),
		})
		cron = append(cron, jobs.CronRegistration{
			Spec: "0 * * * *", Task: jobs.NewWeatherWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(2)},
		})
	} else {
		logger.Warn("OWM_API_KEY not set, weather warmup disabled")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
		Cron:      cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
