package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/agrivance/agrivance/internal/app"
	"github.com/agrivance/agrivance/internal/assistant"
	"github.com/agrivance/agrivance/internal/inventory"
	"github.com/agrivance/agrivance/internal/locations"
	"github.com/agrivance/agrivance/internal/observability"
	"github.com/agrivance/agrivance/internal/platform/cache"
	"github.com/agrivance/agrivance/internal/platform/db"
	"github.com/agrivance/agrivance/internal/shared"
	"github.com/agrivance/agrivance/internal/shipments"
	"github.com/agrivance/agrivance/internal/tasks"
	"github.com/agrivance/agrivance/internal/weather"
	"github.com/agrivance/agrivance/jobs"
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

	if err := db.Migrate(cfg.PGDSN); err != nil {
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
		logger.Warn("redis unavailable, continuing degraded", slog.Any("error", err))
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	locationRepo := locations.NewRepository(pool)
	locationService := locations.NewService(locationRepo, auditLogger)
	locationHandler := locations.NewHandler(logger, locationService)

	shipmentRepo := shipments.NewRepository(pool)
	shipmentService := shipments.NewService(shipmentRepo, auditLogger)
	shipmentHandler := shipments.NewHandler(logger, shipmentService)

	taskRepo := tasks.NewRepository(pool)
	taskService := tasks.NewService(taskRepo, auditLogger)
	taskHandler := tasks.NewHandler(logger, taskService)

	var weatherHandler *weather.Handler
	var weatherService *weather.Service
	if cfg.OWMAPIKey != "" {
		weatherService = weather.NewService(logger, weather.NewClient(cfg.OWMAPIKey, ""), redisClient, cfg.WeatherCacheTTL)
		weatherHandler = weather.NewHandler(logger, weatherService)
	} else {
		logger.Warn("OWM_API_KEY not set, weather endpoints disabled")
	}

	var assistantHandler *assistant.Handler
	if cfg.AnthropicAPIKey != "" && weatherService != nil {
		assistantService := assistant.NewService(logger,
			assistant.NewAnthropicChatter(cfg.AnthropicAPIKey), cfg.AnthropicModel,
			inventoryService, taskService, weatherService)
		assistantHandler = assistant.NewHandler(logger, assistantService)
	} else {
		logger.Warn("assistant disabled, requires ANTHROPIC_API_KEY and weather")
	}

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		InventoryHandler: inventoryHandler,
		LocationHandler:  locationHandler,
		ShipmentHandler:  shipmentHandler,
		TaskHandler:      taskHandler,
		WeatherHandler:   weatherHandler,
		AssistantHandler: assistantHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
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
