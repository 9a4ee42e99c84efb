package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/api/handlers"
	"github.com/ticket-triage/backend/internal/cache/redis"
	"github.com/ticket-triage/backend/internal/dispatch"
	"github.com/ticket-triage/backend/internal/llm"
	"github.com/ticket-triage/backend/internal/metrics"
	"github.com/ticket-triage/backend/internal/middleware/ratelimit"
	"github.com/ticket-triage/backend/internal/middleware/security"
	"github.com/ticket-triage/backend/internal/middleware/validation"
	"github.com/ticket-triage/backend/internal/routing"
	"github.com/ticket-triage/backend/internal/storage/sqlite"
	"github.com/ticket-triage/backend/internal/triage"
	"github.com/ticket-triage/backend/internal/vector/milvus"
	"github.com/ticket-triage/backend/pkg/config"
	appLogger "github.com/ticket-triage/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Ticket Triage API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	router, err := routing.New(routing.Config{
		AutoResolveThreshold: cfg.Routing.AutoResolveThreshold,
		RouteThreshold:       cfg.Routing.RouteThreshold,
	})
	if err != nil {
		appLogger.Fatal("Invalid routing configuration", zap.Error(err))
	}

	// The service starts without a model when loading fails so /model/reload
	// can recover after training; classification returns 503 until then.
	pipeline, err := triage.Load(cfg.Model.Dir, cfg.Model.VectorizerFile, cfg.Model.ClassifierFile)
	if err != nil {
		appLogger.Warn("Model artifacts not loaded, serving degraded", zap.Error(err))
		pipeline = nil
	}

	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Prediction cache disabled", zap.Error(err))
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	var vectorClient *milvus.Client
	if cfg.Milvus.Enabled {
		if pipeline == nil {
			appLogger.Warn("Vector index disabled: no model to size the collection")
		} else {
			vectorClient, err = milvus.NewClient(cfg.Milvus.Endpoint, cfg.Milvus.CollectionName, pipeline.VocabSize())
			if err != nil {
				appLogger.Warn("Vector index disabled", zap.Error(err))
				vectorClient = nil
			} else {
				defer vectorClient.Close()
				if err := vectorClient.CreateCollection(context.Background()); err != nil {
					appLogger.Warn("Failed to prepare vector collection", zap.Error(err))
					vectorClient = nil
				}
			}
		}
	}

	var assistClient *llm.Client
	if cfg.Assist.Enabled {
		assistClient = llm.NewClient(
			cfg.Assist.APIKey,
			cfg.Assist.Model,
			cfg.Assist.Temperature,
			cfg.Assist.MaxTokens,
			cfg.Assist.TimeoutSec,
		)
	}

	executor := dispatch.NewExecutor(sqliteClient, assistClient, cfg.Dispatch.DryRun)

	service := triage.NewService(pipeline, router, executor, sqliteClient, cacheClient, vectorClient, assistClient, triage.Config{
		ModelDir:       cfg.Model.Dir,
		VectorizerFile: cfg.Model.VectorizerFile,
		ClassifierFile: cfg.Model.ClassifierFile,
		CacheTTL:       time.Duration(cfg.Redis.TTLSec) * time.Second,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	rateLimiter := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
		Logger:            appLogger.GetLogger(),
	})
	defer rateLimiter.Stop()

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(rateLimiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	classifyHandler := handlers.NewClassifyHandler(service, cfg.Server.MaxBatchSize)
	ticketHandler := handlers.NewTicketHandler(service)
	dashboardHandler := handlers.NewDashboardHandler(service)
	modelHandler := handlers.NewModelHandler(service)
	wsHandler := handlers.NewWebSocketHandler(service)

	api := app.Group("/api/v1")

	api.Post("/classify", classifyHandler.HandleClassify)
	api.Post("/classify/smart", classifyHandler.HandleClassifySmart)
	api.Post("/classify/batch", classifyHandler.HandleClassifyBatch)

	api.Get("/tickets/:id", ticketHandler.HandleGetTicket)
	api.Get("/tickets/:id/similar", ticketHandler.HandleSimilarTickets)

	api.Get("/dashboard/stats", dashboardHandler.HandleStats)

	api.Get("/model", modelHandler.HandleModelInfo)
	api.Post("/model/reload", modelHandler.HandleReload)

	api.Get("/health", modelHandler.HandleHealth)
	api.Get("/ready", modelHandler.HandleReady)

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/classify", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
