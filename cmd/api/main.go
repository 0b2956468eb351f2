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
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/horizonbi/backend/internal/analysis"
	"github.com/horizonbi/backend/internal/api/handlers"
	cache "github.com/horizonbi/backend/internal/cache/redis"
	"github.com/horizonbi/backend/internal/catalog"
	"github.com/horizonbi/backend/internal/classify"
	"github.com/horizonbi/backend/internal/fetch"
	"github.com/horizonbi/backend/internal/ingestion"
	"github.com/horizonbi/backend/internal/insight"
	"github.com/horizonbi/backend/internal/llm"
	"github.com/horizonbi/backend/internal/metrics"
	"github.com/horizonbi/backend/internal/middleware/ratelimit"
	"github.com/horizonbi/backend/internal/middleware/security"
	"github.com/horizonbi/backend/internal/middleware/validation"
	"github.com/horizonbi/backend/internal/pipeline"
	"github.com/horizonbi/backend/internal/storage/sqlite"
	"github.com/horizonbi/backend/pkg/config"
	appLogger "github.com/horizonbi/backend/pkg/logger"
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

	appLogger.Info("Starting Horizon BI API Server")

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

	err = catalog.Seed(sqliteClient)
	if err != nil {
		appLogger.Fatal("Failed to seed indicator catalog", zap.Error(err))
	}

	cacheClient, err := cache.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Warn("Redis unavailable, running without cache", zap.Error(err))
		cacheClient = nil
	} else {
		defer cacheClient.Close()
	}

	var narrator insight.Narrator
	if cfg.LLM.Enabled {
		narrator = llm.NewClient(
			cfg.LLM.APIKey,
			cfg.LLM.Model,
			cfg.LLM.Temperature,
			cfg.LLM.MaxTokens,
			cfg.LLM.TimeoutSec,
		)
	}

	definitions, err := sqliteClient.GetDefinitions()
	if err != nil {
		appLogger.Fatal("Failed to load indicator definitions", zap.Error(err))
	}
	keywords, err := sqliteClient.GetKeywords()
	if err != nil {
		appLogger.Fatal("Failed to load indicator keywords", zap.Error(err))
	}

	classifier, err := classify.NewClassifier(definitions, keywords)
	if err != nil {
		appLogger.Fatal("Failed to build classifier", zap.Error(err))
	}

	processor := ingestion.NewProcessor(sqliteClient, classifier, definitions)
	runner := pipeline.NewRunner(sqliteClient, cacheClient, cfg.Pipeline.Workers, cfg.Pipeline.AggregationDays)

	insightService := insight.NewService(sqliteClient, cacheClient, narrator, insight.ServiceConfig{
		LookbackDays:   cfg.Analysis.LookbackDays,
		ForecastDays:   cfg.Analysis.ForecastDays,
		TieBreakPolicy: insight.TieBreakPolicy(cfg.Insight.TieBreakPolicy),
		CacheTTL:       time.Duration(cfg.Insight.CacheTTLSec) * time.Second,
		Analysis: analysis.Config{
			RisingSlope:      cfg.Analysis.RisingSlope,
			FallingSlope:     cfg.Analysis.FallingSlope,
			AnomalyThreshold: cfg.Analysis.AnomalyThreshold,
		},
	})

	pipelineCtx, stopPipeline := context.WithCancel(context.Background())
	defer stopPipeline()
	go runner.RunPeriodic(pipelineCtx, time.Hour)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	rateLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 120,
		Logger:               appLogger.GetLogger(),
	})
	defer rateLimiter.Stop()
	app.Use(rateLimiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	hub := handlers.NewEventHub()
	fetcher := fetch.NewFetcher(time.Duration(cfg.Server.ReadTimeout) * time.Second)
	articleHandler := handlers.NewArticleHandler(processor, fetcher, hub)
	indicatorHandler := handlers.NewIndicatorHandler(sqliteClient, insightService, runner, hub)
	insightHandler := handlers.NewInsightHandler(sqliteClient, insightService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	api := app.Group("/api/v1")

	api.Post("/articles", articleHandler.IngestArticle)
	api.Post("/articles/batch", articleHandler.IngestBatch)
	api.Post("/articles/fetch", articleHandler.IngestFromURL)

	api.Get("/indicators", indicatorHandler.ListIndicators)
	api.Get("/indicators/:id/series", indicatorHandler.GetSeries)
	api.Get("/indicators/:id/analysis", indicatorHandler.GetAnalysis)
	api.Post("/indicators/:id/simulate", indicatorHandler.SimulateCascade)
	api.Post("/pipeline/run", indicatorHandler.RunPipeline)

	api.Get("/companies/:id", insightHandler.GetCompany)
	api.Put("/companies/:id", insightHandler.UpsertCompany)
	api.Get("/companies/:id/insights", insightHandler.GetCompanyInsights)
	api.Get("/dashboard", insightHandler.GetDashboard)

	app.Get("/ws", websocket.New(wsHandler.HandleConnection))
	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

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
	stopPipeline()
	app.Shutdown()
	appLogger.Info("Server stopped")
}
