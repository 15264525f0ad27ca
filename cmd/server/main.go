package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"uppdragsradarn-crawler/internal/api/routes"
	"uppdragsradarn-crawler/internal/cache"
	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/extractor"
	"uppdragsradarn-crawler/internal/fetcher"
	"uppdragsradarn-crawler/internal/llm"
	"uppdragsradarn-crawler/internal/locations"
	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/internal/orchestrator"
	"uppdragsradarn-crawler/internal/providers"
	"uppdragsradarn-crawler/internal/scheduler"
	"uppdragsradarn-crawler/internal/storage"
	"uppdragsradarn-crawler/internal/storage/memory"
	"uppdragsradarn-crawler/internal/storage/postgres"
)

func main() {
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitializeLogging(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Adapters); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting uppdragsradarn crawler")

	ctx := context.Background()

	// Storage: postgres when configured, in-memory otherwise. The in-memory
	// stores have no seeded sources, so they only make sense for local runs.
	var stores *storage.Stores
	if cfg.Database.URL != "" {
		pool, err := postgres.Connect(ctx, &cfg.Database)
		if err != nil {
			logger.Error("Failed to connect to database", map[string]interface{}{
				"error": err.Error(),
			})
			os.Exit(1)
		}
		defer pool.Close()
		stores = postgres.NewStores(pool)
		logger.Info("Connected to postgres")
	} else {
		stores = memory.NewStores()
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Alias cache is optional; NewAliasCache returns nil when redis is
	// disabled and every cache call is nil-safe.
	aliasCache := cache.NewAliasCache(cfg)
	if aliasCache != nil {
		if err := aliasCache.Ping(ctx); err != nil {
			logger.Warn("Redis unreachable, alias caching disabled", map[string]interface{}{
				"error": err.Error(),
			})
			aliasCache = nil
		}
	}
	defer aliasCache.Close()

	llmManager := llm.NewManager(cfg)
	if err := llmManager.Start(); err != nil {
		logger.Error("Failed to start LLM manager", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	httpFetcher := fetcher.New(cfg)
	structuredExtractor := extractor.NewStructuredExtractor(httpFetcher, llmManager, cfg)
	normalizer := locations.NewNormalizer(stores.Locations, stores.Aliases, aliasCache, cfg)

	registry := providers.NewRegistry()
	registry.Register(providers.NewJSONAPIProvider(httpFetcher))
	registry.Register(providers.NewLLMSiteProvider(httpFetcher, structuredExtractor))
	registry.Register(providers.NewStandardProvider(httpFetcher))

	orch := orchestrator.New(stores, registry, normalizer, orchestrator.NewRunner(cfg), cfg)
	if err := orch.Start(ctx); err != nil {
		logger.Error("Failed to start orchestrator", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	sched := scheduler.New(orch, cfg)
	if err := sched.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	routes.SetupRoutes(e, cfg, orch, llmManager, aliasCache)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sched.Stop()

		if err := orch.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping orchestrator", map[string]interface{}{
				"error": err.Error(),
			})
		}

		if err := llmManager.Stop(); err != nil {
			logger.Error("Error stopping LLM manager", map[string]interface{}{
				"error": err.Error(),
			})
		}

		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down HTTP server", map[string]interface{}{
				"error": err.Error(),
			})
		}

		logger.Info("Shutdown complete")
	}()

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{
		"address": address,
	})

	if err := e.Start(address); err != nil {
		logger.Info("Server stopped", map[string]interface{}{
			"reason": err.Error(),
		})
	}
}
