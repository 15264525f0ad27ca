package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"uppdragsradarn-crawler/internal/api/handlers"
	"uppdragsradarn-crawler/internal/api/middleware"
	"uppdragsradarn-crawler/internal/cache"
	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/llm"
	"uppdragsradarn-crawler/internal/orchestrator"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, o *orchestrator.Orchestrator, llmManager *llm.Manager, aliasCache *cache.AliasCache) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.TimeoutConfig(cfg.Server.ReadTimeout))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/ready", handlers.ReadinessHandler(o, llmManager, aliasCache))
	}

	// Status route
	e.GET("/status", handlers.StatusHandler(o, llmManager))

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		crawler := v1.Group("/crawler")
		{
			crawler.POST("/sources/:id/start", handlers.StartCrawlHandler(o))
			crawler.GET("/sources/:id/jobs", handlers.JobsBySourceHandler(o))
			crawler.POST("/start-all", handlers.SweepHandler(o))
			crawler.GET("/jobs", handlers.RecentJobsHandler(o))
			crawler.GET("/jobs/:id", handlers.GetJobHandler(o))
			crawler.DELETE("/jobs/:id", handlers.CancelJobHandler(o))
		}
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "uppdragsradarn-crawler",
			"status":  "running",
		})
	})
}
