package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"uppdragsradarn-crawler/internal/cache"
	"uppdragsradarn-crawler/internal/llm"
	"uppdragsradarn-crawler/internal/orchestrator"
	"uppdragsradarn-crawler/pkg/models"
)

// HealthHandler reports basic service health
func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Checks:    map[string]string{"api": "ok"},
	})
}

// LivenessHandler reports that the process is up
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
	})
}

// StatusHandler provides a detailed service status snapshot
func StatusHandler(o *orchestrator.Orchestrator, llmManager *llm.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks := map[string]string{
			"llm_provider": llmManager.GetProviderName(),
		}
		if o.IsHealthy() {
			checks["runner"] = "operational"
		} else {
			checks["runner"] = "stopped"
		}
		if llmManager.IsHealthy() {
			checks["llm"] = "operational"
		} else {
			checks["llm"] = "degraded"
		}

		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    "operational",
			Timestamp: time.Now(),
			Checks:    checks,
		})
	}
}

// ReadinessHandler reports whether the service can take crawl work. The
// alias cache is optional; a nil cache reports as disabled rather than
// failing the probe.
func ReadinessHandler(o *orchestrator.Orchestrator, llmManager *llm.Manager, aliasCache *cache.AliasCache) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks := map[string]string{}
		healthy := true

		if o.IsHealthy() {
			checks["runner"] = "ok"
		} else {
			checks["runner"] = "not running"
			healthy = false
		}

		if llmManager.IsHealthy() {
			checks["llm"] = "ok"
		} else {
			// LLM-backed providers will fail, structured ones still work.
			checks["llm"] = "unhealthy"
		}

		if aliasCache == nil {
			checks["cache"] = "disabled"
		} else if err := aliasCache.Ping(c.Request().Context()); err != nil {
			checks["cache"] = err.Error()
		} else {
			checks["cache"] = "ok"
		}

		status := "ready"
		code := http.StatusOK
		if !healthy {
			status = "not ready"
			code = http.StatusServiceUnavailable
		}

		return c.JSON(code, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Checks:    checks,
		})
	}
}
