package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestCORSConfig_PreflightAllowsJobCancellation(t *testing.T) {
	e := echo.New()
	e.Use(CORSConfig())
	e.DELETE("/api/v1/crawler/jobs/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/crawler/jobs/abc", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example.se")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodDelete)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodDelete)
}
