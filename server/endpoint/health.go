// Package endpoint provides the health endpoints served by the root router
// under /.backend/health/v1.
package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/backendkit/component"
	"github.com/kbukum/backendkit/version"
)

// Health returns a handler that reports backend health including the status
// of each checked component.
func Health(backendName string, checks ...component.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, components := component.Aggregate(c.Request.Context(), checks...)

		httpStatus := http.StatusOK
		if status == component.StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     status,
			"backend":    backendName,
			"version":    version.Get().String(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}

// Routes returns a handler serving GET /liveness, /readiness and /health.
func Routes(backendName string, readiness *Readiness, checks ...component.HealthChecker) http.Handler {
	engine := gin.New()
	engine.GET("/liveness", Liveness())
	engine.GET("/readiness", readiness.Handler())
	engine.GET("/health", Health(backendName, append([]component.HealthChecker{readiness}, checks...)...))
	return engine
}
