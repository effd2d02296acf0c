package endpoint

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/backendkit/component"
	apperrors "github.com/kbukum/backendkit/errors"
)

const notReadyMessage = "Backend has not started yet"

// Readiness tracks whether the backend has finished starting.
type Readiness struct {
	ready  atomic.Bool
	checks []component.HealthChecker
}

// NewReadiness creates a readiness tracker. Once ready, the readiness probe
// also fails when any of checks is unhealthy.
func NewReadiness(checks ...component.HealthChecker) *Readiness {
	return &Readiness{checks: checks}
}

// SetReady flips the readiness state.
func (r *Readiness) SetReady(ready bool) { r.ready.Store(ready) }

// Ready reports the readiness state.
func (r *Readiness) Ready() bool { return r.ready.Load() }

// Handler returns the readiness probe handler.
func (r *Readiness) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Ready() {
			appErr := apperrors.NotReady("backend")
			c.JSON(appErr.HTTPStatus, gin.H{
				"status":  "error",
				"code":    appErr.Code,
				"message": notReadyMessage,
			})
			return
		}
		if status, _ := component.Aggregate(c.Request.Context(), r.checks...); status == component.StatusUnhealthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

var _ component.HealthChecker = (*Readiness)(nil)

// Health implements component.HealthChecker.
func (r *Readiness) Health(_ context.Context) component.Health {
	if !r.Ready() {
		return component.Health{Name: "readiness", Status: component.StatusDegraded, Message: notReadyMessage}
	}
	return component.Health{Name: "readiness", Status: component.StatusHealthy}
}
