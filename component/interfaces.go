package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component represents a lifecycle-managed part of a backend.
type Component interface {
	// Name returns the unique name of the component.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// HealthChecker is implemented by anything that reports health.
type HealthChecker interface {
	Health(ctx context.Context) Health
}

// HealthCheckerFunc adapts a function to HealthChecker.
type HealthCheckerFunc func(ctx context.Context) Health

// Health implements HealthChecker.
func (f HealthCheckerFunc) Health(ctx context.Context) Health { return f(ctx) }

// Aggregate returns the worst status of checks.
func Aggregate(ctx context.Context, checks ...HealthChecker) (HealthStatus, []Health) {
	status := StatusHealthy
	results := make([]Health, 0, len(checks))
	for _, c := range checks {
		h := c.Health(ctx)
		results = append(results, h)
		switch h.Status {
		case StatusUnhealthy:
			status = StatusUnhealthy
		case StatusDegraded:
			if status == StatusHealthy {
				status = StatusDegraded
			}
		}
	}
	return status, results
}
