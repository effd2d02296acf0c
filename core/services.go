package core

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Config is read-only access to the backend configuration. Keys are
// dot-separated paths such as "backend.listen.port".
type Config interface {
	Has(key string) bool
	Get(key string) any
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
	UnmarshalKey(key string, out any) error
}

// Hook is a lifecycle callback.
type Hook func(ctx context.Context) error

// LifecycleService registers startup and shutdown hooks.
type LifecycleService interface {
	AddStartupHook(name string, hook Hook)
	AddShutdownHook(name string, hook Hook)
}

// LifecycleRunner is implemented by the root lifecycle. The backend calls it
// once all plugins have initialized and again when it stops.
type LifecycleRunner interface {
	Startup(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// RootHTTPRouterService mounts handlers on the backend's HTTP server.
type RootHTTPRouterService interface {
	// Use mounts handler at path. Requests are dispatched to the handler with
	// the longest matching path prefix.
	Use(path string, handler http.Handler) error
}

// HTTPRouterService exposes a plugin's routes under /api/<pluginId>.
type HTTPRouterService interface {
	// Routes returns the gin router for the plugin, relative to its base path.
	Routes() gin.IRouter
	// Use serves handler for requests no gin route matched.
	Use(handler http.Handler)
}

// CacheService stores values for a plugin. Keys are namespaced per plugin.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// WithOptions returns a view of the cache with a different default TTL.
	WithOptions(opts CacheOptions) CacheService
}

// CacheOptions configures a cache view.
type CacheOptions struct {
	DefaultTTL time.Duration
}

// DatabaseService hands out the plugin's database connection.
type DatabaseService interface {
	Client(ctx context.Context) (*gorm.DB, error)
}

// DiscoveryService resolves where a plugin can be reached.
type DiscoveryService interface {
	// BaseURL is used for calls between backends.
	BaseURL(ctx context.Context, pluginID string) (string, error)
	// ExternalBaseURL is used by callers outside the backend network.
	ExternalBaseURL(ctx context.Context, pluginID string) (string, error)
}

// TokenManagerService issues and verifies server-to-server tokens.
type TokenManagerService interface {
	GetToken(ctx context.Context) (string, error)
	Authenticate(ctx context.Context, token string) error
}

// AuthorizeDecision is the outcome of a permission check.
type AuthorizeDecision string

const (
	DecisionAllow AuthorizeDecision = "ALLOW"
	DecisionDeny  AuthorizeDecision = "DENY"
)

// AuthorizeRequest asks whether principal holds permission.
type AuthorizeRequest struct {
	Principal  string
	Permission string
}

// PermissionsService authorizes requests in batch, one decision per request.
type PermissionsService interface {
	Authorize(ctx context.Context, requests []AuthorizeRequest) ([]AuthorizeDecision, error)
}

// TaskFunc is the body of a scheduled task.
type TaskFunc func(ctx context.Context) error

// TaskSchedule describes a task to run periodically.
type TaskSchedule struct {
	ID           string
	Frequency    time.Duration
	Timeout      time.Duration
	InitialDelay time.Duration
	Fn           TaskFunc
}

// TaskDescriptor describes a scheduled task.
type TaskDescriptor struct {
	ID        string
	Frequency time.Duration
	Runs      int
	LastError string
}

// SchedulerService runs plugin tasks.
type SchedulerService interface {
	ScheduleTask(ctx context.Context, task TaskSchedule) error
	TriggerTask(ctx context.Context, id string) error
	ScheduledTasks(ctx context.Context) ([]TaskDescriptor, error)
}

// ReadURLOptions controls a URL read.
type ReadURLOptions struct {
	// ETag from a previous read. An unchanged resource yields a
	// NOT_MODIFIED error.
	ETag string
}

// ReadURLResponse is the result of a URL read.
type ReadURLResponse struct {
	Body        []byte
	ETag        string
	ContentType string
}

// URLReaderService reads content from allowed remote locations.
type URLReaderService interface {
	ReadURL(ctx context.Context, url string, opts ReadURLOptions) (*ReadURLResponse, error)
}
