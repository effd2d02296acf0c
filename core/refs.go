package core

import (
	"github.com/kbukum/backendkit/di"
	"github.com/kbukum/backendkit/logger"
)

// Service IDs of the core services.
const (
	IDRootConfig     = "core.rootConfig"
	IDRootLogger     = "core.rootLogger"
	IDLogger         = "core.logger"
	IDRootLifecycle  = "core.rootLifecycle"
	IDLifecycle      = "core.lifecycle"
	IDRootHTTPRouter = "core.rootHttpRouter"
	IDHTTPRouter     = "core.httpRouter"
	IDCache          = "core.cache"
	IDDatabase       = "core.database"
	IDDiscovery      = "core.discovery"
	IDTokenManager   = "core.tokenManager"
	IDPermissions    = "core.permissions"
	IDScheduler      = "core.scheduler"
	IDURLReader      = "core.urlReader"
)

var (
	// RootConfig is the backend configuration.
	RootConfig = di.NewServiceRef[Config](IDRootConfig, di.ScopeRoot)
	// RootLogger is the backend-wide logger.
	RootLogger = di.NewServiceRef[*logger.Logger](IDRootLogger, di.ScopeRoot)
	// Logger is a plugin-tagged child of the root logger.
	Logger = di.NewServiceRef[*logger.Logger](IDLogger, di.ScopePlugin)
	// RootLifecycle runs backend-wide startup and shutdown hooks.
	RootLifecycle = di.NewServiceRef[LifecycleService](IDRootLifecycle, di.ScopeRoot)
	// Lifecycle registers hooks on behalf of a plugin.
	Lifecycle = di.NewServiceRef[LifecycleService](IDLifecycle, di.ScopePlugin)
	// RootHTTPRouter is the canonical HTTP entry point of the backend.
	RootHTTPRouter = di.NewServiceRef[RootHTTPRouterService](IDRootHTTPRouter, di.ScopeRoot)
	// HTTPRouter serves a plugin under /api/<pluginId>.
	HTTPRouter = di.NewServiceRef[HTTPRouterService](IDHTTPRouter, di.ScopePlugin)
	// Cache is a plugin-namespaced key/value cache.
	Cache = di.NewServiceRef[CacheService](IDCache, di.ScopePlugin)
	// Database hands out a plugin-owned database connection.
	Database = di.NewServiceRef[DatabaseService](IDDatabase, di.ScopePlugin)
	// Discovery resolves plugin base URLs.
	Discovery = di.NewServiceRef[DiscoveryService](IDDiscovery, di.ScopePlugin)
	// TokenManager issues and verifies server-to-server tokens.
	TokenManager = di.NewServiceRef[TokenManagerService](IDTokenManager, di.ScopePlugin)
	// Permissions authorizes permission requests.
	Permissions = di.NewServiceRef[PermissionsService](IDPermissions, di.ScopePlugin)
	// Scheduler runs plugin tasks on a schedule.
	Scheduler = di.NewServiceRef[SchedulerService](IDScheduler, di.ScopePlugin)
	// URLReader reads remote content for a plugin.
	URLReader = di.NewServiceRef[URLReaderService](IDURLReader, di.ScopePlugin)
	// PluginMetadata identifies the plugin a service is created for.
	PluginMetadata = di.PluginMetadataRef
)
