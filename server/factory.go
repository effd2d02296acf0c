package server

import (
	"context"
	"fmt"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
	"github.com/kbukum/backendkit/logger"
	"github.com/kbukum/backendkit/observability"
	"github.com/kbukum/backendkit/server/endpoint"
)

// HealthPath is where the root router mounts the health endpoints.
const HealthPath = "/.backend/health/v1"

// RootRouterOptions adjusts the root HTTP router for callers that host the
// backend themselves, such as test backends.
type RootRouterOptions struct {
	// Listen replaces backend.listen when set.
	Listen *ListenConfig
	// OnStarted runs once the server is listening. An error stops the server
	// and fails the factory.
	OnStarted func(srv *Server) error
}

// RootHTTPRouterFactory provides core.RootHTTPRouter. It starts the server
// on backend.listen, serves health endpoints and enables telemetry when
// backend.telemetry.enabled is set. Readiness turns on once the backend has
// started and off again when it stops.
func RootHTTPRouterFactory() di.ServiceFactory {
	return NewRootHTTPRouterFactory(RootRouterOptions{})
}

// NewRootHTTPRouterFactory is RootHTTPRouterFactory with opts applied.
func NewRootHTTPRouterFactory(opts RootRouterOptions) di.ServiceFactory {
	return di.RootFactory(core.RootHTTPRouter,
		[]di.Ref{core.RootConfig, core.RootLifecycle, core.RootLogger},
		func(ctx context.Context, deps di.Deps) (core.RootHTTPRouterService, error) {
			cfg := di.MustGet(deps, core.RootConfig)
			lc := di.MustGet(deps, core.RootLifecycle)
			log := di.MustGet(deps, core.RootLogger).Child(map[string]interface{}{
				logger.FieldService: "rootHttpRouter",
			})

			if _, err := observability.Setup(ctx, cfg, lc, log); err != nil {
				return nil, fmt.Errorf("telemetry setup failed: %w", err)
			}

			router := NewRouter()
			mf, err := NewMiddlewareFactory(cfg, log)
			if err != nil {
				return nil, err
			}
			app := NewApp(router, mf)
			srvCfg := mf.Config()
			if opts.Listen != nil {
				srvCfg.Listen = *opts.Listen
			}
			srv := New(srvCfg, app, log)

			readiness := endpoint.NewReadiness()
			backendName := cfg.GetString("backend.name")
			if err := router.Use(HealthPath, endpoint.Routes(backendName, readiness, srv)); err != nil {
				return nil, err
			}

			if err := srv.Start(ctx); err != nil {
				return nil, err
			}
			if opts.OnStarted != nil {
				if err := opts.OnStarted(srv); err != nil {
					_ = srv.Stop(ctx)
					return nil, err
				}
			}
			lc.AddStartupHook("rootHttpRouter.ready", func(context.Context) error {
				readiness.SetReady(true)
				return nil
			})
			lc.AddShutdownHook("rootHttpRouter", func(ctx context.Context) error {
				readiness.SetReady(false)
				return srv.Stop(ctx)
			})
			return router, nil
		})
}

// HTTPRouterFactory provides core.HTTPRouter: a router per plugin mounted on
// the root router at /api/<pluginId>.
func HTTPRouterFactory() di.ServiceFactory {
	return di.PluginFactoryWithRoot(core.HTTPRouter,
		[]di.Ref{core.RootHTTPRouter, core.RootConfig, core.RootLogger, core.PluginMetadata},
		func(_ context.Context, deps di.Deps) (*MiddlewareFactory, error) {
			cfg := di.MustGet(deps, core.RootConfig)
			log := di.MustGet(deps, core.RootLogger).WithComponent("httpRouter")
			return NewMiddlewareFactory(cfg, log)
		},
		func(_ context.Context, deps di.Deps, mf *MiddlewareFactory) (core.HTTPRouterService, error) {
			root := di.MustGet(deps, core.RootHTTPRouter)
			meta := di.MustGet(deps, core.PluginMetadata)

			pr := NewPluginRouter(mf)
			if err := root.Use(PluginPath(meta.PluginID), pr); err != nil {
				return nil, err
			}
			return pr, nil
		})
}

// PluginPath is the base path of a plugin's HTTP routes.
func PluginPath(pluginID string) string {
	return "/api/" + pluginID
}
