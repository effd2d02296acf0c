package scheduler

import (
	"context"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
	"github.com/kbukum/backendkit/observability"
)

// Factory provides core.Scheduler. The scheduler starts with the backend
// and stops before it shuts down.
func Factory() di.ServiceFactory {
	return di.PluginFactoryWithRoot(core.Scheduler,
		[]di.Ref{core.RootConfig, core.RootLifecycle, core.RootLogger, core.PluginMetadata},
		func(_ context.Context, deps di.Deps) (*Scheduler, error) {
			cfg := di.MustGet(deps, core.RootConfig)
			var c Config
			if cfg.Has("backend.scheduler") {
				if err := cfg.UnmarshalKey("backend.scheduler", &c); err != nil {
					return nil, err
				}
			}
			metrics, err := observability.NewMetrics(observability.Meter())
			if err != nil {
				return nil, err
			}
			s, err := New(c, di.MustGet(deps, core.RootLogger), metrics)
			if err != nil {
				return nil, err
			}
			lc := di.MustGet(deps, core.RootLifecycle)
			lc.AddStartupHook("scheduler", s.Start)
			lc.AddShutdownHook("scheduler", s.Stop)
			return s, nil
		},
		func(_ context.Context, deps di.Deps, s *Scheduler) (core.SchedulerService, error) {
			return s.ForPlugin(di.MustGet(deps, core.PluginMetadata).PluginID), nil
		})
}
