package database

import (
	"context"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
)

// Factory provides core.Database. The manager is shared by all plugins and
// closed when the backend stops.
func Factory() di.ServiceFactory {
	return di.PluginFactoryWithRoot(core.Database,
		[]di.Ref{core.RootConfig, core.RootLifecycle, core.RootLogger, core.PluginMetadata},
		func(_ context.Context, deps di.Deps) (*Manager, error) {
			cfg := di.MustGet(deps, core.RootConfig)
			var c Config
			if cfg.Has("backend.database") {
				if err := cfg.UnmarshalKey("backend.database", &c); err != nil {
					return nil, err
				}
			}
			m, err := NewManager(c, di.MustGet(deps, core.RootLogger))
			if err != nil {
				return nil, err
			}
			di.MustGet(deps, core.RootLifecycle).AddShutdownHook("database", func(context.Context) error {
				return m.Close()
			})
			return m, nil
		},
		func(_ context.Context, deps di.Deps, m *Manager) (core.DatabaseService, error) {
			meta := di.MustGet(deps, core.PluginMetadata)
			return NewPluginDatabase(m, meta.PluginID), nil
		})
}
