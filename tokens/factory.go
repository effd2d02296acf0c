package tokens

import (
	"context"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
)

// Factory provides core.TokenManager from backend.auth. All plugins share
// one manager.
func Factory() di.ServiceFactory {
	return di.PluginFactoryWithRoot(core.TokenManager,
		[]di.Ref{core.RootConfig, core.RootLogger},
		func(_ context.Context, deps di.Deps) (*Manager, error) {
			cfg := di.MustGet(deps, core.RootConfig)
			var c Config
			if cfg.Has("backend.auth") {
				if err := cfg.UnmarshalKey("backend.auth", &c); err != nil {
					return nil, err
				}
			}
			return NewManager(c, di.MustGet(deps, core.RootLogger))
		},
		func(_ context.Context, _ di.Deps, m *Manager) (core.TokenManagerService, error) {
			return m, nil
		})
}
