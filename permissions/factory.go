package permissions

import (
	"context"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
)

// Factory provides core.Permissions from backend.permissions.
func Factory() di.ServiceFactory {
	return di.PluginFactoryWithRoot(core.Permissions,
		[]di.Ref{core.RootConfig, core.RootLogger},
		func(_ context.Context, deps di.Deps) (*Service, error) {
			cfg := di.MustGet(deps, core.RootConfig)
			var c Config
			if cfg.Has("backend.permissions") {
				if err := cfg.UnmarshalKey("backend.permissions", &c); err != nil {
					return nil, err
				}
			}
			return NewFromConfig(c, di.MustGet(deps, core.RootLogger)), nil
		},
		func(_ context.Context, _ di.Deps, s *Service) (core.PermissionsService, error) {
			return s, nil
		})
}
