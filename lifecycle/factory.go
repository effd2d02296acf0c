package lifecycle

import (
	"context"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
)

// RootFactory provides core.RootLifecycle.
func RootFactory() di.ServiceFactory {
	return di.RootFactory(core.RootLifecycle, []di.Ref{core.RootLogger},
		func(_ context.Context, deps di.Deps) (core.LifecycleService, error) {
			return NewRootLifecycle(di.MustGet(deps, core.RootLogger)), nil
		})
}

// PluginFactory provides core.Lifecycle.
func PluginFactory() di.ServiceFactory {
	return di.PluginFactory(core.Lifecycle, []di.Ref{core.RootLifecycle, core.PluginMetadata},
		func(_ context.Context, deps di.Deps) (core.LifecycleService, error) {
			root := di.MustGet(deps, core.RootLifecycle)
			meta := di.MustGet(deps, core.PluginMetadata)
			return NewPluginLifecycle(root, meta.PluginID), nil
		})
}
