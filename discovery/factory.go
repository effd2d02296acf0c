package discovery

import (
	"context"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
)

// Factory provides core.Discovery. One HostDiscovery is shared by all
// plugins.
func Factory() di.ServiceFactory {
	return di.PluginFactoryWithRoot(core.Discovery, []di.Ref{core.RootConfig},
		func(_ context.Context, deps di.Deps) (*HostDiscovery, error) {
			return NewHostDiscovery(di.MustGet(deps, core.RootConfig))
		},
		func(_ context.Context, _ di.Deps, d *HostDiscovery) (core.DiscoveryService, error) {
			return d, nil
		})
}
