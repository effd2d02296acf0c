package cache

import (
	"context"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
)

// Factory provides core.Cache. One client is shared by all plugins and
// closed when the backend stops.
func Factory() di.ServiceFactory {
	return di.PluginFactoryWithRoot(core.Cache,
		[]di.Ref{core.RootConfig, core.RootLifecycle, core.RootLogger, core.PluginMetadata},
		func(ctx context.Context, deps di.Deps) (*Client, error) {
			cfg := di.MustGet(deps, core.RootConfig)
			var c Config
			if cfg.Has("backend.cache") {
				if err := cfg.UnmarshalKey("backend.cache", &c); err != nil {
					return nil, err
				}
			}
			client, err := NewClient(c, di.MustGet(deps, core.RootLogger))
			if err != nil {
				return nil, err
			}
			if err := client.Ping(ctx); err != nil {
				_ = client.Close()
				return nil, err
			}
			di.MustGet(deps, core.RootLifecycle).AddShutdownHook("cache", func(context.Context) error {
				return client.Close()
			})
			return client, nil
		},
		func(_ context.Context, deps di.Deps, client *Client) (core.CacheService, error) {
			meta := di.MustGet(deps, core.PluginMetadata)
			return NewPluginCache(client, meta.PluginID), nil
		})
}
