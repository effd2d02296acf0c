package urlreader

import (
	"context"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
)

// Factory provides core.URLReader from backend.reading. All plugins share
// one reader and its host breakers.
func Factory() di.ServiceFactory {
	return di.PluginFactoryWithRoot(core.URLReader,
		[]di.Ref{core.RootConfig, core.RootLogger},
		func(_ context.Context, deps di.Deps) (*Reader, error) {
			cfg := di.MustGet(deps, core.RootConfig)
			var c Config
			if cfg.Has("backend.reading") {
				if err := cfg.UnmarshalKey("backend.reading", &c); err != nil {
					return nil, err
				}
			}
			return New(c, di.MustGet(deps, core.RootLogger))
		},
		func(_ context.Context, _ di.Deps, r *Reader) (core.URLReaderService, error) {
			return r, nil
		})
}
