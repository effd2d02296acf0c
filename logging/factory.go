// Package logging provides the root and plugin logger services.
package logging

import (
	"context"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
	"github.com/kbukum/backendkit/logger"
)

// RootFactory provides core.RootLogger. It reads backend.logging and falls
// back to the LOG_* environment variables for unset fields.
func RootFactory() di.ServiceFactory {
	return di.RootFactory(core.RootLogger, []di.Ref{core.RootConfig},
		func(_ context.Context, deps di.Deps) (*logger.Logger, error) {
			cfg := di.MustGet(deps, core.RootConfig)
			return NewRootLogger(cfg)
		})
}

// NewRootLogger builds the root logger from configuration.
func NewRootLogger(cfg core.Config) (*logger.Logger, error) {
	logCfg := logger.ConfigFromEnv()
	if cfg.Has("backend.logging") {
		if err := cfg.UnmarshalKey("backend.logging", logCfg); err != nil {
			return nil, err
		}
	}
	if err := logCfg.Validate(); err != nil {
		return nil, err
	}
	name := cfg.GetString("backend.name")
	if name == "" {
		name = "backend"
	}
	return logger.New(logCfg, name), nil
}

// PluginFactory provides core.Logger, a child of the root logger tagged with
// the plugin ID.
func PluginFactory() di.ServiceFactory {
	return di.PluginFactory(core.Logger, []di.Ref{core.RootLogger, core.PluginMetadata},
		func(_ context.Context, deps di.Deps) (*logger.Logger, error) {
			root := di.MustGet(deps, core.RootLogger)
			meta := di.MustGet(deps, core.PluginMetadata)
			return root.WithPlugin(meta.PluginID), nil
		})
}
