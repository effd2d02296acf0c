package config

import (
	"context"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
)

// RootFactory provides core.RootConfig by loading the named backend's
// configuration and validating its backend section.
func RootFactory(backendName string, opts ...LoaderOption) di.ServiceFactory {
	return di.RootFactory(core.RootConfig, nil, func(context.Context, di.Deps) (core.Config, error) {
		r, err := Load(backendName, opts...)
		if err != nil {
			return nil, err
		}
		if _, err := ReadBackendConfig(r); err != nil {
			return nil, err
		}
		return r, nil
	})
}

// StaticFactory provides core.RootConfig from fixed values.
func StaticFactory(values map[string]any) di.ServiceFactory {
	return di.RootFactory(core.RootConfig, nil, func(context.Context, di.Deps) (core.Config, error) {
		return NewReader(values), nil
	})
}
