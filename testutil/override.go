package testutil

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/backendkit/di"
)

// ErrInvalidOverride is returned by Start when a service override cannot
// produce a factory.
var ErrInvalidOverride = errors.New("invalid service override")

// ServiceOverride replaces or adds a service in a test backend. Build one
// with Factory, FactoryFunc or Implementation.
type ServiceOverride interface {
	isServiceOverride()
}

type factoryOverride struct {
	f di.ServiceFactory
}

type factoryFuncOverride struct {
	fn func() di.ServiceFactory
}

type implementationOverride struct {
	ref  di.Ref
	impl any
}

// Factory overrides a service with a ready factory.
func Factory(f di.ServiceFactory) ServiceOverride {
	return factoryOverride{f: f}
}

// FactoryFunc overrides a service with the factory fn returns. fn is called
// once, when the backend starts.
func FactoryFunc(fn func() di.ServiceFactory) ServiceOverride {
	return factoryFuncOverride{fn: fn}
}

// Implementation serves impl for ref. For plugin-scoped refs every plugin
// receives the same impl.
func Implementation[T any](ref di.ServiceRef[T], impl T) ServiceOverride {
	if ref.IsZero() {
		return implementationOverride{}
	}
	return implementationOverride{ref: ref, impl: impl}
}

func (factoryOverride) isServiceOverride()        {}
func (factoryFuncOverride) isServiceOverride()    {}
func (implementationOverride) isServiceOverride() {}

// normalizeOverrides turns overrides into factories, in order.
func normalizeOverrides(overrides []ServiceOverride) ([]di.ServiceFactory, error) {
	factories := make([]di.ServiceFactory, 0, len(overrides))
	for i, o := range overrides {
		f, err := normalize(o)
		if err != nil {
			return nil, fmt.Errorf("service override %d: %w", i, err)
		}
		factories = append(factories, f)
	}
	return factories, nil
}

func normalize(o ServiceOverride) (di.ServiceFactory, error) {
	switch o := o.(type) {
	case factoryOverride:
		if o.f == nil {
			return nil, fmt.Errorf("%w: nil factory", ErrInvalidOverride)
		}
		return o.f, nil

	case factoryFuncOverride:
		if o.fn == nil {
			return nil, fmt.Errorf("%w: nil factory func", ErrInvalidOverride)
		}
		f := o.fn()
		if f == nil {
			return nil, fmt.Errorf("%w: factory func returned nil", ErrInvalidOverride)
		}
		return f, nil

	case implementationOverride:
		if o.ref == nil {
			return nil, fmt.Errorf("%w: implementation without service ref", ErrInvalidOverride)
		}
		return implementationFactory(o.ref, o.impl), nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidOverride, o)
	}
}

// implementationFactory serves impl without dependencies. Plugin-scoped
// services get a provider that returns impl for every plugin.
func implementationFactory(ref di.Ref, impl any) di.ServiceFactory {
	if ref.Scope() == di.ScopePlugin {
		return di.NewFactory(ref, nil, func(context.Context, di.Deps) (any, error) {
			return di.PluginProvider(func(context.Context, di.Deps) (any, error) {
				return impl, nil
			}), nil
		})
	}
	return di.NewFactory(ref, nil, func(context.Context, di.Deps) (any, error) {
		return impl, nil
	})
}
