package di

import (
	"context"
	"fmt"
)

// Deps holds resolved dependencies keyed by service ID.
type Deps map[string]any

// PluginProvider produces a plugin-scoped instance for one plugin.
type PluginProvider func(ctx context.Context, deps Deps) (any, error)

// ServiceFactory creates the implementation of one service.
//
// For root-scoped services Create returns the instance. For plugin-scoped
// services Create receives only the root-scoped dependencies and returns a
// PluginProvider.
type ServiceFactory interface {
	Service() Ref
	Dependencies() []Ref
	Create(ctx context.Context, deps Deps) (any, error)
}

type factory struct {
	ref    Ref
	deps   []Ref
	create func(ctx context.Context, deps Deps) (any, error)
}

func (f *factory) Service() Ref { return f.ref }

func (f *factory) Dependencies() []Ref { return f.deps }

func (f *factory) Create(ctx context.Context, deps Deps) (any, error) {
	return f.create(ctx, deps)
}

// NewFactory creates an untyped factory.
func NewFactory(ref Ref, deps []Ref, create func(ctx context.Context, deps Deps) (any, error)) ServiceFactory {
	return &factory{ref: ref, deps: deps, create: create}
}

// RootFactory creates a factory for a root-scoped service.
func RootFactory[T any](ref ServiceRef[T], deps []Ref, create func(ctx context.Context, deps Deps) (T, error)) ServiceFactory {
	return NewFactory(ref, deps, func(ctx context.Context, d Deps) (any, error) {
		return create(ctx, d)
	})
}

// PluginFactory creates a factory for a plugin-scoped service.
func PluginFactory[T any](ref ServiceRef[T], deps []Ref, create func(ctx context.Context, deps Deps) (T, error)) ServiceFactory {
	return NewFactory(ref, deps, func(context.Context, Deps) (any, error) {
		return PluginProvider(func(ctx context.Context, d Deps) (any, error) {
			return create(ctx, d)
		}), nil
	})
}

// PluginFactoryWithRoot creates a factory for a plugin-scoped service that
// shares a root context C across all plugins. root runs once with the
// root-scoped dependencies; create runs per plugin.
func PluginFactoryWithRoot[T, C any](
	ref ServiceRef[T],
	deps []Ref,
	root func(ctx context.Context, deps Deps) (C, error),
	create func(ctx context.Context, deps Deps, shared C) (T, error),
) ServiceFactory {
	return NewFactory(ref, deps, func(ctx context.Context, rootDeps Deps) (any, error) {
		shared, err := root(ctx, rootDeps)
		if err != nil {
			return nil, err
		}
		return PluginProvider(func(ctx context.Context, d Deps) (any, error) {
			return create(ctx, d, shared)
		}), nil
	})
}

// Get returns the dependency for ref with its static type.
func Get[T any](deps Deps, ref ServiceRef[T]) (T, error) {
	var zero T
	v, ok := deps[ref.ID()]
	if !ok {
		return zero, fmt.Errorf("di: dependency %s not provided", ref.ID())
	}
	result, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("di: dependency %s is %T, expected %T", ref.ID(), v, zero)
	}
	return result, nil
}

// MustGet is like Get but panics on error. Use it for dependencies the
// factory declared.
func MustGet[T any](deps Deps, ref ServiceRef[T]) T {
	v, err := Get(deps, ref)
	if err != nil {
		panic(err)
	}
	return v
}
