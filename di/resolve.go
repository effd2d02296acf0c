package di

import (
	"context"
	"fmt"
)

// Resolve resolves ref from the registry with its static type.
//
// Example:
//
//	log, err := di.Resolve(ctx, reg, core.Logger, "catalog")
//	if err != nil {
//	    return fmt.Errorf("failed to get logger: %w", err)
//	}
func Resolve[T any](ctx context.Context, r *Registry, ref ServiceRef[T], pluginID string) (T, error) {
	var zero T
	instance, err := r.Resolve(ctx, ref, pluginID)
	if err != nil {
		return zero, err
	}
	result, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("di: service %s is %T, expected %T", ref.ID(), instance, zero)
	}
	return result, nil
}

// MustResolve resolves ref with type safety, panics on error.
func MustResolve[T any](ctx context.Context, r *Registry, ref ServiceRef[T], pluginID string) T {
	v, err := Resolve(ctx, r, ref, pluginID)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %s: %v", ref.ID(), err))
	}
	return v
}
