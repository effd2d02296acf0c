package di

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrDuplicateFactory is returned when two factories provide the same service.
	ErrDuplicateFactory = errors.New("duplicate service factory")
	// ErrServiceNotFound is returned when no factory provides a requested service.
	ErrServiceNotFound = errors.New("service not registered")
	// ErrCircularDependency is returned when factories depend on each other.
	ErrCircularDependency = errors.New("circular service dependency")
	// ErrScopeMismatch is returned when a service is requested from the wrong scope.
	ErrScopeMismatch = errors.New("service scope mismatch")
)

// RegistrationInfo describes a registered service for introspection.
type RegistrationInfo struct {
	ID          string
	Scope       Scope
	Initialized bool
	// Plugins lists the plugins that hold an instance of a plugin-scoped service.
	Plugins []string
}

type registration struct {
	factory ServiceFactory
	scope   Scope

	// created holds the root instance or the plugin provider.
	created     any
	initialized bool

	pluginInstances map[string]any
}

// Registry creates services on demand and caches them per scope.
type Registry struct {
	mu    sync.Mutex
	regs  map[string]*registration
	order []string
}

// NewRegistry validates factories and builds a registry over them.
func NewRegistry(factories ...ServiceFactory) (*Registry, error) {
	r := &Registry{regs: make(map[string]*registration, len(factories))}

	for i, f := range factories {
		if f == nil {
			return nil, fmt.Errorf("di: factory at index %d is nil", i)
		}
		ref := f.Service()
		if ref == nil || ref.ID() == "" {
			return nil, fmt.Errorf("di: factory at index %d has no service reference", i)
		}
		id := ref.ID()
		if !ref.Scope().Valid() {
			return nil, fmt.Errorf("di: service %s has invalid scope %q", id, ref.Scope())
		}
		if id == PluginMetadataRef.ID() {
			return nil, fmt.Errorf("di: service %s is provided by the registry", id)
		}
		if _, exists := r.regs[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFactory, id)
		}
		r.regs[id] = &registration{
			factory:         f,
			scope:           ref.Scope(),
			pluginInstances: make(map[string]any),
		}
		r.order = append(r.order, id)
	}

	return r, nil
}

// Has reports whether a factory for id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.regs[id]
	return ok || id == PluginMetadataRef.ID()
}

// Initialized reports whether the service id has been created. For
// plugin-scoped services this means the factory produced its provider.
func (r *Registry) Initialized(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[id]
	return ok && reg.initialized
}

// Resolve returns the instance of ref. pluginID must be set for plugin-scoped
// services and is ignored for root-scoped ones.
func (r *Registry) Resolve(ctx context.Context, ref Ref, pluginID string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolve(ctx, ref.ID(), pluginID, nil)
}

// ResolveDeps resolves every ref for pluginID into a Deps map.
func (r *Registry) ResolveDeps(ctx context.Context, refs []Ref, pluginID string) (Deps, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveAll(ctx, refs, pluginID, nil)
}

// InitializeRoot creates every root-scoped service in registration order.
func (r *Registry) InitializeRoot(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		if r.regs[id].scope != ScopeRoot {
			continue
		}
		if _, err := r.resolve(ctx, id, "", nil); err != nil {
			return err
		}
	}
	return nil
}

// Registrations returns info about all registered services sorted by ID.
func (r *Registry) Registrations() []RegistrationInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]RegistrationInfo, 0, len(r.regs))
	for id, reg := range r.regs {
		info := RegistrationInfo{ID: id, Scope: reg.scope, Initialized: reg.initialized}
		for pluginID := range reg.pluginInstances {
			info.Plugins = append(info.Plugins, pluginID)
		}
		sort.Strings(info.Plugins)
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (r *Registry) resolve(ctx context.Context, id, pluginID string, path []string) (any, error) {
	if id == PluginMetadataRef.ID() {
		if pluginID == "" {
			return nil, fmt.Errorf("%w: %s is only available to plugins", ErrScopeMismatch, id)
		}
		return PluginMetadata{PluginID: pluginID}, nil
	}

	reg, ok := r.regs[id]
	if !ok {
		if len(path) > 0 {
			return nil, fmt.Errorf("%w: %s (required by %s)", ErrServiceNotFound, id, path[len(path)-1])
		}
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
	}

	for _, seen := range path {
		if seen == id {
			return nil, fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(append(path, id), " -> "))
		}
	}
	path = append(path, id)

	switch reg.scope {
	case ScopeRoot:
		return r.resolveRoot(ctx, reg, id, path)
	case ScopePlugin:
		if pluginID == "" {
			return nil, fmt.Errorf("%w: plugin service %s requested outside a plugin", ErrScopeMismatch, id)
		}
		return r.resolvePlugin(ctx, reg, id, pluginID, path)
	default:
		return nil, fmt.Errorf("di: service %s has invalid scope %q", id, reg.scope)
	}
}

func (r *Registry) resolveRoot(ctx context.Context, reg *registration, id string, path []string) (any, error) {
	if reg.initialized {
		return reg.created, nil
	}

	deps := reg.factory.Dependencies()
	for _, dep := range deps {
		if r.scopeOf(dep) == ScopePlugin {
			return nil, fmt.Errorf("%w: root service %s cannot depend on plugin service %s", ErrScopeMismatch, id, dep.ID())
		}
	}

	resolved, err := r.resolveAll(ctx, deps, "", path)
	if err != nil {
		return nil, err
	}

	instance, err := reg.factory.Create(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to create service %s: %w", id, err)
	}

	reg.created = instance
	reg.initialized = true
	return instance, nil
}

func (r *Registry) resolvePlugin(ctx context.Context, reg *registration, id, pluginID string, path []string) (any, error) {
	if instance, ok := reg.pluginInstances[pluginID]; ok {
		return instance, nil
	}

	deps := reg.factory.Dependencies()

	if !reg.initialized {
		rootDeps := make([]Ref, 0, len(deps))
		for _, dep := range deps {
			if r.scopeOf(dep) == ScopeRoot {
				rootDeps = append(rootDeps, dep)
			}
		}
		resolved, err := r.resolveAll(ctx, rootDeps, "", path)
		if err != nil {
			return nil, err
		}
		created, err := reg.factory.Create(ctx, resolved)
		if err != nil {
			return nil, fmt.Errorf("failed to create service %s: %w", id, err)
		}
		reg.created = created
		reg.initialized = true
	}

	provider, err := asProvider(reg.created)
	if err != nil {
		return nil, fmt.Errorf("di: plugin service %s: %w", id, err)
	}

	resolved, err := r.resolveAll(ctx, deps, pluginID, path)
	if err != nil {
		return nil, err
	}

	instance, err := provider(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to create service %s for plugin %s: %w", id, pluginID, err)
	}

	reg.pluginInstances[pluginID] = instance
	return instance, nil
}

func (r *Registry) resolveAll(ctx context.Context, refs []Ref, pluginID string, path []string) (Deps, error) {
	deps := make(Deps, len(refs))
	for _, ref := range refs {
		v, err := r.resolve(ctx, ref.ID(), pluginID, path)
		if err != nil {
			return nil, err
		}
		deps[ref.ID()] = v
	}
	return deps, nil
}

// scopeOf returns the scope of the registered factory, falling back to the
// scope declared on the reference.
func (r *Registry) scopeOf(ref Ref) Scope {
	if ref.ID() == PluginMetadataRef.ID() {
		return ScopePlugin
	}
	if reg, ok := r.regs[ref.ID()]; ok {
		return reg.scope
	}
	return ref.Scope()
}

func asProvider(v any) (PluginProvider, error) {
	switch p := v.(type) {
	case PluginProvider:
		return p, nil
	case func(context.Context, Deps) (any, error):
		return p, nil
	default:
		return nil, fmt.Errorf("factory returned %T, expected di.PluginProvider", v)
	}
}
