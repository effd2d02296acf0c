package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kbukum/backendkit/component"
	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
	"github.com/kbukum/backendkit/logger"
)

// ErrAlreadyStarted is returned when features are added to, or Start is
// called on, a backend that has already started.
var ErrAlreadyStarted = errors.New("backend already started")

// Options configures a backend.
type Options struct {
	// Name identifies the backend in logs and health reports.
	Name string
	// Services are the factories the backend resolves services from.
	Services []di.ServiceFactory
}

type state int

const (
	stateNew state = iota
	stateStarting
	stateStarted
	stateStopped
)

// Backend wires features to services and runs their lifecycle.
type Backend struct {
	name     string
	services []di.ServiceFactory

	mu       sync.Mutex
	features []Feature
	registry *di.Registry
	state    state
	startErr error
	stopErr  error
}

var _ component.Component = (*Backend)(nil)

// New creates a backend from options.
func New(opts Options) *Backend {
	name := opts.Name
	if name == "" {
		name = "backend"
	}
	return &Backend{name: name, services: opts.Services}
}

// Add adds a feature. Features must be added before Start.
func (b *Backend) Add(f Feature) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != stateNew {
		return fmt.Errorf("cannot add %s: %w", featureName(f), ErrAlreadyStarted)
	}
	b.features = append(b.features, f)
	return nil
}

// Name implements component.Component.
func (b *Backend) Name() string { return b.name }

// Registry returns the service registry, or nil before Start.
func (b *Backend) Registry() *di.Registry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registry
}

// Start registers all features, creates root services, initializes every
// plugin and runs the root lifecycle startup hooks.
func (b *Backend) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.state != stateNew {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.state = stateStarting
	features := append([]Feature(nil), b.features...)
	b.mu.Unlock()

	err := b.start(ctx, features)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.startErr = err
	if err == nil && b.state == stateStarting {
		b.state = stateStarted
	}
	return err
}

func (b *Backend) start(ctx context.Context, features []Feature) error {
	registry, err := di.NewRegistry(b.services...)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.registry = registry
	b.mu.Unlock()

	plan, err := planFeatures(features)
	if err != nil {
		return err
	}

	if err := registry.InitializeRoot(ctx); err != nil {
		return err
	}

	log := b.rootLogger(ctx, registry)

	for _, pluginID := range plan.pluginOrder {
		for _, reg := range plan.byPlugin[pluginID] {
			if err := b.initFeature(ctx, registry, plan, reg); err != nil {
				return err
			}
			log.Debug("Feature initialized", map[string]interface{}{
				logger.FieldPlugin: pluginID,
				"module":           reg.feature.ModuleID(),
			})
		}
	}

	if runner, ok := b.lifecycle(ctx, registry); ok {
		if err := runner.Startup(ctx); err != nil {
			return fmt.Errorf("backend startup hooks failed: %w", err)
		}
	}

	log.Info("Backend started", map[string]interface{}{
		"plugins": len(plan.pluginOrder),
	})
	return nil
}

func (b *Backend) initFeature(ctx context.Context, registry *di.Registry, plan *featurePlan, reg *registration) error {
	init := reg.inits[0]
	pluginID := reg.feature.PluginID()

	deps, err := registry.ResolveDeps(ctx, init.Deps, pluginID)
	if err != nil {
		return fmt.Errorf("failed to resolve dependencies of %s: %w", featureName(reg.feature), err)
	}
	for _, ep := range init.ExtensionPoints {
		provided, ok := plan.extensionPoints[ep.ID()]
		if !ok {
			return fmt.Errorf("%s depends on unknown extension point %s", featureName(reg.feature), ep.ID())
		}
		deps[ep.depKey()] = provided.impl
	}

	if init.Init == nil {
		return nil
	}
	if err := init.Init(ctx, deps); err != nil {
		return fmt.Errorf("%s startup failed: %w", featureName(reg.feature), err)
	}
	return nil
}

// Stop runs the root lifecycle shutdown hooks. It is safe to call more than
// once and after a failed Start.
func (b *Backend) Stop(ctx context.Context) error {
	b.mu.Lock()
	if b.state == stateStopped {
		b.mu.Unlock()
		return b.stopErr
	}
	b.state = stateStopped
	registry := b.registry
	b.mu.Unlock()

	if registry == nil || !registry.Initialized(core.IDRootLifecycle) {
		return nil
	}

	var err error
	if runner, ok := b.lifecycle(ctx, registry); ok {
		err = runner.Shutdown(ctx)
	}

	b.mu.Lock()
	b.stopErr = err
	b.mu.Unlock()
	return err
}

// Health implements component.Component.
func (b *Backend) Health(_ context.Context) component.Health {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := component.Health{Name: b.name, Status: component.StatusHealthy}
	switch b.state {
	case stateNew, stateStarting:
		h.Status = component.StatusDegraded
		h.Message = "not started"
	case stateStopped:
		h.Status = component.StatusUnhealthy
		h.Message = "stopped"
	}
	if b.startErr != nil {
		h.Status = component.StatusUnhealthy
		h.Message = b.startErr.Error()
	}
	return h
}

func (b *Backend) rootLogger(ctx context.Context, registry *di.Registry) *logger.Logger {
	if !registry.Has(core.IDRootLogger) {
		return logger.WithComponent("backend")
	}
	log, err := di.Resolve(ctx, registry, core.RootLogger, "")
	if err != nil {
		return logger.WithComponent("backend")
	}
	return log.WithComponent("backend")
}

func (b *Backend) lifecycle(ctx context.Context, registry *di.Registry) (core.LifecycleRunner, bool) {
	if !registry.Has(core.IDRootLifecycle) {
		return nil, false
	}
	lc, err := registry.Resolve(ctx, core.RootLifecycle, "")
	if err != nil {
		return nil, false
	}
	runner, ok := lc.(core.LifecycleRunner)
	return runner, ok
}
