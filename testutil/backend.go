package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/backendkit/backend"
	"github.com/kbukum/backendkit/component"
	"github.com/kbukum/backendkit/di"
	"github.com/kbukum/backendkit/server"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// RegistrarPluginID is the plugin that registers extension point overrides.
const RegistrarPluginID = "test-extension-point-registrar"

// ExtensionPointOverride provides an extension point implementation to the
// features of a test backend.
type ExtensionPointOverride struct {
	Ref  backend.ExtensionPoint
	Impl any
}

// ExtensionPoint overrides ref with impl.
func ExtensionPoint[T any](ref backend.ExtensionPointRef[T], impl T) ExtensionPointOverride {
	return ExtensionPointOverride{Ref: ref, Impl: impl}
}

// Options describes a test backend.
type Options struct {
	// Services replace or add to DefaultServiceFactories.
	Services []ServiceOverride
	// ExtensionPoints are registered on behalf of the features.
	ExtensionPoints []ExtensionPointOverride
	// Features are added after the extension point registrar.
	Features []backend.Feature
	// Registry tracks the backend for teardown. Nil means DefaultRegistry.
	Registry *Registry
}

// TestBackend is a backend serving HTTP on an ephemeral local port.
type TestBackend struct {
	opts     Options
	registry *Registry
	cell     *serverCell

	mu      sync.Mutex
	backend *backend.Backend
}

var _ component.Component = (*TestBackend)(nil)

// NewTestBackend prepares a backend. Nothing is created until Start.
func NewTestBackend(opts Options) *TestBackend {
	reg := opts.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &TestBackend{opts: opts, registry: reg, cell: &serverCell{}}
}

// StartTestBackend creates and starts a backend.
func StartTestBackend(ctx context.Context, opts Options) (*TestBackend, error) {
	tb := NewTestBackend(opts)
	if err := tb.Start(ctx); err != nil {
		return nil, err
	}
	return tb, nil
}

// Start assembles the service factories, adds the features and starts the
// backend. The backend is tracked for teardown even when starting fails.
func (tb *TestBackend) Start(ctx context.Context) error {
	tb.mu.Lock()
	if tb.backend != nil {
		tb.mu.Unlock()
		return backend.ErrAlreadyStarted
	}

	user, err := normalizeOverrides(tb.opts.Services)
	if err != nil {
		tb.mu.Unlock()
		return err
	}
	factories := mergeFactories(user, DefaultServiceFactories())
	factories = append(factories, rootHTTPRouterFactory(tb.cell), discoveryFactory(tb.cell))

	b := backend.New(backend.Options{Name: "test-backend", Services: factories})
	tb.backend = b
	tb.mu.Unlock()

	tb.registry.Track(tb)

	if err := b.Add(registrarPlugin(tb.opts.ExtensionPoints)); err != nil {
		return err
	}
	for _, f := range tb.opts.Features {
		if err := b.Add(f); err != nil {
			return err
		}
	}
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("start test backend: %w", err)
	}
	return nil
}

// registrarPlugin registers every extension point override and does nothing
// on init.
func registrarPlugin(overrides []ExtensionPointOverride) backend.Feature {
	return backend.NewPlugin(backend.PluginOptions{
		PluginID: RegistrarPluginID,
		Register: func(points backend.RegistrationPoints) {
			for _, o := range overrides {
				points.RegisterExtensionPoint(o.Ref, o.Impl)
			}
			points.RegisterInit(backend.InitOptions{
				Init: func(context.Context, di.Deps) error { return nil },
			})
		},
	})
}

// Stop stops the backend. It is a no-op before Start.
func (tb *TestBackend) Stop(ctx context.Context) error {
	b := tb.Backend()
	if b == nil {
		return nil
	}
	return b.Stop(ctx)
}

// Backend returns the underlying backend, or nil before Start.
func (tb *TestBackend) Backend() *backend.Backend {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.backend
}

// Server returns the running HTTP server, or ErrServerNotStarted.
func (tb *TestBackend) Server() (*server.Server, error) {
	return tb.cell.get()
}

// MustServer is like Server but panics before the server has started.
func (tb *TestBackend) MustServer() *server.Server {
	srv, err := tb.Server()
	if err != nil {
		panic(err)
	}
	return srv
}

// URL returns the base URL of the running server.
func (tb *TestBackend) URL() string {
	return tb.MustServer().URL()
}

// Name implements component.Component.
func (tb *TestBackend) Name() string { return "test-backend" }

// Health implements component.Component.
func (tb *TestBackend) Health(ctx context.Context) component.Health {
	b := tb.Backend()
	if b == nil {
		return component.Health{Name: tb.Name(), Status: component.StatusDegraded, Message: "not started"}
	}
	return b.Health(ctx)
}
