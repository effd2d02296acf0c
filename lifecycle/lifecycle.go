package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/logger"
)

type namedHook struct {
	name string
	hook core.Hook
}

// RootLifecycle runs backend-wide startup and shutdown hooks.
type RootLifecycle struct {
	log *logger.Logger

	mu       sync.Mutex
	startup  []namedHook
	shutdown []namedHook
	started  bool
	stopped  bool
}

var (
	_ core.LifecycleService = (*RootLifecycle)(nil)
	_ core.LifecycleRunner  = (*RootLifecycle)(nil)
)

// NewRootLifecycle creates a root lifecycle that logs through log.
func NewRootLifecycle(log *logger.Logger) *RootLifecycle {
	if log == nil {
		log = logger.Nop()
	}
	return &RootLifecycle{log: log.WithComponent("lifecycle")}
}

// AddStartupHook registers a hook that runs during Startup. Hooks added
// after startup run immediately.
func (l *RootLifecycle) AddStartupHook(name string, hook core.Hook) {
	l.mu.Lock()
	if !l.started {
		l.startup = append(l.startup, namedHook{name: name, hook: hook})
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	l.log.Warn("Startup hook added after startup, running now", map[string]interface{}{"hook": name})
	if err := hook(context.Background()); err != nil {
		l.log.Error("Late startup hook failed", logger.ErrorFields(name, err))
	}
}

// AddShutdownHook registers a hook that runs during Shutdown. Hooks added
// after shutdown are ignored.
func (l *RootLifecycle) AddShutdownHook(name string, hook core.Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		l.log.Warn("Shutdown hook added after shutdown, ignoring", map[string]interface{}{"hook": name})
		return
	}
	l.shutdown = append(l.shutdown, namedHook{name: name, hook: hook})
}

// Startup runs the startup hooks sequentially, returning the first error.
func (l *RootLifecycle) Startup(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return nil
	}
	l.started = true
	hooks := append([]namedHook(nil), l.startup...)
	l.mu.Unlock()

	for _, h := range hooks {
		if err := h.hook(ctx); err != nil {
			return fmt.Errorf("startup hook %s failed: %w", h.name, err)
		}
	}
	return nil
}

// Shutdown runs the shutdown hooks once, in reverse order. Failures are
// logged and combined.
func (l *RootLifecycle) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return nil
	}
	l.stopped = true
	hooks := append([]namedHook(nil), l.shutdown...)
	l.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := h.hook(ctx); err != nil {
			l.log.Error("Shutdown hook failed", logger.ErrorFields(h.name, err))
			errs = append(errs, fmt.Errorf("shutdown hook %s failed: %w", h.name, err))
		}
	}
	return errors.Join(errs...)
}

// PluginLifecycle registers hooks on the root lifecycle on behalf of a plugin.
type PluginLifecycle struct {
	root     core.LifecycleService
	pluginID string
}

var _ core.LifecycleService = (*PluginLifecycle)(nil)

// NewPluginLifecycle scopes root to pluginID.
func NewPluginLifecycle(root core.LifecycleService, pluginID string) *PluginLifecycle {
	return &PluginLifecycle{root: root, pluginID: pluginID}
}

// AddStartupHook implements core.LifecycleService.
func (l *PluginLifecycle) AddStartupHook(name string, hook core.Hook) {
	l.root.AddStartupHook(l.pluginID+"."+name, hook)
}

// AddShutdownHook implements core.LifecycleService.
func (l *PluginLifecycle) AddShutdownHook(name string, hook core.Hook) {
	l.root.AddShutdownHook(l.pluginID+"."+name, hook)
}
