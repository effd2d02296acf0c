package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kbukum/backendkit/config"
	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
	"github.com/kbukum/backendkit/discovery"
	"github.com/kbukum/backendkit/server"
)

// ErrServerNotStarted is returned when the test server is read before the
// root HTTP router has started it.
var ErrServerNotStarted = errors.New("test server not started yet")

// serverCell holds the server of one test backend. It is written once.
type serverCell struct {
	mu  sync.RWMutex
	srv *server.Server
}

func (c *serverCell) set(srv *server.Server) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.srv != nil {
		return fmt.Errorf("test server already started on port %d", c.srv.Port())
	}
	c.srv = srv
	return nil
}

func (c *serverCell) get() (*server.Server, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.srv == nil {
		return nil, ErrServerNotStarted
	}
	return c.srv, nil
}

// rootHTTPRouterFactory starts the backend's server on an ephemeral port and
// records it in cell.
func rootHTTPRouterFactory(cell *serverCell) di.ServiceFactory {
	return server.NewRootHTTPRouterFactory(server.RootRouterOptions{
		Listen:    &server.ListenConfig{Host: "", Port: 0},
		OnStarted: cell.set,
	})
}

// discoveryFactory resolves every plugin to the test server in cell. It
// depends on the root router only so that the server is running first.
func discoveryFactory(cell *serverCell) di.ServiceFactory {
	return di.NewFactory(core.Discovery, []di.Ref{core.RootHTTPRouter},
		func(context.Context, di.Deps) (any, error) {
			srv, err := cell.get()
			if err != nil {
				return nil, err
			}
			port := srv.Port()
			d, err := discovery.NewHostDiscovery(config.NewReader(map[string]any{
				"backend": map[string]any{
					"baseUrl": fmt.Sprintf("http://localhost:%d", port),
					"listen":  map[string]any{"port": port},
				},
			}))
			if err != nil {
				return nil, err
			}
			return di.PluginProvider(func(context.Context, di.Deps) (any, error) {
				return core.DiscoveryService(d), nil
			}), nil
		})
}
