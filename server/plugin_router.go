package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/backendkit/core"
)

var _ core.HTTPRouterService = (*PluginRouter)(nil)

// PluginRouter is a plugin's own gin engine, mounted on the root router at
// /api/<pluginId>.
type PluginRouter struct {
	engine   *gin.Engine
	mf       *MiddlewareFactory
	mu       sync.RWMutex
	fallback http.Handler
}

// NewPluginRouter creates a plugin router whose unmatched requests go to the
// handler passed to Use, or respond 404.
func NewPluginRouter(mf *MiddlewareFactory) *PluginRouter {
	p := &PluginRouter{engine: gin.New(), mf: mf}
	p.engine.Use(mf.Error())
	p.engine.NoRoute(p.serveFallback)
	return p
}

// Routes implements core.HTTPRouterService.
func (p *PluginRouter) Routes() gin.IRouter { return p.engine }

// Use implements core.HTTPRouterService. A later call replaces the handler
// set by an earlier one.
func (p *PluginRouter) Use(handler http.Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fallback = handler
}

// ServeHTTP implements http.Handler.
func (p *PluginRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.engine.ServeHTTP(w, r)
}

func (p *PluginRouter) serveFallback(c *gin.Context) {
	p.mu.RLock()
	fallback := p.fallback
	p.mu.RUnlock()
	if fallback == nil {
		p.mf.NotFound()(c)
		return
	}
	c.Status(http.StatusOK)
	fallback.ServeHTTP(c.Writer, c.Request)
	c.Abort()
}
