package server

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/backendkit/core"
)

var _ core.RootHTTPRouterService = (*Router)(nil)

type mount struct {
	path    string
	handler http.Handler
}

// Router dispatches requests to handlers mounted at path prefixes. The
// longest matching prefix wins and is stripped from the request path.
type Router struct {
	mu     sync.RWMutex
	mounts []mount
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{}
}

// Use mounts handler at path. Paths must start with "/" and may only be
// mounted once.
func (r *Router) Use(path string, handler http.Handler) error {
	if handler == nil {
		return fmt.Errorf("router: nil handler for path %q", path)
	}
	normalized, err := normalizePath(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mounts {
		if m.path == normalized {
			return fmt.Errorf("router: path %q is already in use", normalized)
		}
	}
	r.mounts = append(r.mounts, mount{path: normalized, handler: handler})
	sort.SliceStable(r.mounts, func(i, j int) bool {
		return len(r.mounts[i].path) > len(r.mounts[j].path)
	})
	return nil
}

// Paths returns the mounted paths, longest first.
func (r *Router) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make([]string, len(r.mounts))
	for i, m := range r.mounts {
		paths[i] = m.path
	}
	return paths
}

// ServeHTTP dispatches req, responding 404 when nothing is mounted for it.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !r.dispatch(w, req) {
		http.NotFound(w, req)
	}
}

// GinHandler serves mounted handlers from a gin chain. Requests with no
// matching mount continue down the chain.
func (r *Router) GinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.dispatch(c.Writer, c.Request) {
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) bool {
	m, ok := r.match(req.URL.Path)
	if !ok {
		return false
	}
	m.handler.ServeHTTP(w, stripPrefix(req, m.path))
	return true
}

func (r *Router) match(path string) (mount, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.mounts {
		if m.path == "/" || path == m.path || strings.HasPrefix(path, m.path+"/") {
			return m, true
		}
	}
	return mount{}, false
}

func normalizePath(path string) (string, error) {
	if !strings.HasPrefix(path, "/") {
		return "", fmt.Errorf("router: path %q must start with '/'", path)
	}
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		path = "/"
	}
	return path, nil
}

func stripPrefix(req *http.Request, prefix string) *http.Request {
	if prefix == "/" {
		return req
	}
	r2 := new(http.Request)
	*r2 = *req
	r2.URL = new(url.URL)
	*r2.URL = *req.URL
	r2.URL.Path = strings.TrimPrefix(req.URL.Path, prefix)
	if r2.URL.Path == "" {
		r2.URL.Path = "/"
	}
	r2.URL.RawPath = ""
	return r2
}
