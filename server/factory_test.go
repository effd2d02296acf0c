package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/backendkit/config"
	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
	"github.com/kbukum/backendkit/lifecycle"
	"github.com/kbukum/backendkit/logging"
	"github.com/kbukum/backendkit/server"
)

func newRegistry(t *testing.T) *di.Registry {
	t.Helper()
	return newRegistryWith(t, server.RootHTTPRouterFactory())
}

func newRegistryWith(t *testing.T, rootRouter di.ServiceFactory) *di.Registry {
	t.Helper()
	reg, err := di.NewRegistry(
		config.StaticFactory(map[string]any{
			"backend": map[string]any{
				"name":    "server-test",
				"listen":  map[string]any{"host": "127.0.0.1", "port": 0},
				"logging": map[string]any{"level": "error", "output": "discard"},
			},
		}),
		logging.RootFactory(),
		lifecycle.RootFactory(),
		rootRouter,
		server.HTTPRouterFactory(),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return rr
}

func TestRootHTTPRouterFactory_Readiness(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)

	root := di.MustResolve(ctx, reg, core.RootHTTPRouter, "").(*server.Router)
	runner := di.MustResolve(ctx, reg, core.RootLifecycle, "").(core.LifecycleRunner)

	if rr := serve(root, server.HealthPath+"/liveness"); rr.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rr.Code)
	}
	if rr := serve(root, server.HealthPath+"/readiness"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readiness before startup: expected 503, got %d", rr.Code)
	}

	if err := runner.Startup(ctx); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if rr := serve(root, server.HealthPath+"/readiness"); rr.Code != http.StatusOK {
		t.Fatalf("readiness after startup: expected 200, got %d", rr.Code)
	}

	if err := runner.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if rr := serve(root, server.HealthPath+"/readiness"); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readiness after shutdown: expected 503, got %d", rr.Code)
	}
}

func TestHTTPRouterFactory_MountsPerPlugin(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	runner := di.MustResolve(ctx, reg, core.RootLifecycle, "").(core.LifecycleRunner)
	defer func() { _ = runner.Shutdown(ctx) }()

	for _, pluginID := range []string{"catalog", "search"} {
		pr, err := di.Resolve(ctx, reg, core.HTTPRouter, pluginID)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", pluginID, err)
		}
		id := pluginID
		pr.Routes().GET("/whoami", func(c *gin.Context) { c.String(http.StatusOK, id) })
	}

	again, err := di.Resolve(ctx, reg, core.HTTPRouter, "catalog")
	if err != nil {
		t.Fatalf("Resolve again: %v", err)
	}
	first, _ := di.Resolve(ctx, reg, core.HTTPRouter, "catalog")
	if again != first {
		t.Error("expected the plugin router to be cached per plugin")
	}

	root := di.MustResolve(ctx, reg, core.RootHTTPRouter, "").(*server.Router)
	for _, pluginID := range []string{"catalog", "search"} {
		rr := serve(root, "/api/"+pluginID+"/whoami")
		body, _ := io.ReadAll(rr.Body)
		if string(body) != pluginID {
			t.Errorf("expected %s, got %q", pluginID, body)
		}
	}
}

func TestNewRootHTTPRouterFactory_Options(t *testing.T) {
	ctx := context.Background()

	var started *server.Server
	reg := newRegistryWith(t, server.NewRootHTTPRouterFactory(server.RootRouterOptions{
		Listen:    &server.ListenConfig{Host: "127.0.0.1", Port: 0},
		OnStarted: func(srv *server.Server) error { started = srv; return nil },
	}))
	runner := di.MustResolve(ctx, reg, core.RootLifecycle, "").(core.LifecycleRunner)
	defer func() { _ = runner.Shutdown(ctx) }()

	if _, err := di.Resolve(ctx, reg, core.RootHTTPRouter, ""); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if started == nil || started.Port() <= 0 {
		t.Fatalf("OnStarted did not receive a listening server")
	}
	res, err := http.Get(started.URL() + server.HealthPath + "/liveness")
	if err != nil {
		t.Fatalf("GET liveness: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("liveness: expected 200, got %d", res.StatusCode)
	}
}

func TestNewRootHTTPRouterFactory_OnStartedErrorStopsServer(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	var started *server.Server
	reg := newRegistryWith(t, server.NewRootHTTPRouterFactory(server.RootRouterOptions{
		OnStarted: func(srv *server.Server) error { started = srv; return boom },
	}))

	if _, err := di.Resolve(ctx, reg, core.RootHTTPRouter, ""); !errors.Is(err, boom) {
		t.Fatalf("Resolve error = %v, want boom", err)
	}
	if started == nil {
		t.Fatal("OnStarted was not called")
	}
	if res, err := http.Get(started.URL() + server.HealthPath + "/liveness"); err == nil {
		_ = res.Body.Close()
		t.Error("server still accepts connections after OnStarted failed")
	}
}
