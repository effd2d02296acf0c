package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/backendkit/backend"
	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
	"github.com/kbukum/backendkit/server"
)

type greeter interface{ Greet() string }

type staticGreeter string

func (g staticGreeter) Greet() string { return string(g) }

var greeterExtension = backend.NewExtensionPointRef[greeter]("test.greeter")

func startBackend(t *testing.T, opts Options) *TestBackend {
	t.Helper()
	if opts.Registry == nil {
		opts.Registry = NewRegistry(nil)
	}
	tb, err := StartTestBackend(context.Background(), opts)
	if err != nil {
		t.Fatalf("StartTestBackend: %v", err)
	}
	t.Cleanup(func() { opts.Registry.Shutdown(context.Background()) })
	return tb
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestStartTestBackend_Empty(t *testing.T) {
	a := startBackend(t, Options{})
	b := startBackend(t, Options{})

	srvA, err := a.Server()
	if err != nil {
		t.Fatalf("Server: %v", err)
	}
	srvB := b.MustServer()
	if srvA.Port() <= 0 || srvB.Port() <= 0 {
		t.Fatalf("ports %d and %d must be positive", srvA.Port(), srvB.Port())
	}
	if srvA.Port() == srvB.Port() {
		t.Errorf("both backends listen on port %d", srvA.Port())
	}

	code, _ := get(t, a.URL()+server.HealthPath+"/readiness")
	if code != http.StatusOK {
		t.Errorf("readiness = %d, want 200", code)
	}
}

func TestGinRunsInTestMode(t *testing.T) {
	if gin.Mode() != gin.TestMode {
		t.Errorf("gin mode = %q, want %q", gin.Mode(), gin.TestMode)
	}
}

func TestTestBackend_ServerBeforeStart(t *testing.T) {
	tb := NewTestBackend(Options{Registry: NewRegistry(nil)})
	if _, err := tb.Server(); !errors.Is(err, ErrServerNotStarted) {
		t.Errorf("Server() err = %v, want ErrServerNotStarted", err)
	}
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustServer did not panic")
		}
	}()
	tb.MustServer()
}

func TestStartTestBackend_PluginsAreServedAndDiscovered(t *testing.T) {
	var discovered string
	plugin := backend.NewPlugin(backend.PluginOptions{
		PluginID: "catalog",
		Register: func(points backend.RegistrationPoints) {
			points.RegisterInit(backend.InitOptions{
				Deps: []di.Ref{core.HTTPRouter, core.Discovery},
				Init: func(ctx context.Context, deps di.Deps) error {
					router := di.MustGet(deps, core.HTTPRouter)
					router.Routes().GET("/hello", func(c *gin.Context) {
						server.RespondOK(c, "hello")
					})
					var err error
					discovered, err = di.MustGet(deps, core.Discovery).BaseURL(ctx, "catalog")
					return err
				},
			})
		},
	})

	tb := startBackend(t, Options{Features: []backend.Feature{plugin}})

	want := fmt.Sprintf("http://localhost:%d/api/catalog", tb.MustServer().Port())
	if discovered != want {
		t.Errorf("BaseURL = %q, want %q", discovered, want)
	}
	code, body := get(t, discovered+"/hello")
	if code != http.StatusOK || !strings.Contains(body, "hello") {
		t.Errorf("GET /hello = %d %s", code, body)
	}
}

func TestStartTestBackend_PluginScopedImplementation(t *testing.T) {
	impl := &answer{value: 42}
	var got *answer
	plugin := backend.NewPlugin(backend.PluginOptions{
		PluginID: "consumer",
		Register: func(points backend.RegistrationPoints) {
			points.RegisterInit(backend.InitOptions{
				Deps: []di.Ref{pluginAnswerRef},
				Init: func(_ context.Context, deps di.Deps) error {
					got = di.MustGet(deps, pluginAnswerRef)
					return nil
				},
			})
		},
	})

	startBackend(t, Options{
		Services: []ServiceOverride{Implementation(pluginAnswerRef, impl)},
		Features: []backend.Feature{plugin},
	})
	// The factory creates a provider; the registry calls it once per plugin,
	// so the feature receives the value itself.
	if got != impl {
		t.Errorf("plugin received %v, want %v", got, impl)
	}
}

func TestStartTestBackend_OverridesAndExtensionPoints(t *testing.T) {
	var (
		greeting string
		token    string
	)
	plugin := backend.NewPlugin(backend.PluginOptions{
		PluginID: "greeter",
		Register: func(points backend.RegistrationPoints) {
			points.RegisterInit(backend.InitOptions{
				Deps:            []di.Ref{core.RootConfig, core.TokenManager},
				ExtensionPoints: []backend.ExtensionPoint{greeterExtension},
				Init: func(ctx context.Context, deps di.Deps) error {
					g, err := backend.GetExtensionPoint(deps, greeterExtension)
					if err != nil {
						return err
					}
					greeting = g.Greet() + " from " + di.MustGet(deps, core.RootConfig).GetString("backend.name")
					token, err = di.MustGet(deps, core.TokenManager).GetToken(ctx)
					return err
				},
			})
		},
	})

	startBackend(t, Options{
		Services: []ServiceOverride{
			FactoryFunc(func() di.ServiceFactory {
				return MockConfigFactory(map[string]any{"backend": map[string]any{"name": "custom"}})
			}),
		},
		ExtensionPoints: []ExtensionPointOverride{ExtensionPoint[greeter](greeterExtension, staticGreeter("hi"))},
		Features:        []backend.Feature{plugin},
	})

	if greeting != "hi from custom" {
		t.Errorf("greeting = %q", greeting)
	}
	if token != MockToken {
		t.Errorf("token = %q, want %q", token, MockToken)
	}
}

func TestStartTestBackend_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid override", func(t *testing.T) {
		reg := NewRegistry(nil)
		_, err := StartTestBackend(ctx, Options{Services: []ServiceOverride{Factory(nil)}, Registry: reg})
		if !errors.Is(err, ErrInvalidOverride) {
			t.Errorf("err = %v, want ErrInvalidOverride", err)
		}
		if reg.Len() != 0 {
			t.Errorf("nothing should be tracked, got %d", reg.Len())
		}
	})

	t.Run("duplicate override", func(t *testing.T) {
		reg := NewRegistry(nil)
		defer reg.Shutdown(ctx)
		_, err := StartTestBackend(ctx, Options{
			Services: []ServiceOverride{Factory(MockConfigFactory(nil)), Factory(MockConfigFactory(nil))},
			Registry: reg,
		})
		if !errors.Is(err, di.ErrDuplicateFactory) {
			t.Errorf("err = %v, want ErrDuplicateFactory", err)
		}
	})

	t.Run("failing feature", func(t *testing.T) {
		reg := NewRegistry(nil)
		defer reg.Shutdown(ctx)
		boom := errors.New("boom")
		_, err := StartTestBackend(ctx, Options{
			Registry: reg,
			Features: []backend.Feature{backend.NewPlugin(backend.PluginOptions{
				PluginID: "broken",
				Register: func(points backend.RegistrationPoints) {
					points.RegisterInit(backend.InitOptions{
						Deps: []di.Ref{core.HTTPRouter},
						Init: func(context.Context, di.Deps) error { return boom },
					})
				},
			})},
		})
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want boom", err)
		}
		if reg.Len() != 1 {
			t.Errorf("failed backend must still be tracked, got %d", reg.Len())
		}
	})

	t.Run("start twice", func(t *testing.T) {
		tb := startBackend(t, Options{})
		if err := tb.Start(ctx); !errors.Is(err, backend.ErrAlreadyStarted) {
			t.Errorf("err = %v, want ErrAlreadyStarted", err)
		}
	})
}

func TestTHelper_StartBackend(t *testing.T) {
	var url string
	t.Run("inner", func(t *testing.T) {
		tb := T(t).StartBackend(Options{})
		url = tb.URL()
		if code, _ := get(t, url+server.HealthPath+"/liveness"); code != http.StatusOK {
			t.Errorf("liveness = %d", code)
		}
	})
	if _, err := http.Get(url + server.HealthPath + "/liveness"); err == nil {
		t.Error("server still reachable after the test ended")
	}
}
