package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/backendkit/config"
	"github.com/kbukum/backendkit/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestFactory(t *testing.T, values map[string]any) *MiddlewareFactory {
	t.Helper()
	mf, err := NewMiddlewareFactory(config.NewReader(values), logger.Nop())
	if err != nil {
		t.Fatalf("NewMiddlewareFactory: %v", err)
	}
	return mf
}

func TestReadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := ReadConfig(config.NewReader(nil))
		if err != nil {
			t.Fatalf("ReadConfig: %v", err)
		}
		if c.Listen.Port != DefaultPort {
			t.Errorf("expected port %d, got %d", DefaultPort, c.Listen.Port)
		}
		if c.MaxBodySize != "10MB" {
			t.Errorf("unexpected max body size %q", c.MaxBodySize)
		}
	})

	t.Run("explicit zero port", func(t *testing.T) {
		c, err := ReadConfig(config.NewReader(map[string]any{
			"backend": map[string]any{"listen": map[string]any{"host": "127.0.0.1", "port": 0}},
		}))
		if err != nil {
			t.Fatalf("ReadConfig: %v", err)
		}
		if c.Listen.Port != 0 || c.Listen.Host != "127.0.0.1" {
			t.Errorf("unexpected listen config %+v", c.Listen)
		}
	})

	t.Run("cors", func(t *testing.T) {
		c, err := ReadConfig(config.NewReader(map[string]any{
			"backend": map[string]any{"cors": map[string]any{
				"origin":      []any{"https://app.example.com"},
				"credentials": true,
			}},
		}))
		if err != nil {
			t.Fatalf("ReadConfig: %v", err)
		}
		if len(c.CORS.AllowedOrigins) != 1 || !c.CORS.AllowCredentials {
			t.Errorf("unexpected cors config %+v", c.CORS)
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		_, err := ReadConfig(config.NewReader(map[string]any{
			"backend": map[string]any{"listen": map[string]any{"port": 70000}},
		}))
		if err == nil {
			t.Fatal("expected validation error")
		}
	})
}

func TestServer_StartOnFreePort(t *testing.T) {
	mf := newTestFactory(t, nil)
	router := NewRouter()
	app := NewApp(router, mf)
	if err := router.Use("/hello", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "hi "+r.URL.Path)
	})); err != nil {
		t.Fatalf("Use: %v", err)
	}

	srv := New(Config{Listen: ListenConfig{Host: "127.0.0.1"}}, app, logger.Nop())
	if srv.Port() != 0 {
		t.Fatalf("expected no port before start, got %d", srv.Port())
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = srv.Stop(context.Background()) }()

	if srv.Port() == 0 {
		t.Fatal("expected a bound port")
	}
	if !strings.HasPrefix(srv.URL(), "http://localhost:") {
		t.Errorf("unexpected URL %s", srv.URL())
	}

	resp, err := http.Get(srv.URL() + "/hello/world")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "hi /world" {
		t.Errorf("unexpected body %q", body)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("expected request ID header from default middleware")
	}

	if err := srv.Start(context.Background()); err == nil {
		t.Error("expected error starting twice")
	}
}

func TestApp_NotFound(t *testing.T) {
	app := NewApp(NewRouter(), newTestFactory(t, nil))
	srv := New(Config{Listen: ListenConfig{Host: "127.0.0.1"}}, app, logger.Nop())
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = srv.Stop(context.Background()) }()

	resp, err := http.Get(srv.URL() + "/nothing")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "NOT_FOUND" {
		t.Errorf("unexpected code %s", body.Error.Code)
	}
}

func TestServer_Health(t *testing.T) {
	srv := New(Config{Listen: ListenConfig{Host: "127.0.0.1"}}, http.NotFoundHandler(), logger.Nop())
	if h := srv.Health(context.Background()); h.Status != "unhealthy" {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = srv.Stop(context.Background()) }()
	if h := srv.Health(context.Background()); h.Status != "healthy" {
		t.Errorf("expected healthy after start, got %s", h.Status)
	}
}
