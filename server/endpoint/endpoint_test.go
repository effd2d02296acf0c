package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/backendkit/component"
	"github.com/kbukum/backendkit/version"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON from %s: %v", path, err)
	}
	return rr.Code, body
}

func TestLiveness(t *testing.T) {
	h := Routes("test", NewReadiness())
	code, body := get(t, h, "/liveness")
	if code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("unexpected liveness response %d %v", code, body)
	}
}

func TestReadiness_FlipsWithState(t *testing.T) {
	r := NewReadiness()
	h := Routes("test", r)

	code, body := get(t, h, "/readiness")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", code)
	}
	if body["message"] != notReadyMessage {
		t.Errorf("unexpected message %v", body["message"])
	}
	if body["code"] != "NOT_READY" {
		t.Errorf("unexpected code %v", body["code"])
	}

	r.SetReady(true)
	if code, _ := get(t, h, "/readiness"); code != http.StatusOK {
		t.Fatalf("expected 200 once ready, got %d", code)
	}

	r.SetReady(false)
	if code, _ := get(t, h, "/readiness"); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 after shutdown, got %d", code)
	}
}

func TestReadiness_UnhealthyCheck(t *testing.T) {
	db := component.HealthCheckerFunc(func(context.Context) component.Health {
		return component.Health{Name: "db", Status: component.StatusUnhealthy}
	})
	r := NewReadiness(db)
	r.SetReady(true)

	if code, _ := get(t, Routes("test", r), "/readiness"); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with unhealthy check, got %d", code)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		check      component.HealthStatus
		wantCode   int
		wantStatus string
	}{
		{"healthy", true, component.StatusHealthy, http.StatusOK, "healthy"},
		{"starting", false, component.StatusHealthy, http.StatusOK, "degraded"},
		{"unhealthy", true, component.StatusUnhealthy, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReadiness()
			r.SetReady(tt.ready)
			check := component.HealthCheckerFunc(func(context.Context) component.Health {
				return component.Health{Name: "cache", Status: tt.check}
			})

			code, body := get(t, Routes("test", r, check), "/health")
			if code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, code)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("expected status %s, got %v", tt.wantStatus, body["status"])
			}
			if body["backend"] != "test" {
				t.Errorf("unexpected backend %v", body["backend"])
			}
			if v, _ := body["version"].(string); !strings.HasPrefix(v, version.Version) {
				t.Errorf("unexpected version %v", body["version"])
			}
		})
	}
}
