package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/kbukum/backendkit/config"
	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/di"
	apperrors "github.com/kbukum/backendkit/errors"
	"github.com/kbukum/backendkit/logger"
	"github.com/kbukum/backendkit/logging"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newManager(t *testing.T, cfg Config, c *clock) *Manager {
	t.Helper()
	m, err := NewManager(cfg, logger.Nop(), WithClock(c.now))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func errorCode(err error) apperrors.ErrorCode {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

func TestManager_IssueAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Now()}
	m := newManager(t, Config{Keys: []KeyConfig{{Secret: "a-shared-secret"}}}, c)

	token, err := m.GetToken(ctx)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if err := m.Authenticate(ctx, token); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	again, _ := m.GetToken(ctx)
	if again != token {
		t.Error("expected cached token to be reused")
	}

	c.advance(50 * time.Minute)
	fresh, _ := m.GetToken(ctx)
	if fresh == token {
		t.Error("expected a new token near expiry")
	}
}

func TestManager_SharedSecretAcrossBackends(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Now()}
	issuer := newManager(t, Config{Keys: []KeyConfig{{Secret: "new-secret-1"}}}, c)
	verifier := newManager(t, Config{Keys: []KeyConfig{{Secret: "other-key-x"}, {Secret: "new-secret-1"}}}, c)
	stranger := newManager(t, Config{Keys: []KeyConfig{{Secret: "unrelated-key"}}}, c)

	token, err := issuer.GetToken(ctx)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if err := verifier.Authenticate(ctx, token); err != nil {
		t.Errorf("rotated verifier should accept token: %v", err)
	}
	if code := errorCode(stranger.Authenticate(ctx, token)); code != apperrors.ErrCodeInvalidToken {
		t.Errorf("stranger code = %q, want %q", code, apperrors.ErrCodeInvalidToken)
	}
}

func TestManager_Authenticate_Errors(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Now()}
	m := newManager(t, Config{Keys: []KeyConfig{{Secret: "a-shared-secret"}}, TTL: time.Minute}, c)
	token, _ := m.GetToken(ctx)

	tests := []struct {
		name  string
		token string
		setup func()
		want  apperrors.ErrorCode
	}{
		{"empty", "", nil, apperrors.ErrCodeInvalidToken},
		{"garbage", "not.a.token", nil, apperrors.ErrCodeInvalidToken},
		{"expired", token, func() { c.advance(2 * time.Minute) }, apperrors.ErrCodeTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			if code := errorCode(m.Authenticate(ctx, tt.token)); code != tt.want {
				t.Errorf("code = %q, want %q", code, tt.want)
			}
		})
	}
}

func TestManager_WithoutKeysIsProcessLocal(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Now()}
	a := newManager(t, Config{}, c)
	b := newManager(t, Config{}, c)

	token, err := a.GetToken(ctx)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if err := a.Authenticate(ctx, token); err != nil {
		t.Errorf("own token rejected: %v", err)
	}
	if err := b.Authenticate(ctx, token); err == nil {
		t.Error("token from another process-local key should be rejected")
	}
}

func TestNewManager_ShortSecret(t *testing.T) {
	if _, err := NewManager(Config{Keys: []KeyConfig{{Secret: "short"}}}, logger.Nop()); err == nil {
		t.Fatal("expected validation error for short secret")
	}
}

func TestFactory(t *testing.T) {
	reg, err := di.NewRegistry(
		config.StaticFactory(map[string]any{"backend": map[string]any{
			"logging": map[string]any{"output": "discard"},
			"auth":    map[string]any{"keys": []any{map[string]any{"secret": "a-shared-secret"}}},
		}}),
		logging.RootFactory(),
		Factory(),
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ctx := context.Background()

	a := di.MustResolve(ctx, reg, core.TokenManager, "catalog")
	b := di.MustResolve(ctx, reg, core.TokenManager, "search")
	token, err := a.GetToken(ctx)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if err := b.Authenticate(ctx, token); err != nil {
		t.Errorf("plugins should share the token manager: %v", err)
	}
}
