package tokens

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/kbukum/backendkit/core"
	apperrors "github.com/kbukum/backendkit/errors"
	"github.com/kbukum/backendkit/logger"
)

const keyInfo = "backendkit server token v1"

var _ core.TokenManagerService = (*Manager)(nil)

// Manager issues and verifies HS256 server tokens. Signing keys are
// derived from the configured secrets with HKDF-SHA256.
type Manager struct {
	signKey    []byte
	verifyKeys [][]byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
	log        *logger.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a manager from cfg. Without keys it generates a random
// one, so tokens are only valid inside this process.
func NewManager(cfg Config, log *logger.Logger, opts ...Option) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tokens config: %w", err)
	}

	m := &Manager{
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
		log:    log.WithComponent("tokens"),
	}
	for _, opt := range opts {
		opt(m)
	}

	secrets := make([][]byte, 0, len(cfg.Keys))
	for _, k := range cfg.Keys {
		secrets = append(secrets, []byte(k.Secret))
	}
	if len(secrets) == 0 {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
		secrets = append(secrets, secret)
		m.log.Warn("No backend.auth.keys configured, using a process-local key")
	}

	for _, s := range secrets {
		key, err := deriveKey(s)
		if err != nil {
			return nil, err
		}
		m.verifyKeys = append(m.verifyKeys, key)
	}
	m.signKey = m.verifyKeys[0]
	return m, nil
}

func deriveKey(secret []byte) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive token key: %w", err)
	}
	return key, nil
}

// GetToken returns a server token. A token is reused until less than a
// quarter of its lifetime remains.
func (m *Manager) GetToken(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.token != "" && now.Add(m.ttl/4).Before(m.expires) {
		return m.token, nil
	}

	expires := now.Add(m.ttl)
	claims := gojwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   DefaultSubject,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(expires),
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(m.signKey)
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("sign token: %w", err))
	}
	m.token, m.expires = signed, expires
	return signed, nil
}

// Authenticate verifies token against every configured key. It returns
// TOKEN_EXPIRED or INVALID_TOKEN app errors.
func (m *Manager) Authenticate(_ context.Context, token string) error {
	if token == "" {
		return apperrors.InvalidToken()
	}

	var lastErr error
	for _, key := range m.verifyKeys {
		_, err := gojwt.ParseWithClaims(token, &gojwt.RegisteredClaims{}, func(*gojwt.Token) (interface{}, error) {
			return key, nil
		}, m.parserOptions()...)
		if err == nil {
			return nil
		}
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return apperrors.TokenExpired().WithCause(err)
		}
		lastErr = err
	}
	return apperrors.InvalidToken().WithCause(lastErr)
}

func (m *Manager) parserOptions() []gojwt.ParserOption {
	return []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithIssuer(m.issuer),
		gojwt.WithSubject(DefaultSubject),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(m.now),
	}
}
