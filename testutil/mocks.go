package testutil

import (
	"context"
	"crypto/subtle"

	"github.com/kbukum/backendkit/cache"
	"github.com/kbukum/backendkit/config"
	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/database"
	"github.com/kbukum/backendkit/di"
	apperrors "github.com/kbukum/backendkit/errors"
)

// MockToken is the token issued and accepted by MockTokenManager.
const MockToken = "mock-token"

// mockConfigDefaults keep test backends quiet and self-contained.
func mockConfigDefaults() map[string]any {
	return map[string]any{
		"backend": map[string]any{
			"name":        "test-backend",
			"environment": "test",
			"logging": map[string]any{
				"level":  "warn",
				"format": "console",
				"output": "discard",
			},
			"database": map[string]any{
				"client":     database.ClientSQLite,
				"connection": database.MemoryConnection,
			},
			"cache": map[string]any{
				"store": cache.StoreMemory,
			},
		},
	}
}

// MockConfig returns the test configuration with values merged on top.
func MockConfig(values map[string]any) *config.Reader {
	r := config.NewReader(mockConfigDefaults())
	if len(values) == 0 {
		return r
	}
	return r.With(values)
}

// MockConfigFactory provides core.RootConfig from MockConfig(values).
func MockConfigFactory(values map[string]any) di.ServiceFactory {
	return di.RootFactory(core.RootConfig, nil, func(context.Context, di.Deps) (core.Config, error) {
		return MockConfig(values), nil
	})
}

// MockTokenManager issues MockToken and accepts nothing else.
type MockTokenManager struct{}

var _ core.TokenManagerService = MockTokenManager{}

// GetToken implements core.TokenManagerService.
func (MockTokenManager) GetToken(context.Context) (string, error) {
	return MockToken, nil
}

// Authenticate implements core.TokenManagerService.
func (MockTokenManager) Authenticate(_ context.Context, token string) error {
	if subtle.ConstantTimeCompare([]byte(token), []byte(MockToken)) != 1 {
		return apperrors.InvalidToken()
	}
	return nil
}

// MockTokenManagerFactory provides core.TokenManager backed by
// MockTokenManager.
func MockTokenManagerFactory() di.ServiceFactory {
	return di.PluginFactory(core.TokenManager, nil, func(context.Context, di.Deps) (core.TokenManagerService, error) {
		return MockTokenManager{}, nil
	})
}
