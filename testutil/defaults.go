package testutil

import (
	"github.com/kbukum/backendkit/cache"
	"github.com/kbukum/backendkit/database"
	"github.com/kbukum/backendkit/di"
	"github.com/kbukum/backendkit/lifecycle"
	"github.com/kbukum/backendkit/logging"
	"github.com/kbukum/backendkit/permissions"
	"github.com/kbukum/backendkit/scheduler"
	"github.com/kbukum/backendkit/server"
	"github.com/kbukum/backendkit/urlreader"
)

// DefaultServiceFactories returns the factories every test backend starts
// with. Overrides with the same service ID replace them.
func DefaultServiceFactories() []di.ServiceFactory {
	return []di.ServiceFactory{
		cache.Factory(),
		database.Factory(),
		server.HTTPRouterFactory(),
		lifecycle.PluginFactory(),
		logging.PluginFactory(),
		MockConfigFactory(nil),
		MockTokenManagerFactory(),
		permissions.Factory(),
		lifecycle.RootFactory(),
		logging.RootFactory(),
		scheduler.Factory(),
		urlreader.Factory(),
	}
}

// mergeFactories returns user followed by every default whose service ID
// user does not provide.
func mergeFactories(user, defaults []di.ServiceFactory) []di.ServiceFactory {
	provided := make(map[string]struct{}, len(user))
	for _, f := range user {
		provided[f.Service().ID()] = struct{}{}
	}
	merged := make([]di.ServiceFactory, 0, len(user)+len(defaults))
	merged = append(merged, user...)
	for _, f := range defaults {
		if _, ok := provided[f.Service().ID()]; ok {
			continue
		}
		merged = append(merged, f)
	}
	return merged
}
