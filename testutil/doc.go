// Package testutil starts backends for tests.
//
// A test backend runs every default service (config, logging, lifecycle,
// HTTP routers, cache, database, tokens, permissions, scheduler and URL
// reader) with test-friendly settings: an in-memory cache and sqlite
// database, a mock token manager and an HTTP server on an ephemeral port.
// Overrides replace defaults by service ID:
//
//	tb, err := testutil.StartTestBackend(ctx, testutil.Options{
//	    Services: []testutil.ServiceOverride{
//	        testutil.Factory(testutil.MockConfigFactory(map[string]any{
//	            "backend": map[string]any{"permissions": map[string]any{"enabled": true}},
//	        })),
//	        testutil.Implementation(core.URLReader, fakeReader),
//	    },
//	    Features: []backend.Feature{catalog.Plugin()},
//	})
//
// Discovery resolves every plugin to the test server, so plugins calling
// each other reach the same process.
//
// Started backends are tracked in a Registry. Drain DefaultRegistry after
// the package's tests with Main, or use T(t).StartBackend to stop a backend
// when its test ends.
//
// Importing the package puts gin in test mode.
package testutil
