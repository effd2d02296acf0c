// Package lifecycle provides the root and plugin lifecycle services.
//
// Startup hooks run in registration order once every plugin has
// initialized; the first failure aborts startup. Shutdown hooks run once in
// reverse registration order, and every hook runs even when an earlier one
// fails.
package lifecycle
