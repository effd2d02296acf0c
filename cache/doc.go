// Package cache provides the plugin cache service on top of Redis.
//
// Each plugin gets its own key namespace. The "memory" store runs an
// in-process Redis (miniredis), so development and tests exercise the same
// client code as production:
//
//	backend:
//	  cache:
//	    store: redis
//	    connection: localhost:6379
//	    defaultTtl: 10m
//
// Values are raw bytes; TypedStore adds JSON encoding on top.
package cache
