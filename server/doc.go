// Package server provides the backend's HTTP surface: a gin application
// served over HTTP/1.1 and h2c, a root router that mounts handlers at path
// prefixes, per-plugin routers under /api/<pluginId>, and the standard
// middleware stack.
//
// Configuration lives in the backend section:
//
//	backend:
//	  listen:
//	    host: 0.0.0.0
//	    port: 7007
//	  maxBodySize: 10MB
//	  cors:
//	    origin: ["https://app.example.com"]
//	    credentials: true
//
// Plugins register routes through core.HTTPRouter:
//
//	router := di.MustGet(deps, core.HTTPRouter)
//	router.Routes().GET("/entities", listEntities)
//
// Health endpoints are served at /.backend/health/v1/{liveness,readiness,health}.
package server
