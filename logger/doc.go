// Package logger provides structured logging for backendkit using zerolog.
//
// A backend owns one root logger. Plugins receive children of it tagged with
// their plugin ID, and infrastructure code tags its loggers with a component
// name.
//
// # Configuration
//
//	backend:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// When no configuration is present, LOG_LEVEL and LOG_FORMAT are read from
// the environment.
//
// # Usage
//
//	log := logger.NewFromEnv("backend")
//	log.Child(map[string]interface{}{"plugin": "catalog"}).Info("ready")
package logger
