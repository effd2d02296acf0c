// Package config loads backend configuration with Viper.
//
// Configuration comes from, in increasing priority: defaults passed with
// WithDefaults, an app-config.yaml file, a .env file loaded with godotenv, and
// APP_CONFIG_ environment variables. APP_CONFIG_backend_listen_port=7007
// sets backend.listen.port; values are parsed as JSON when possible.
//
// # Usage
//
//	cfg, err := config.Load("catalog")
//	port := cfg.GetInt("backend.listen.port")
//
// Tests build readers from plain maps:
//
//	cfg := config.NewReader(map[string]any{"backend": map[string]any{"baseUrl": "http://localhost:7007"}})
package config
