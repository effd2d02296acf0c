package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/backendkit/logger"
)

// EnvPrefix marks environment variables that override configuration keys.
const EnvPrefix = "APP_CONFIG_"

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver handles finding config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles finds config and env files for a backend.
// Returns explicit paths if provided, otherwise searches for them.
func (cr *Resolver) ResolveFiles(backendName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.first(configSearchPaths(backendName))
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.first(envSearchPaths(backendName))
	}
	return resolved
}

func (cr *Resolver) first(paths []string) string {
	for _, path := range paths {
		if cr.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

func configSearchPaths(backendName string) []string {
	paths := make([]string, 0, 8)
	if backendName != "" {
		paths = append(paths,
			fmt.Sprintf("./cmd/%s/app-config.yaml", backendName),
			fmt.Sprintf("../cmd/%s/app-config.yaml", backendName),
			fmt.Sprintf("./packages/%s/app-config.yaml", backendName),
		)
	}
	return append(paths,
		"./app-config.local.yaml",
		"./app-config.yaml",
		"./config/app-config.yaml",
		"../app-config.yaml",
	)
}

func envSearchPaths(backendName string) []string {
	paths := make([]string, 0, 4)
	if backendName != "" {
		paths = append(paths, fmt.Sprintf("./.env.%s", backendName))
	}
	return append(paths, "./.env", "../.env")
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
	Defaults   map[string]any
	Logger     *logger.Logger
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithDefaults sets values used when nothing else provides a key.
func WithDefaults(values map[string]any) LoaderOption {
	return func(lc *LoaderConfig) { lc.Defaults = values }
}

// WithLogger sets the logger used for load warnings.
func WithLogger(log *logger.Logger) LoaderOption {
	return func(lc *LoaderConfig) { lc.Logger = log }
}

// Load reads the configuration of a backend into a Reader.
func Load(backendName string, opts ...LoaderOption) (*Reader, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}
	if lc.Logger == nil {
		lc.Logger = logger.WithComponent("config")
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(backendName, lc)

	v, err := loadFromResolvedFiles(files, lc)
	if err != nil {
		return nil, err
	}
	return FromViper(v), nil
}

// LoadConfig loads configuration for a backend into the provided cfg struct.
func LoadConfig(backendName string, cfg interface{}, opts ...LoaderOption) error {
	r, err := Load(backendName, opts...)
	if err != nil {
		return err
	}
	if err := r.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for backend %s: %w", backendName, err)
	}
	return nil
}

// loadFromResolvedFiles loads configuration from specific files.
func loadFromResolvedFiles(files ResolvedFiles, lc LoaderConfig) (*viper.Viper, error) {
	v := viper.New()

	// 1. Defaults
	for key, value := range flatten("", lc.Defaults) {
		v.SetDefault(key, value)
	}

	// 2. YAML config (base configuration)
	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", files.ConfigFile, err)
		}
	}

	// 3. .env file, so it can provide APP_CONFIG_ variables
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			lc.Logger.Warn("Failed to load .env file", map[string]interface{}{
				"file":  files.EnvFile,
				"error": err.Error(),
			})
		}
	}

	// 4. Environment overrides
	bindEnvOverrides(v, os.Environ())

	return v, nil
}

// bindEnvOverrides applies APP_CONFIG_ variables as explicit overrides.
func bindEnvOverrides(v *viper.Viper, environ []string) {
	for _, env := range environ {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], EnvPrefix) {
			continue
		}
		key := envKeyToPath(strings.TrimPrefix(pair[0], EnvPrefix))
		if key == "" {
			continue
		}
		v.Set(key, parseEnvValue(pair[1]))
	}
}

// envKeyToPath converts backend_listen_port to backend.listen.port.
func envKeyToPath(envKey string) string {
	parts := strings.Split(envKey, "_")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// parseEnvValue decodes JSON values and falls back to the raw string.
func parseEnvValue(raw string) any {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		return decoded
	}
	return raw
}

// flatten turns nested maps into dotted keys.
func flatten(prefix string, values map[string]any) map[string]any {
	out := make(map[string]any)
	for k, val := range values {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			for nk, nv := range flatten(key, nested) {
				out[nk] = nv
			}
			continue
		}
		out[key] = val
	}
	return out
}
