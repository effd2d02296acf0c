package database

import (
	"fmt"
	"time"

	"github.com/kbukum/backendkit/validation"
)

// Supported clients.
const (
	ClientSQLite   = "sqlite"
	ClientPostgres = "pg"
)

// MemoryConnection keeps sqlite databases in process memory.
const MemoryConnection = ":memory:"

// Config is the backend.database configuration section.
type Config struct {
	// Client selects the driver: "sqlite" or "pg".
	Client string `mapstructure:"client" validate:"oneof=sqlite pg"`

	// Connection is the postgres DSN, or for sqlite either ":memory:" or a
	// directory that holds one file per plugin.
	Connection string `mapstructure:"connection" validate:"required_if=Client pg"`

	// SchemaPrefix is prepended to the plugin ID to name its postgres schema.
	SchemaPrefix string `mapstructure:"schemaPrefix"`

	// MaxOpenConns sets the maximum number of open connections per pool.
	MaxOpenConns int `mapstructure:"maxOpenConns" validate:"gte=0"`

	// MaxIdleConns sets the maximum number of idle connections per pool.
	MaxIdleConns int `mapstructure:"maxIdleConns" validate:"gte=0"`

	// ConnMaxLifetime is the maximum time a connection may be reused.
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`

	// ConnMaxIdleTime is the maximum time a connection may sit idle.
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"`

	// MaxRetries is the number of connection attempts before giving up.
	MaxRetries int `mapstructure:"maxRetries" validate:"gte=0"`

	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff time.Duration `mapstructure:"retryBackoff"`

	// SlowQueryThreshold is the duration above which queries are logged as slow.
	SlowQueryThreshold time.Duration `mapstructure:"slowQueryThreshold"`

	// LogLevel is the gorm log level: silent, error, warn or info.
	LogLevel string `mapstructure:"logLevel" validate:"omitempty,oneof=silent error warn info"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Client == "" {
		c.Client = ClientSQLite
	}
	if c.Client == ClientSQLite && c.Connection == "" {
		c.Connection = MemoryConnection
	}
	if c.SchemaPrefix == "" {
		c.SchemaPrefix = "plugin_"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	if c.SlowQueryThreshold == 0 {
		c.SlowQueryThreshold = 200 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Validate checks that required fields are present and consistent.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("maxIdleConns (%d) must be <= maxOpenConns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	return nil
}

// InMemory reports whether sqlite databases live in process memory.
func (c *Config) InMemory() bool {
	return c.Client == ClientSQLite && c.Connection == MemoryConnection
}
