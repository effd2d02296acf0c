package cache

import (
	"time"

	"github.com/kbukum/backendkit/validation"
)

// Supported stores.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the backend.cache configuration section.
type Config struct {
	// Store selects the backing store: "memory" or "redis".
	Store string `mapstructure:"store" validate:"oneof=memory redis"`

	// Connection is the Redis server address (host:port).
	Connection string `mapstructure:"connection" validate:"required_if=Store redis"`

	// Password is the Redis server password.
	Password string `mapstructure:"password"`

	// DB is the Redis database number.
	DB int `mapstructure:"db" validate:"gte=0"`

	// DefaultTTL applies when Set is called with a zero TTL. Zero means no
	// expiration.
	DefaultTTL time.Duration `mapstructure:"defaultTtl" validate:"gte=0"`

	// PoolSize is the maximum number of socket connections.
	PoolSize int `mapstructure:"poolSize"`

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int `mapstructure:"minIdleConns"`

	// MaxRetries is the maximum number of retries before giving up.
	MaxRetries int `mapstructure:"maxRetries"`

	DialTimeout  time.Duration `mapstructure:"dialTimeout"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`

	// ConnMaxIdleTime is the maximum time a connection may sit idle.
	ConnMaxIdleTime time.Duration `mapstructure:"idleTimeout"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Store == "" {
		c.Store = StoreMemory
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns <= 0 {
		c.MinIdleConns = 2
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
