package server

import (
	"time"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/server/middleware"
	"github.com/kbukum/backendkit/validation"
)

// DefaultPort is used when backend.listen.port is not configured.
const DefaultPort = 7007

// ListenConfig is where the server binds. Port 0 picks a free port.
type ListenConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// Config holds HTTP server configuration read from the backend section.
type Config struct {
	Listen       ListenConfig          `mapstructure:"listen"`
	ReadTimeout  time.Duration         `mapstructure:"readTimeout" validate:"gte=0"`
	WriteTimeout time.Duration         `mapstructure:"writeTimeout" validate:"gte=0"`
	IdleTimeout  time.Duration         `mapstructure:"idleTimeout" validate:"gte=0"`
	MaxBodySize  string                `mapstructure:"maxBodySize"`
	CORS         middleware.CORSConfig `mapstructure:"cors"`
}

// ApplyDefaults sets defaults for unset fields. The listen port is left
// alone so that 0 keeps meaning "any free port".
func (c *Config) ApplyDefaults() {
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "10MB"
	}
	c.CORS.ApplyDefaults()
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// ReadConfig reads the server configuration from the backend section of cfg.
func ReadConfig(cfg core.Config) (Config, error) {
	var c Config
	if cfg.Has("backend") {
		if err := cfg.UnmarshalKey("backend", &c); err != nil {
			return c, err
		}
	}
	if !cfg.Has("backend.listen.port") {
		c.Listen.Port = DefaultPort
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}
