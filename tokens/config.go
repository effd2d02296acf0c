package tokens

import (
	"time"

	"github.com/kbukum/backendkit/validation"
)

// Defaults for server-to-server tokens.
const (
	DefaultIssuer  = "backendkit"
	DefaultSubject = "backend-server"
	DefaultTTL     = time.Hour
)

// KeyConfig is one shared secret. Every backend that talks to another
// must share at least one key.
type KeyConfig struct {
	Secret string `mapstructure:"secret" validate:"required,min=8"`
}

// Config is the backend.auth configuration section.
type Config struct {
	// Keys verify incoming tokens. The first key also signs outgoing ones,
	// so keys can be rotated by prepending a new one.
	Keys []KeyConfig `mapstructure:"keys" validate:"dive"`

	// Issuer is the "iss" claim of issued tokens.
	Issuer string `mapstructure:"issuer"`

	// TTL is the lifetime of issued tokens.
	TTL time.Duration `mapstructure:"tokenTtl" validate:"gte=0"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Issuer == "" {
		c.Issuer = DefaultIssuer
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
}

// Validate checks the keys.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
