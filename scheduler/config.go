package scheduler

import (
	"time"

	"github.com/kbukum/backendkit/validation"
)

// Config is the backend.scheduler configuration section.
type Config struct {
	// MaxConcurrency caps task runs across all plugins.
	MaxConcurrency int `mapstructure:"maxConcurrency" validate:"gte=0"`

	// DefaultTimeout bounds a run when the task sets no timeout.
	DefaultTimeout time.Duration `mapstructure:"defaultTimeout" validate:"gte=0"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 10
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = time.Minute
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
