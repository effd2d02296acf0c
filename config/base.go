package config

import (
	"fmt"

	"github.com/kbukum/backendkit/logger"
	"github.com/kbukum/backendkit/validation"
)

// BackendConfig is the "backend" section every backend needs.
type BackendConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment" validate:"oneof=development test staging production"`
	BaseURL     string        `yaml:"baseUrl" mapstructure:"baseUrl" validate:"omitempty,url"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults applies default values to the backend configuration.
func (c *BackendConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "backend"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the backend configuration.
func (c *BackendConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return fmt.Errorf("backend config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("backend.logging: %w", err)
	}
	return nil
}

// ReadBackendConfig decodes, defaults and validates the backend section.
func ReadBackendConfig(r interface {
	UnmarshalKey(key string, out any) error
}) (*BackendConfig, error) {
	var cfg BackendConfig
	if err := r.UnmarshalKey("backend", &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
