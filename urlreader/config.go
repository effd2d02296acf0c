package urlreader

import (
	"net/url"
	"strings"
	"time"

	"github.com/kbukum/backendkit/resilience"
	"github.com/kbukum/backendkit/security"
	"github.com/kbukum/backendkit/validation"
)

// AllowRule permits reads from one host. Host may carry a port and may
// start with "*." to match any subdomain.
type AllowRule struct {
	Host string `mapstructure:"host" validate:"required"`
	// Paths limits reads to these path prefixes. Empty allows every path.
	Paths []string `mapstructure:"paths"`
}

// Config is the backend.reading configuration section.
type Config struct {
	Allow     []AllowRule   `mapstructure:"allow" validate:"dive"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxSize   int64         `mapstructure:"maxSize" validate:"gte=0"`
	UserAgent string        `mapstructure:"userAgent"`

	TLS security.TLSConfig `mapstructure:"tls"`

	Retry   resilience.RetryConfig   `mapstructure:"retry"`
	Breaker resilience.BreakerConfig `mapstructure:"breaker"`
}

// ApplyDefaults sets defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 10 << 20
	}
	if c.UserAgent == "" {
		c.UserAgent = "backendkit-urlreader"
	}
	c.Retry.ApplyDefaults()
	c.Breaker.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Allowed reports whether u matches an allow rule.
func (c *Config) Allowed(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	for _, rule := range c.Allow {
		if !matchHost(strings.ToLower(rule.Host), host, u.Hostname()) {
			continue
		}
		if len(rule.Paths) == 0 {
			return true
		}
		for _, p := range rule.Paths {
			if strings.HasPrefix(u.Path, p) {
				return true
			}
		}
	}
	return false
}

// matchHost compares pattern against host:port, or against the bare
// hostname when the pattern has no port.
func matchHost(pattern, hostport, hostname string) bool {
	target := strings.ToLower(hostname)
	if strings.Contains(pattern, ":") {
		target = hostport
	}
	if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
		return strings.HasSuffix(target, "."+suffix)
	}
	return pattern == target
}
