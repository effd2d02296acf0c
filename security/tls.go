package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/kbukum/backendkit/validation"
)

// TLSConfig holds client TLS settings. The zero value means the system
// defaults.
type TLSConfig struct {
	// SkipVerify disables server certificate verification.
	SkipVerify bool `mapstructure:"skipVerify"`

	// CAFile is a PEM bundle used instead of the system roots.
	CAFile string `mapstructure:"caFile"`

	// CertFile and KeyFile hold the client certificate for mutual TLS.
	CertFile string `mapstructure:"certFile" validate:"required_with=KeyFile"`
	KeyFile  string `mapstructure:"keyFile" validate:"required_with=CertFile"`

	// ServerName overrides the name verified against the certificate.
	ServerName string `mapstructure:"serverName"`

	// MinVersion is "1.2" or "1.3". Defaults to 1.2.
	MinVersion string `mapstructure:"minVersion" validate:"omitempty,oneof=1.2 1.3"`
}

// Validate checks that cert and key are set together.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	return validation.Validate(c)
}

// IsEnabled reports whether any setting differs from the defaults.
func (c *TLSConfig) IsEnabled() bool {
	if c == nil {
		return false
	}
	return c.SkipVerify || c.CAFile != "" || c.CertFile != "" || c.ServerName != "" || c.MinVersion != ""
}

// Build returns the tls.Config, or nil when nothing is configured.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // opt-in
		ServerName:         c.ServerName,
		MinVersion:         tls.VersionTLS12,
	}
	if c.MinVersion == "1.3" {
		cfg.MinVersion = tls.VersionTLS13
	}

	if c.CAFile != "" {
		pem, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("tls: read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("tls: no certificates in %s", c.CAFile)
		}
		cfg.RootCAs = pool
	}

	if c.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("tls: load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
