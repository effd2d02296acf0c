package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/validation"
)

// DefaultPort matches the server's default listen port.
const DefaultPort = 7007

var _ core.DiscoveryService = (*HostDiscovery)(nil)

// HostDiscovery resolves plugins to this backend unless discovery.endpoints
// routes them elsewhere.
type HostDiscovery struct {
	internalBase string
	externalBase string
	targets      map[string]target
}

// NewHostDiscovery builds a HostDiscovery from backend.listen,
// backend.baseUrl and discovery.endpoints.
func NewHostDiscovery(cfg core.Config) (*HostDiscovery, error) {
	internal := internalBaseURL(cfg)
	external := strings.TrimRight(cfg.GetString("backend.baseUrl"), "/")
	if external == "" {
		external = internal
	}

	d := &HostDiscovery{
		internalBase: internal + "/api",
		externalBase: external + "/api",
		targets:      make(map[string]target),
	}

	var c Config
	if cfg.Has("discovery") {
		if err := cfg.UnmarshalKey("discovery", &c); err != nil {
			return nil, fmt.Errorf("discovery: %w", err)
		}
		if err := validation.Validate(&c); err != nil {
			return nil, err
		}
	}
	for _, ep := range c.Endpoints {
		t, err := parseTarget(ep.Target)
		if err != nil {
			return nil, err
		}
		for _, pluginID := range ep.Plugins {
			d.targets[pluginID] = t
		}
	}
	return d, nil
}

// BaseURL implements core.DiscoveryService.
func (d *HostDiscovery) BaseURL(_ context.Context, pluginID string) (string, error) {
	if t, ok := d.targets[pluginID]; ok {
		return expand(t.internal, pluginID), nil
	}
	return d.internalBase + "/" + pluginID, nil
}

// ExternalBaseURL implements core.DiscoveryService.
func (d *HostDiscovery) ExternalBaseURL(_ context.Context, pluginID string) (string, error) {
	if t, ok := d.targets[pluginID]; ok {
		return expand(t.external, pluginID), nil
	}
	return d.externalBase + "/" + pluginID, nil
}

func internalBaseURL(cfg core.Config) string {
	host := cfg.GetString("backend.listen.host")
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	port := DefaultPort
	if cfg.Has("backend.listen.port") {
		port = cfg.GetInt("backend.listen.port")
	}
	scheme := "http"
	if cfg.GetBool("backend.https") {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(host, strconv.Itoa(port))
}
