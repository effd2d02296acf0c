package discovery

import (
	"fmt"
	"strings"
)

// EndpointConfig is one entry of discovery.endpoints.
type EndpointConfig struct {
	// Target is either a URL template or a map with "internal" and
	// "external" URL templates.
	Target  any      `mapstructure:"target"`
	Plugins []string `mapstructure:"plugins" validate:"required,min=1,dive,required"`
}

// Config is the discovery configuration section.
type Config struct {
	Endpoints []EndpointConfig `mapstructure:"endpoints" validate:"dive"`
}

// target holds the internal and external URL templates of an endpoint.
type target struct {
	internal string
	external string
}

func parseTarget(raw any) (target, error) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return target{}, fmt.Errorf("discovery: empty endpoint target")
		}
		return target{internal: v, external: v}, nil
	case map[string]any:
		internal, _ := v["internal"].(string)
		external, _ := v["external"].(string)
		if internal == "" && external == "" {
			return target{}, fmt.Errorf("discovery: endpoint target needs internal or external URL")
		}
		if internal == "" {
			internal = external
		}
		if external == "" {
			external = internal
		}
		return target{internal: internal, external: external}, nil
	default:
		return target{}, fmt.Errorf("discovery: unsupported endpoint target type %T", raw)
	}
}

// expand substitutes the plugin ID into a URL template.
func expand(tmpl, pluginID string) string {
	r := strings.NewReplacer("{{pluginId}}", pluginID, "{{ pluginId }}", pluginID)
	return r.Replace(tmpl)
}
