package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/kbukum/backendkit/core"
)

// Reader is read-only access to a Viper configuration tree.
type Reader struct {
	v *viper.Viper
}

var _ core.Config = (*Reader)(nil)

// NewReader creates a reader over values. Nested maps become dotted keys.
func NewReader(values map[string]any) *Reader {
	v := viper.New()
	if len(values) > 0 {
		// MergeConfigMap only fails on unmarshal of a non-map source.
		_ = v.MergeConfigMap(values)
	}
	return &Reader{v: v}
}

// FromViper wraps an existing Viper instance.
func FromViper(v *viper.Viper) *Reader {
	return &Reader{v: v}
}

// Has reports whether key is set.
func (r *Reader) Has(key string) bool { return r.v.IsSet(key) }

// Get returns the raw value at key.
func (r *Reader) Get(key string) any { return r.v.Get(key) }

// GetString returns the value at key as a string.
func (r *Reader) GetString(key string) string { return r.v.GetString(key) }

// GetInt returns the value at key as an int.
func (r *Reader) GetInt(key string) int { return r.v.GetInt(key) }

// GetBool returns the value at key as a bool.
func (r *Reader) GetBool(key string) bool { return r.v.GetBool(key) }

// GetDuration returns the value at key as a duration ("5s", "1m").
func (r *Reader) GetDuration(key string) time.Duration { return r.v.GetDuration(key) }

// GetStringSlice returns the value at key as a string slice.
func (r *Reader) GetStringSlice(key string) []string { return r.v.GetStringSlice(key) }

// UnmarshalKey decodes the subtree at key into out. An empty key decodes
// the whole tree.
func (r *Reader) UnmarshalKey(key string, out any) error {
	var err error
	if key == "" {
		err = r.v.Unmarshal(out)
	} else {
		err = r.v.UnmarshalKey(key, out)
	}
	if err != nil {
		return fmt.Errorf("config: failed to decode %q: %w", key, err)
	}
	return nil
}

// With returns a copy of the reader with values merged on top.
func (r *Reader) With(values map[string]any) *Reader {
	v := viper.New()
	_ = v.MergeConfigMap(r.v.AllSettings())
	_ = v.MergeConfigMap(values)
	return &Reader{v: v}
}

// AllSettings returns the configuration as nested maps.
func (r *Reader) AllSettings() map[string]any { return r.v.AllSettings() }
