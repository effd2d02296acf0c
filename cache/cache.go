package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/backendkit/core"
)

var _ core.CacheService = (*PluginCache)(nil)

// PluginCache is a cache namespaced to one plugin.
type PluginCache struct {
	client     *Client
	namespace  string
	defaultTTL time.Duration
}

// NewPluginCache returns the cache of pluginID on client.
func NewPluginCache(client *Client, pluginID string) *PluginCache {
	return &PluginCache{
		client:     client,
		namespace:  pluginID,
		defaultTTL: client.cfg.DefaultTTL,
	}
}

func (p *PluginCache) key(key string) string {
	return p.namespace + ":" + key
}

// Get implements core.CacheService. A missing key is not an error.
func (p *PluginCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := p.client.rdb.Get(ctx, p.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %q: %w", key, err)
	}
	return data, true, nil
}

// Set implements core.CacheService. A zero ttl uses the default TTL.
func (p *PluginCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = p.defaultTTL
	}
	if err := p.client.rdb.Set(ctx, p.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

// Delete implements core.CacheService.
func (p *PluginCache) Delete(ctx context.Context, key string) error {
	if err := p.client.rdb.Del(ctx, p.key(key)).Err(); err != nil {
		return fmt.Errorf("cache delete %q: %w", key, err)
	}
	return nil
}

// WithOptions implements core.CacheService.
func (p *PluginCache) WithOptions(opts core.CacheOptions) core.CacheService {
	c := *p
	c.defaultTTL = opts.DefaultTTL
	return &c
}
