package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kbukum/backendkit/core"
)

// TypedStore provides typed JSON get/set operations on a cache.
type TypedStore[T any] struct {
	cache     core.CacheService
	keyPrefix string
}

// NewTypedStore creates a TypedStore on cache. Keys are prefixed with
// keyPrefix followed by a colon.
func NewTypedStore[T any](cache core.CacheService, keyPrefix string) *TypedStore[T] {
	return &TypedStore[T]{cache: cache, keyPrefix: keyPrefix}
}

func (s *TypedStore[T]) fullKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Load decodes the value at key. It returns (nil, nil) when the key does not
// exist.
func (s *TypedStore[T]) Load(ctx context.Context, key string) (*T, error) {
	raw, ok, err := s.cache.Get(ctx, s.fullKey(key))
	if err != nil || !ok {
		return nil, err
	}

	var val T
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, fmt.Errorf("typed store unmarshal %q: %w", key, err)
	}
	return &val, nil
}

// Save encodes val as JSON and stores it. A zero ttl uses the cache default.
func (s *TypedStore[T]) Save(ctx context.Context, key string, val *T, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("typed store marshal %q: %w", key, err)
	}
	return s.cache.Set(ctx, s.fullKey(key), data, ttl)
}

// Delete removes the key.
func (s *TypedStore[T]) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, s.fullKey(key))
}
