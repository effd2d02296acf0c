package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/backendkit/component"
	"github.com/kbukum/backendkit/logger"
)

var _ component.HealthChecker = (*Client)(nil)

// Client is the shared Redis connection behind all plugin caches.
type Client struct {
	rdb    *goredis.Client
	mini   *miniredis.Miniredis
	log    *logger.Logger
	cfg    Config
	closed bool
	mu     sync.Mutex
}

// NewClient connects to the configured store. The memory store starts an
// in-process Redis server owned by the client.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cache config: %w", err)
	}

	c := &Client{log: log.WithComponent("cache"), cfg: cfg}
	addr := cfg.Connection
	if cfg.Store == StoreMemory {
		mini, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start in-memory cache: %w", err)
		}
		c.mini = mini
		addr = mini.Addr()
	}

	c.rdb = goredis.NewClient(&goredis.Options{
		Addr:            addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		MaxRetries:      cfg.MaxRetries,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	})

	c.log.Info("Cache client created", map[string]interface{}{
		"store":     cfg.Store,
		"addr":      addr,
		"db":        cfg.DB,
		"pool_size": cfg.PoolSize,
	})
	return c, nil
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	pong, err := c.rdb.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("cache ping failed: %w", err)
	}
	if pong != "PONG" {
		return fmt.Errorf("unexpected cache ping response: %s", pong)
	}
	return nil
}

// Health implements component.HealthChecker.
func (c *Client) Health(ctx context.Context) component.Health {
	if err := c.Ping(ctx); err != nil {
		return component.Health{Name: "cache", Status: component.StatusUnhealthy, Message: err.Error()}
	}
	return component.Health{Name: "cache", Status: component.StatusHealthy}
}

// Close closes the connection and any in-process server. Safe to call more
// than once.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.log.Info("Closing cache connection")
	c.closed = true
	err := c.rdb.Close()
	if c.mini != nil {
		c.mini.Close()
	}
	return err
}

// Unwrap returns the underlying go-redis client for advanced operations.
func (c *Client) Unwrap() *goredis.Client {
	return c.rdb
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.cfg }
