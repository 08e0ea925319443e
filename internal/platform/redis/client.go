package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"bridges/internal/platform/config"
)

// Client is a connected go-redis client plus the key namespace every
// bridges store writes under, so several deployments can share one server.
type Client struct {
	*redis.Client
	Namespace string
}

// New connects and pings. A blank URL means Redis is not configured and
// returns a nil client.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	c := &Client{Client: redis.NewClient(opts), Namespace: cfg.Namespace}
	if err := c.Health(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis unreachable at %s: %w", opts.Addr, err)
	}
	return c, nil
}

// Health backs the /health check.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
