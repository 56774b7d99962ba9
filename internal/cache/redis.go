// Package cache holds the optional Redis-backed user context cache that
// sits in front of the credential store on the /api/me path.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Timeouts for the cache connection. A slow or unreachable Redis must not
// hold up /api/me: the service treats cache errors as misses and falls back
// to the store, so reads and writes give up quickly.
const (
	clientName   = "authgate"
	dialTimeout  = 2 * time.Second
	ioTimeout    = 250 * time.Millisecond
	poolTimeout  = 500 * time.Millisecond
	poolSize     = 16
	minIdleConns = 2
	maxIdleTime  = 5 * time.Minute
)

// Cache is a connection to the Redis instance backing UserCache.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and verifies the connection.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := clientOptions(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opt.Addr, err)
	}

	return &Cache{client: client}, nil
}

// clientOptions parses redisURL and applies the cache connection limits.
// Timeouts given in the URL are overridden.
func clientOptions(redisURL string) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opt.ClientName = clientName
	opt.DialTimeout = dialTimeout
	opt.ReadTimeout = ioTimeout
	opt.WriteTimeout = ioTimeout
	opt.ContextTimeoutEnabled = true
	opt.PoolSize = poolSize
	opt.MinIdleConns = minIdleConns
	opt.PoolTimeout = poolTimeout
	opt.ConnMaxIdleTime = maxIdleTime
	// Cached contexts are disposable; one failed attempt falls back to the store.
	opt.MaxRetries = -1

	return opt, nil
}

// Ping checks Redis connectivity for /readyz.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client for test setup.
func (c *Cache) Client() *redis.Client {
	return c.client
}
