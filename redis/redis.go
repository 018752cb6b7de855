// Package redis provides a Redis client wrapper built on go-redis with
// structured logging. The job layer uses it for queue transport and job
// record storage.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/skillsenselab/audiopipe/logger"
)

// Config holds Redis connection configuration.
type Config struct {
	// Addr is the Redis server address (host:port).
	Addr string `yaml:"addr" mapstructure:"addr"`

	// Password is the Redis server password.
	Password string `yaml:"password" mapstructure:"password"`

	// DB is the Redis database number.
	DB int `yaml:"db" mapstructure:"db"`

	// PoolSize is the maximum number of socket connections.
	PoolSize int `yaml:"pool_size" mapstructure:"pool_size"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
}

// Client wraps a go-redis client with logging.
type Client struct {
	rdb *goredis.Client
	log *logger.Logger
}

// New creates a Redis client with the given configuration.
func New(cfg Config, log *logger.Logger) *Client {
	cfg.ApplyDefaults()

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	l := log.WithComponent("redis")
	l.Info("redis client created", map[string]interface{}{
		"addr": cfg.Addr,
		"db":   cfg.DB,
	})

	return &Client{rdb: rdb, log: l}
}

// NewFromClient wraps an existing go-redis client. Used by tests with
// miniredis-backed clients.
func NewFromClient(rdb *goredis.Client, log *logger.Logger) *Client {
	return &Client{rdb: rdb, log: log.WithComponent("redis")}
}

// Ping verifies the Redis connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Unwrap returns the underlying go-redis client.
func (c *Client) Unwrap() *goredis.Client {
	return c.rdb
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
