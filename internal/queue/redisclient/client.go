package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/geocoder89/quickhire/internal/ratelimit"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	redisdb *redis.Client
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

func New(cfg Config) *Client {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Client{redisdb: redisdb}
}

// Connect builds a client and fails fast when redis is unreachable.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	c := New(cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := c.Ping(pingCtx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return c, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.redisdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.redisdb.Close()
}

// ApplyLimiter returns the shared sliding-window limiter for applications.
func (c *Client) ApplyLimiter(limit int, window time.Duration) *ratelimit.RedisSlidingWindow {
	return ratelimit.NewRedisSlidingWindow(c.redisdb, limit, window)
}

func (c *Client) Raw() *redis.Client {
	return c.redisdb
}
