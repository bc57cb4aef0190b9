package redis

import (
	"context"

	"serial-codegen/internal/config"

	"github.com/go-redis/redis/v8"
)

// Client is a thin wrapper owning the go-redis connection.
type Client struct {
	cli *redis.Client
}

// NewClient dials cfg.URL (host:port) and pings once.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	opts := &redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Client{cli: c}, nil
}

func (c *Client) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *Client) Close() error { return c.cli.Close() }
