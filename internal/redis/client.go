package redis

import (
	"context"
	"fmt"
	"time"

	"iris-server/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Client wraps a universal Redis client: a single address gives a plain
// client, several addresses give a cluster client.
type Client struct {
	redis.UniversalClient
}

func NewClient(cfg *config.Config) (*Client, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.RedisURLs,
		Password:     cfg.RedisPass,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     200,
		MinIdleConns: 20,
		PoolTimeout:  3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info().Strs("addrs", cfg.RedisURLs).Msg("connected to redis")

	return &Client{client}, nil
}

// IsAvailable checks if Redis is reachable
func (c *Client) IsAvailable(ctx context.Context) bool {
	_, err := c.UniversalClient.Ping(ctx).Result()
	return err == nil
}

// GetClient returns the underlying Redis client for advanced operations
func (c *Client) GetClient() redis.UniversalClient {
	return c.UniversalClient
}
