package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetResetToken stores a password-reset token mapped to the user ID with TTL.
// Replaces any previous outstanding token for that key.
func (c *Client) SetResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("reset:%s", token), userID, ttl).Err()
}

// ConsumeResetToken atomically fetches and deletes a reset token, enforcing
// single use. Returns the user ID, or "" when the token is unknown, expired,
// or already consumed.
func (c *Client) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	userID, err := c.rdb.GetDel(ctx, fmt.Sprintf("reset:%s", token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume reset token: %w", err)
	}
	return userID, nil
}

// AllowResetRequest rate-limits reset requests per email: at most max
// requests within window. Returns false once the budget is spent.
func (c *Client) AllowResetRequest(ctx context.Context, email string, max int64, window time.Duration) (bool, error) {
	key := fmt.Sprintf("reset-req:%s", email)

	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count reset requests: %w", err)
	}
	if count == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= max, nil
}
