package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jordanlanch/realtycrm/pkg/logger"
)

// Client holds the Redis client
type Client struct {
	Redis *redis.Client
	log   logger.Logger
}

// NewClient creates a new Redis client and verifies the connection
func NewClient(redisURL string, log logger.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}

	log = logger.OrDefault(log)
	log.Info("redis connected", "addr", opts.Addr)

	return &Client{Redis: client, log: log}, nil
}

// NewFromRedis wraps an existing go-redis client
func NewFromRedis(rdb *redis.Client, log logger.Logger) *Client {
	return &Client{Redis: rdb, log: logger.OrDefault(log)}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.Redis.Close()
}

// Ping checks if Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.Redis.Ping(ctx).Err()
}

// Get gets a value by key. A missing key returns redis.Nil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.Redis.Get(ctx, key).Result()
}

// DeletePattern deletes all keys matching a pattern and returns how many were removed.
// Uses SCAN rather than KEYS so large keyspaces don't block the server.
func (c *Client) DeletePattern(ctx context.Context, pattern string) (int, error) {
	var cursor uint64
	var deleted int

	for {
		var keys []string
		var err error
		keys, cursor, err = c.Redis.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			if err := c.Redis.Del(ctx, keys...).Err(); err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += len(keys)
		}

		if cursor == 0 {
			break
		}
	}

	c.log.Debug("deleted cache keys", "pattern", pattern, "count", deleted)
	return deleted, nil
}

// setIfGeneration writes KEYS[2] only while KEYS[1] still holds ARGV[1].
// A missing counter reads as generation 0.
var setIfGeneration = redis.NewScript(`
if (redis.call("GET", KEYS[1]) or "0") ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// Generation reads a counter bumped by BumpGeneration. A missing counter is 0.
func (c *Client) Generation(ctx context.Context, key string) (int64, error) {
	n, err := c.Redis.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// BumpGeneration increments a generation counter and returns the new value
func (c *Client) BumpGeneration(ctx context.Context, key string) (int64, error) {
	return c.Redis.Incr(ctx, key).Result()
}

// SetIfGeneration stores value under key with expiration, but only while the
// counter at genKey still equals gen. It reports whether the value was stored.
func (c *Client) SetIfGeneration(ctx context.Context, genKey string, gen int64, key string, value any, expiration time.Duration) (bool, error) {
	ms := expiration.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	stored, err := setIfGeneration.Run(ctx, c.Redis, []string{genKey, key}, strconv.FormatInt(gen, 10), value, ms).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}
