// Package cache is the Result Cache: a Redis-backed, TTL-bounded store of
// already-computed SearchResponses, keyed by normalized query term.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pricewatch/search-service/internal/types"
)

// ErrMiss is returned by Get when no entry exists for the key (or it has
// expired), mirroring redis.Nil so callers don't import go-redis directly.
var ErrMiss = errors.New("cache: miss")

const keyPrefix = "search:"

// Client wraps a redis.Client with the SearchResponse marshal/unmarshal
// and key-namespacing the Search Coordinator needs.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to a Redis-compatible endpoint and verifies it with a
// bounded ping, the same pattern the teacher's repository layer uses for
// every external store it owns.
func New(ctx context.Context, addr string, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("cache: connect to redis at %s: %w", addr, err)
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// NewFromRedisClient wraps an already-constructed *redis.Client, used by
// tests running against miniredis.
func NewFromRedisClient(rdb *redis.Client, ttl time.Duration) *Client {
	return &Client{rdb: rdb, ttl: ttl}
}

func cacheKey(normalizedQuery string) string {
	return keyPrefix + normalizedQuery
}

// Get fetches the cached SearchResponse for a normalized query, returning
// ErrMiss if absent or expired.
func (c *Client) Get(ctx context.Context, normalizedQuery string) (*types.SearchResponse, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(normalizedQuery)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %s: %w", normalizedQuery, err)
	}

	var resp types.SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("cache: unmarshal %s: %w", normalizedQuery, err)
	}
	return &resp, nil
}

// Set stores a SearchResponse under the configured TTL.
func (c *Client) Set(ctx context.Context, normalizedQuery string, resp types.SearchResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", normalizedQuery, err)
	}
	if err := c.rdb.Set(ctx, cacheKey(normalizedQuery), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", normalizedQuery, err)
	}
	return nil
}

// Invalidate removes a query's cached entry so the next read goes to the
// store. The background refresh does not call it: a refreshed query's
// cached entry stays until its TTL expires.
func (c *Client) Invalidate(ctx context.Context, normalizedQuery string) error {
	if err := c.rdb.Del(ctx, cacheKey(normalizedQuery)).Err(); err != nil {
		return fmt.Errorf("cache: invalidate %s: %w", normalizedQuery, err)
	}
	return nil
}

// Ping reports whether the underlying Redis connection is reachable, used
// by the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
