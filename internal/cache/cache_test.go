package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricewatch/search-service/internal/money"
	"github.com/pricewatch/search-service/internal/types"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewFromRedisClient(rdb, time.Minute), mr
}

func TestCacheGetMiss(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.Get(context.Background(), "widget")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCacheSetThenGet(t *testing.T) {
	c, _ := newTestClient(t)
	want := types.SearchResponse{
		Query: "widget",
		Results: []types.SearchResultItem{
			{SourceName: "acme", SourceProductName: "Widget A", Price: money.FromMinorUnits(1299)},
		},
	}

	require.NoError(t, c.Set(context.Background(), "widget", want))

	got, err := c.Get(context.Background(), "widget")
	require.NoError(t, err)
	assert.Equal(t, want.Query, got.Query)
	require.Len(t, got.Results, 1)
	assert.Equal(t, want.Results[0].SourceProductName, got.Results[0].SourceProductName)
	assert.Equal(t, want.Results[0].Price, got.Results[0].Price)
}

func TestCacheInvalidate(t *testing.T) {
	c, _ := newTestClient(t)
	require.NoError(t, c.Set(context.Background(), "widget", types.SearchResponse{Query: "widget"}))

	require.NoError(t, c.Invalidate(context.Background(), "widget"))

	_, err := c.Get(context.Background(), "widget")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCacheExpiry(t *testing.T) {
	c, mr := newTestClient(t)
	require.NoError(t, c.Set(context.Background(), "widget", types.SearchResponse{Query: "widget"}))

	mr.FastForward(2 * time.Minute)

	_, err := c.Get(context.Background(), "widget")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCachePing(t *testing.T) {
	c, _ := newTestClient(t)
	assert.NoError(t, c.Ping(context.Background()))
}
