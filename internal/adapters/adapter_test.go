package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pricewatch/search-service/internal/types"
)

type stubAdapter struct{}

func (stubAdapter) Scrape(ctx context.Context, query types.SourceQuery) ([]types.ScrapedItem, error) {
	return nil, nil
}

func TestRegistryRegisterGetUnregister(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("acme")
	assert.False(t, ok)

	r.Register("acme", stubAdapter{})
	adapter, ok := r.Get("acme")
	assert.True(t, ok)
	assert.NotNil(t, adapter)

	assert.Equal(t, []string{"acme"}, r.List())

	r.Unregister("acme")
	_, ok = r.Get("acme")
	assert.False(t, ok)
}

func TestErrNoAdapterMessage(t *testing.T) {
	err := &ErrNoAdapter{SourceName: "acme"}
	assert.Contains(t, err.Error(), "acme")
}
