package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pricewatch/search-service/internal/money"
	"github.com/pricewatch/search-service/internal/types"
)

func newTestCoordinator(staleness time.Duration) *Coordinator {
	cfg := DefaultConfig()
	cfg.StalenessThreshold = staleness
	return New(nil, nil, cfg, nil, nil)
}

func TestHasStaleItemDetectsOldScrape(t *testing.T) {
	c := newTestCoordinator(time.Hour)

	items := []types.SearchResultItem{
		{SourceProductName: "fresh", Price: money.FromMinorUnits(100), ScrapedAt: time.Now()},
		{SourceProductName: "stale", Price: money.FromMinorUnits(200), ScrapedAt: time.Now().Add(-2 * time.Hour)},
	}

	assert.True(t, c.hasStaleItem(items))
}

func TestHasStaleItemAllFresh(t *testing.T) {
	c := newTestCoordinator(time.Hour)

	items := []types.SearchResultItem{
		{SourceProductName: "fresh-a", Price: money.FromMinorUnits(100), ScrapedAt: time.Now()},
		{SourceProductName: "fresh-b", Price: money.FromMinorUnits(200), ScrapedAt: time.Now().Add(-5 * time.Minute)},
	}

	assert.False(t, c.hasStaleItem(items))
}

func TestHasStaleItemEmptyResults(t *testing.T) {
	c := newTestCoordinator(time.Hour)
	assert.False(t, c.hasStaleItem(nil))
}

func TestProjectResultsDenormalizesSourceName(t *testing.T) {
	records := []types.PriceRecord{
		{
			ProductName: "Widget A",
			Price:       money.FromMinorUnits(999),
			Currency:    "EUR",
			ProductURL:  "https://acme.example/p/1",
			ScrapedAt:   time.Now(),
			Source:      &types.Source{Name: "acme"},
		},
		{
			ProductName: "Widget B",
			Price:       money.FromMinorUnits(1299),
			Currency:    "EUR",
			ProductURL:  "https://other.example/p/2",
			ScrapedAt:   time.Now(),
			Source:      nil,
		},
	}

	items := projectResults(records)
	assert.Equal(t, "acme", items[0].SourceName)
	assert.Equal(t, "Widget A", items[0].SourceProductName)
	assert.Equal(t, "", items[1].SourceName, "a record with no eager-loaded source projects to an empty source name")
}
