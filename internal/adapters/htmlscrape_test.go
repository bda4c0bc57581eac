package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricewatch/search-service/internal/types"
)

const listingFixture = `<html><body>
<a href="/p/1" data-price="12.99 EUR">Widget <b>A</b></a>
<a href="https://other.example/p/2" data-price="bad-price">Widget B</a>
<a href="/p/3" data-price="7.50 EUR">Widget C</a>
</body></html>`

func TestHTMLScrapeAdapterScrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "widget", r.URL.Query().Get("search"))
		w.Write([]byte(listingFixture))
	}))
	defer srv.Close()

	adapter := NewHTMLScrapeAdapter(2*time.Second, 100, zerolog.Nop())
	items, err := adapter.Scrape(context.Background(), types.SourceQuery{
		Query:      "widget",
		SourceName: "test-source",
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)
	require.Len(t, items, 2, "the item with an unparsable price should be skipped")

	assert.Equal(t, "Widget A", items[0].ProductName)
	assert.Equal(t, int64(1299), items[0].Price.MinorUnits())
	assert.Equal(t, srv.URL+"/p/1", items[0].ProductURL)

	assert.Equal(t, "Widget C", items[1].ProductName)
	assert.Equal(t, int64(750), items[1].Price.MinorUnits())
}

func TestHTMLScrapeAdapterAbsoluteHref(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="https://other.example/p/9" data-price="3.00 EUR">Gadget</a>`))
	}))
	defer srv.Close()

	adapter := NewHTMLScrapeAdapter(time.Second, 100, zerolog.Nop())
	items, err := adapter.Scrape(context.Background(), types.SourceQuery{
		Query:      "gadget",
		SourceName: "test-source",
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://other.example/p/9", items[0].ProductURL)
}

func TestHTMLScrapeAdapterNoMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>no listings here</body></html>`))
	}))
	defer srv.Close()

	adapter := NewHTMLScrapeAdapter(time.Second, 100, zerolog.Nop())
	items, err := adapter.Scrape(context.Background(), types.SourceQuery{
		Query:      "nothing",
		SourceName: "test-source",
		BaseURL:    srv.URL,
	})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestHTMLScrapeAdapterInvalidBaseURL(t *testing.T) {
	adapter := NewHTMLScrapeAdapter(time.Second, 100, zerolog.Nop())
	_, err := adapter.Scrape(context.Background(), types.SourceQuery{
		Query:      "widget",
		SourceName: "test-source",
		BaseURL:    "://not-a-url",
	})
	assert.Error(t, err)
}
