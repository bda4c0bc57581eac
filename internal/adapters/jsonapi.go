package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricewatch/search-service/internal/money"
	"github.com/pricewatch/search-service/internal/types"
)

// jsonItem is the shape a JSONAPIAdapter expects a source's search
// endpoint to return for each offering.
type jsonItem struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	URL      string `json:"url"`
}

// JSONAPIAdapter is a reference SourceAdapter for retail sites that expose
// a plain JSON search endpoint: GET {base_url}?q={query} returning a JSON
// array of jsonItem. Most integrations that speak JSON at all will only
// need configuring this adapter rather than writing a new one.
type JSONAPIAdapter struct {
	client *fetchClient
	logger zerolog.Logger
}

// NewJSONAPIAdapter builds a JSON API adapter rate-limited to
// ratePerSecond requests/second against its source. Items the source
// returns with an unparseable price are dropped and logged against
// logger rather than failing the whole scrape.
func NewJSONAPIAdapter(timeout time.Duration, ratePerSecond float64, logger zerolog.Logger) *JSONAPIAdapter {
	return &JSONAPIAdapter{client: newFetchClient(timeout, ratePerSecond), logger: logger}
}

// Scrape fetches and parses the source's search endpoint for one query.
func (a *JSONAPIAdapter) Scrape(ctx context.Context, query types.SourceQuery) ([]types.ScrapedItem, error) {
	u, err := url.Parse(query.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("jsonapi %s: invalid base url %q: %w", query.SourceName, query.BaseURL, err)
	}
	q := u.Query()
	q.Set("q", query.Query)
	u.RawQuery = q.Encode()

	body, err := a.client.getBytes(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("jsonapi %s: %w", query.SourceName, err)
	}

	var raw []jsonItem
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("jsonapi %s: decode response: %w", query.SourceName, err)
	}

	items := make([]types.ScrapedItem, 0, len(raw))
	for _, it := range raw {
		price, err := money.ParsePrice(it.Price)
		if err != nil {
			a.logger.Warn().Err(err).Str("source", query.SourceName).Str("raw_price", it.Price).
				Str("product_name", it.Name).Msg("jsonapi: dropping item with unparseable price")
			continue
		}
		items = append(items, types.ScrapedItem{
			ProductName: it.Name,
			Price:       price,
			Currency:    it.Currency,
			ProductURL:  it.URL,
		})
	}
	return items, nil
}
