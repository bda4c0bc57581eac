package adapters

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricewatch/search-service/internal/money"
	"github.com/pricewatch/search-service/internal/types"
)

// listingPattern matches a product listing anchor carrying a data-price
// attribute, e.g. <a href="/p/123" data-price="12.99 EUR">Widget</a>.
// Sources that render listings this way need no bespoke adapter at all.
var listingPattern = regexp.MustCompile(`(?is)<a[^>]+href=["']([^"']+)["'][^>]*data-price=["']([^"']+)["'][^>]*>(.*?)</a>`)

var tagStripper = regexp.MustCompile(`<[^>]*>`)

// HTMLScrapeAdapter is a reference SourceAdapter for retail sites whose
// search results page is plain server-rendered HTML rather than a JSON
// API. It fetches one page per query and regex-extracts listing anchors,
// the same href-matching idiom used for discovering downloadable price
// files, turned instead toward discovering individual product listings.
type HTMLScrapeAdapter struct {
	client *fetchClient
	logger zerolog.Logger
}

// NewHTMLScrapeAdapter builds an HTML scrape adapter rate-limited to
// ratePerSecond requests/second against its source. Listings whose price
// text doesn't parse are dropped and logged against logger rather than
// failing the whole page.
func NewHTMLScrapeAdapter(timeout time.Duration, ratePerSecond float64, logger zerolog.Logger) *HTMLScrapeAdapter {
	return &HTMLScrapeAdapter{client: newFetchClient(timeout, ratePerSecond), logger: logger}
}

// Scrape fetches the source's search results page for one query and
// extracts every listing anchor it can find.
func (a *HTMLScrapeAdapter) Scrape(ctx context.Context, query types.SourceQuery) ([]types.ScrapedItem, error) {
	u, err := url.Parse(query.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("htmlscrape %s: invalid base url %q: %w", query.SourceName, query.BaseURL, err)
	}
	q := u.Query()
	q.Set("search", query.Query)
	u.RawQuery = q.Encode()

	body, err := a.client.getBytes(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("htmlscrape %s: %w", query.SourceName, err)
	}

	matches := listingPattern.FindAllStringSubmatch(string(body), -1)
	items := make([]types.ScrapedItem, 0, len(matches))
	for _, m := range matches {
		href, rawPrice, rawName := m[1], m[2], m[3]

		productURL := resolveURL(u, href)
		name := strings.TrimSpace(tagStripper.ReplaceAllString(rawName, ""))

		price, err := money.ParsePrice(rawPrice)
		if err != nil {
			a.logger.Warn().Err(err).Str("source", query.SourceName).Str("raw_price", rawPrice).
				Str("product_name", name).Msg("htmlscrape: dropping item with unparseable price")
			continue
		}

		items = append(items, types.ScrapedItem{
			ProductName: name,
			Price:       price,
			ProductURL:  productURL,
		})
	}
	return items, nil
}

func resolveURL(base *url.URL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
