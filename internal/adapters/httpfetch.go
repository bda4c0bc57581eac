package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// fetchClient is the one-fetch-per-page client every reference adapter
// shares: a bare timeout, no retries. Source adapters see the real world
// as it is - if a page is slow or down, that's a failed scrape for this
// refresh, not a reason to hammer the site again before the next one.
type fetchClient struct {
	http    *http.Client
	limiter *rate.Limiter
}

// newFetchClient builds a client bounded to ratePerSecond requests per
// second per source (burst of 1, so adapters naturally serialize their
// own requests instead of bursting a retailer's site).
func newFetchClient(timeout time.Duration, ratePerSecond float64) *fetchClient {
	if ratePerSecond <= 0 {
		ratePerSecond = 1
	}
	return &fetchClient{
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
	}
}

func (c *fetchClient) getBytes(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("adapters: rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("adapters: build request for %s: %w", url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adapters: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adapters: fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("adapters: read body from %s: %w", url, err)
	}
	return body, nil
}
