package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pricewatch/search-service/internal/adapters"
	"github.com/pricewatch/search-service/internal/database"
	"github.com/pricewatch/search-service/internal/jobs"
	"github.com/pricewatch/search-service/internal/types"
)

// runRefresh drives one background refresh end to end: mark running, fan
// out to every source's adapter, gather results, upsert, and transition
// the job to its terminal state.
func (c *Coordinator) runRefresh(ctx context.Context, jobID int64, normalizedQuery string) {
	start := time.Now()
	defer func() { c.metrics.RecordRefresh(time.Since(start)) }()

	if err := database.MarkRunning(ctx, jobID); err != nil {
		c.logger.Error().Err(err).Int64("job_id", jobID).Msg("failed to mark job running")
		return
	}

	sources, err := database.ListActiveSources(ctx)
	if err != nil {
		c.failJob(ctx, jobID, fmt.Errorf("list sources: %w", err))
		return
	}

	creates, errSummary := c.fanOut(ctx, normalizedQuery, sources)

	if len(creates) > 0 {
		if _, err := database.UpsertMany(ctx, creates); err != nil {
			c.failJob(ctx, jobID, fmt.Errorf("upsert prices: %w", err))
			return
		}
	}

	for _, s := range sources {
		_ = database.MarkSourceScraped(ctx, s.SourceID)
	}

	if errSummary != "" {
		c.failJob(ctx, jobID, fmt.Errorf("%s", errSummary))
		return
	}

	if err := database.MarkCompleted(ctx, jobID); err != nil {
		c.logger.Warn().Err(err).Int64("job_id", jobID).Msg("job no longer running, skipped marking completed")
	}

	retentionCfg := jobs.RetentionConfig{PriceRetentionDays: c.config.PriceRetentionDays}
	if retentionCfg.PriceRetentionDays <= 0 {
		retentionCfg = jobs.DefaultRetentionConfig()
	}
	if err := jobs.PruneStalePrices(ctx, normalizedQuery, retentionCfg); err != nil {
		c.logger.Warn().Err(err).Str("query", normalizedQuery).Msg("price retention prune failed")
	}
}

func (c *Coordinator) failJob(ctx context.Context, jobID int64, cause error) {
	c.logger.Error().Err(cause).Int64("job_id", jobID).Msg("refresh failed")
	if err := database.MarkFailed(ctx, jobID, cause.Error()); err != nil {
		c.logger.Warn().Err(err).Int64("job_id", jobID).Msg("job no longer running, skipped marking failed")
	}
}

// fanOut launches one adapter invocation per source concurrently, bounded
// by a per-refresh semaphore sized to the source count (a single refresh
// already touches every source at most once, so there's no reason to
// throttle within it beyond that). Every adapter runs to completion;
// panics and errors are captured, never propagated, so one failing site
// never cancels another.
func (c *Coordinator) fanOut(ctx context.Context, normalizedQuery string, sources []types.Source) ([]types.PriceCreate, string) {
	if len(sources) == 0 {
		return nil, ""
	}

	sem := semaphore.NewWeighted(int64(len(sources)))
	var mu sync.Mutex
	var wg sync.WaitGroup

	var creates []types.PriceCreate
	var failures []string

	for _, src := range sources {
		adapter, ok := c.adapters.Get(src.Name)
		if !ok {
			c.logger.Warn().Err(&adapters.ErrNoAdapter{SourceName: src.Name}).Msg("skipping source")
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failures = append(failures, fmt.Sprintf("%s: %v", src.Name, err))
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(src types.Source, adapter adapters.SourceAdapter) {
			defer wg.Done()
			defer sem.Release(1)

			items, outcome, err := c.runAdapter(ctx, src, adapter, normalizedQuery)
			if err != nil {
				mu.Lock()
				failures = append(failures, fmt.Sprintf("%s: %v", src.Name, err))
				mu.Unlock()
				return
			}

			now := time.Now()
			batch := make([]types.PriceCreate, 0, len(items))
			for _, item := range items {
				u, urlErr := url.Parse(item.ProductURL)
				if item.ProductName == "" || urlErr != nil || !u.IsAbs() || item.Price.MinorUnits() < 0 {
					c.logger.Warn().
						Str("source", src.Name).
						Str("product_name", item.ProductName).
						Str("product_url", item.ProductURL).
						Msg("dropping scraped item: missing name, non-absolute url or negative price")
					continue
				}
				currency := item.Currency
				if currency == "" {
					currency = "CLP"
				}
				batch = append(batch, types.PriceCreate{
					QueryTerm:   normalizedQuery,
					SourceID:    src.SourceID,
					ProductName: item.ProductName,
					Price:       item.Price,
					Currency:    currency,
					ProductURL:  item.ProductURL,
					Attributes:  item.Attributes,
					ScrapedAt:   now,
				})
			}

			mu.Lock()
			creates = append(creates, batch...)
			mu.Unlock()
			_ = outcome
		}(src, adapter)
	}

	wg.Wait()
	return creates, strings.Join(failures, "; ")
}

// runAdapter invokes a single adapter with panic recovery, so a buggy or
// misbehaving integration cannot take the whole refresh down with it.
func (c *Coordinator) runAdapter(ctx context.Context, src types.Source, adapter adapters.SourceAdapter, normalizedQuery string) (items []types.ScrapedItem, outcome string, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter panic: %v", r)
			outcome = "panic"
		}
		c.metrics.RecordAdapterRun(src.Name, outcome, time.Since(start))
	}()

	items, err = adapter.Scrape(ctx, types.SourceQuery{
		Query:      normalizedQuery,
		SourceID:   src.SourceID,
		SourceName: src.Name,
		BaseURL:    src.BaseURL,
	})
	if err != nil {
		outcome = "error"
		return nil, outcome, err
	}
	outcome = "success"
	return items, outcome, nil
}
