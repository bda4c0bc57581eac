package search

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/pricewatch/search-service/internal/adapters"
	"github.com/pricewatch/search-service/internal/cache"
	"github.com/pricewatch/search-service/internal/database"
	"github.com/pricewatch/search-service/internal/metrics"
	"github.com/pricewatch/search-service/internal/resilience"
	"github.com/pricewatch/search-service/internal/types"
)

// storeReadLimit bounds how many rows a single query's Store read pulls
// back; results are already ordered by price ascending, so this is
// effectively "top 200 cheapest offerings".
const storeReadLimit = 200

// Config tunes the Coordinator's refresh/caching policy.
type Config struct {
	StalenessThreshold     time.Duration
	CacheTTL               time.Duration
	RefreshTimeout         time.Duration
	MaxConcurrentRefreshes int64
	PriceRetentionDays     int
}

// DefaultConfig mirrors SPEC's documented defaults.
func DefaultConfig() Config {
	return Config{
		StalenessThreshold:     1 * time.Hour,
		CacheTTL:               1 * time.Hour,
		RefreshTimeout:         2 * time.Minute,
		MaxConcurrentRefreshes: 8,
		PriceRetentionDays:     30,
	}
}

// Coordinator is the Search Coordinator: it answers search requests from
// cache/store and launches background refreshes when what it found looks
// stale or absent.
type Coordinator struct {
	cache     *cache.Client
	adapters  *adapters.Registry
	config    Config
	logger    *zerolog.Logger
	metrics   *metrics.Recorder
	refreshSem *semaphore.Weighted

	cacheBreaker *resilience.CircuitBreaker
	storeBreaker *resilience.CircuitBreaker

	activeRefreshes int32
	wg              sync.WaitGroup
}

// New builds a Coordinator. cacheClient may be nil, in which case the
// Coordinator degrades to store-only reads (every request misses cache).
func New(cacheClient *cache.Client, adapterRegistry *adapters.Registry, cfg Config, logger *zerolog.Logger, rec *metrics.Recorder) *Coordinator {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if rec == nil {
		rec = metrics.NewRecorder()
	}
	sem := cfg.MaxConcurrentRefreshes
	if sem <= 0 {
		sem = 1
	}
	return &Coordinator{
		cache:        cacheClient,
		adapters:     adapterRegistry,
		config:       cfg,
		logger:       logger,
		metrics:      rec,
		refreshSem:   semaphore.NewWeighted(sem),
		cacheBreaker: resilience.New("cache", resilience.DefaultConfig(), logger),
		storeBreaker: resilience.New("store", resilience.DefaultConfig(), logger),
	}
}

// Search is the Coordinator's public contract. query must already be
// length-validated by the HTTP boundary; Search itself only normalizes.
func (c *Coordinator) Search(ctx context.Context, query string, forceRefresh bool) (types.SearchResponse, error) {
	normalized := NormalizeQuery(query)

	resp := types.SearchResponse{Query: query}
	var fromStore bool

	if !forceRefresh && c.cache != nil && c.cacheBreaker.Allow() {
		start := time.Now()
		cached, err := c.cache.Get(ctx, normalized)
		c.metrics.RecordCacheLoad(time.Since(start))
		switch {
		case err == nil:
			c.cacheBreaker.RecordSuccess()
			c.metrics.RecordCacheHit()
			resp.Results = cached.Results
			resp.FromCache = true
		case err == cache.ErrMiss:
			c.cacheBreaker.RecordSuccess()
			c.metrics.RecordCacheMiss()
		default:
			c.cacheBreaker.RecordFailure(err)
			c.logger.Warn().Err(err).Str("query", normalized).Msg("cache unavailable, falling back to store")
		}
		c.metrics.SetCircuitState("cache", int(c.cacheBreaker.State()))
	}

	if !resp.FromCache {
		if !c.storeBreaker.Allow() {
			return types.SearchResponse{}, fmt.Errorf("search: %w", &resilience.ErrOpen{Dependency: "store"})
		}
		start := time.Now()
		records, err := database.GetByQuery(ctx, normalized, nil, storeReadLimit, true)
		c.metrics.RecordStoreQuery(time.Since(start))
		if err != nil {
			c.storeBreaker.RecordFailure(err)
			c.metrics.SetCircuitState("store", int(c.storeBreaker.State()))
			return types.SearchResponse{}, fmt.Errorf("search: store unavailable: %w", err)
		}
		c.storeBreaker.RecordSuccess()
		c.metrics.SetCircuitState("store", int(c.storeBreaker.State()))
		fromStore = true
		resp.Results = projectResults(records)
		resp.FromCache = false

		if len(resp.Results) > 0 && c.cache != nil {
			if err := c.cache.Set(ctx, normalized, types.SearchResponse{Query: query, Results: resp.Results}); err != nil {
				c.logger.Warn().Err(err).Str("query", normalized).Msg("failed to write search results to cache")
			}
		}
	}

	shouldRefresh := forceRefresh || (fromStore && (len(resp.Results) == 0 || c.hasStaleItem(resp.Results)))

	if shouldRefresh {
		jobID, message, err := c.ensureRefresh(ctx, normalized)
		if err != nil {
			c.logger.Error().Err(err).Str("query", normalized).Msg("failed to launch background refresh")
		} else {
			resp.JobID = &jobID
			resp.Message = &message
		}
	}

	resp.FromCache = resp.FromCache && !forceRefresh
	return resp, nil
}

func (c *Coordinator) hasStaleItem(items []types.SearchResultItem) bool {
	cutoff := time.Now().Add(-c.config.StalenessThreshold)
	for _, it := range items {
		if it.ScrapedAt.Before(cutoff) {
			return true
		}
	}
	return false
}

func projectResults(records []types.PriceRecord) []types.SearchResultItem {
	items := make([]types.SearchResultItem, 0, len(records))
	for _, r := range records {
		sourceName := ""
		if r.Source != nil {
			sourceName = r.Source.Name
		}
		items = append(items, types.SearchResultItem{
			SourceName:        sourceName,
			SourceProductName: r.ProductName,
			Price:             r.Price,
			Currency:          r.Currency,
			ProductURL:        r.ProductURL,
			ScrapedAt:         r.ScrapedAt,
		})
	}
	return items
}

// ensureRefresh returns the job id of an in-flight refresh for this query,
// creating a new one (and launching its background work) if none exists.
func (c *Coordinator) ensureRefresh(ctx context.Context, normalizedQuery string) (int64, string, error) {
	active, err := database.FindActive(ctx, normalizedQuery)
	if err != nil {
		return 0, "", fmt.Errorf("check active job: %w", err)
	}
	if active != nil {
		return active.JobID, "a refresh for this query is already in progress", nil
	}

	job, err := database.Create(ctx, normalizedQuery, nil)
	if err != nil {
		if err == database.ErrJobAlreadyActive {
			again, findErr := database.FindActive(ctx, normalizedQuery)
			if findErr == nil && again != nil {
				return again.JobID, "a refresh for this query is already in progress", nil
			}
		}
		return 0, "", fmt.Errorf("create job: %w", err)
	}

	c.launchRefresh(job.JobID, normalizedQuery)
	return job.JobID, "a refresh has been started for this query", nil
}

// launchRefresh submits the background refresh to the coordinator's
// bounded pool. It is detached from the request: it receives its own
// context.Background()-derived timeout rather than the caller's context,
// so the triggering request finishing (or its client disconnecting) does
// not cancel the scrape.
func (c *Coordinator) launchRefresh(jobID int64, normalizedQuery string) {
	c.wg.Add(1)
	depth := atomic.AddInt32(&c.activeRefreshes, 1)
	c.metrics.SetJobQueueDepth(int(depth))

	go func() {
		defer c.wg.Done()
		defer func() {
			depth := atomic.AddInt32(&c.activeRefreshes, -1)
			c.metrics.SetJobQueueDepth(int(depth))
		}()

		if err := c.refreshSem.Acquire(context.Background(), 1); err != nil {
			c.logger.Error().Err(err).Int64("job_id", jobID).Msg("failed to acquire refresh slot")
			return
		}
		defer c.refreshSem.Release(1)

		ctx, cancel := context.WithTimeout(context.Background(), c.config.RefreshTimeout)
		defer cancel()

		c.runRefresh(ctx, jobID, normalizedQuery)
	}()
}

// Wait blocks until every in-flight background refresh has finished,
// used during graceful shutdown.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
