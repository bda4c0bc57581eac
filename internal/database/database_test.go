package database

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pricewatch/search-service/internal/money"
	"github.com/pricewatch/search-service/internal/types"
)

// setupTestDB starts a throwaway Postgres container, points the
// package-level pool at it, and runs the minimal schema these tests
// need. Every test using it runs against its own container so tests
// never interfere with one another.
func setupTestDB(t *testing.T) func() {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	cfg, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)

	testPool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err, "failed to create connection pool")

	require.NoError(t, runTestSchema(ctx, testPool))

	poolMu.Lock()
	pool = testPool
	poolMu.Unlock()

	return func() {
		testPool.Close()
		testcontainers.TerminateContainer(container)
	}
}

func runTestSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE sources (
			source_id       BIGSERIAL PRIMARY KEY,
			name            TEXT NOT NULL UNIQUE,
			base_url        TEXT NOT NULL,
			active          BOOLEAN NOT NULL DEFAULT true,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_scraped_at TIMESTAMPTZ
		);

		CREATE TABLE scrape_jobs (
			job_id        BIGSERIAL PRIMARY KEY,
			query_term    TEXT NOT NULL,
			source_id     BIGINT REFERENCES sources(source_id),
			status        TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			started_at    TIMESTAMPTZ,
			completed_at  TIMESTAMPTZ,
			error_message TEXT
		);
		CREATE UNIQUE INDEX scrape_jobs_one_active_per_query
			ON scrape_jobs (query_term)
			WHERE status IN ('pending', 'running');

		CREATE TABLE prices (
			price_id     BIGSERIAL PRIMARY KEY,
			query_term   TEXT NOT NULL,
			source_id    BIGINT NOT NULL REFERENCES sources(source_id),
			product_name TEXT NOT NULL,
			price        BIGINT NOT NULL,
			currency     TEXT NOT NULL,
			product_url  TEXT NOT NULL UNIQUE,
			attributes   JSONB,
			scraped_at   TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

func seedSource(t *testing.T, ctx context.Context, name string) *types.Source {
	t.Helper()
	s, err := CreateSource(ctx, name, "https://"+name+".example/search")
	require.NoError(t, err)
	return s
}

func TestSourcesLifecycle(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	s := seedSource(t, ctx, "acme")
	assert.True(t, s.Active)
	assert.Nil(t, s.LastScrapedAt)

	all, err := ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	active, err := ListActiveSources(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, MarkSourceScraped(ctx, s.SourceID))
	got, err := GetSource(ctx, s.SourceID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastScrapedAt)

	require.NoError(t, DeactivateSource(ctx, s.SourceID))
	active, err = ListActiveSources(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	err = DeactivateSource(ctx, 999999)
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestScrapeJobLifecycleAndActiveGuard(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	job, err := Create(ctx, "widget", nil)
	require.NoError(t, err)
	assert.Equal(t, types.JobPending, job.Status)

	_, err = Create(ctx, "widget", nil)
	assert.ErrorIs(t, err, ErrJobAlreadyActive, "a second active job for the same query term must be rejected")

	active, err := FindActive(ctx, "widget")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, job.JobID, active.JobID)

	require.NoError(t, MarkRunning(ctx, job.JobID))
	require.NoError(t, MarkCompleted(ctx, job.JobID))

	got, err := GetJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, types.JobCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)

	// Once completed, a new job for the same query term is allowed again.
	job2, err := Create(ctx, "widget", nil)
	require.NoError(t, err)
	assert.NotEqual(t, job.JobID, job2.JobID)
}

func TestSweepStaleMarksOldJobsFailed(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	job, err := Create(ctx, "widget", nil)
	require.NoError(t, err)

	_, err = Pool().Exec(ctx, `UPDATE scrape_jobs SET created_at = NOW() - interval '1 hour' WHERE job_id = $1`, job.JobID)
	require.NoError(t, err)

	swept, err := SweepStale(ctx, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	got, err := GetJob(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, types.JobFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
}

func TestPricesUpsertAndQuery(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	src := seedSource(t, ctx, "acme")

	records, err := UpsertMany(ctx, []types.PriceCreate{
		{
			QueryTerm:   "widget",
			SourceID:    src.SourceID,
			ProductName: "Widget A",
			Price:       money.FromMinorUnits(1299),
			Currency:    "EUR",
			ProductURL:  "https://acme.example/p/1",
			ScrapedAt:   time.Now(),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	results, err := GetByQuery(ctx, "widget", nil, 10, true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Widget A", results[0].ProductName)
	require.NotNil(t, results[0].Source)
	assert.Equal(t, "acme", results[0].Source.Name)

	// Re-upserting the same product_url updates in place rather than
	// inserting a duplicate row.
	updated, err := UpsertMany(ctx, []types.PriceCreate{
		{
			QueryTerm:   "widget",
			SourceID:    src.SourceID,
			ProductName: "Widget A (on sale)",
			Price:       money.FromMinorUnits(999),
			Currency:    "EUR",
			ProductURL:  "https://acme.example/p/1",
			ScrapedAt:   time.Now(),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, records[0].PriceID, updated[0].PriceID)

	results, err = GetByQuery(ctx, "widget", nil, 10, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(999), results[0].Price.MinorUnits())
}

func TestPruneOlderThan(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	src := seedSource(t, ctx, "acme")

	_, err := UpsertMany(ctx, []types.PriceCreate{
		{
			QueryTerm:   "widget",
			SourceID:    src.SourceID,
			ProductName: "Stale Widget",
			Price:       money.FromMinorUnits(500),
			Currency:    "EUR",
			ProductURL:  "https://acme.example/p/stale",
			ScrapedAt:   time.Now().AddDate(0, 0, -60),
		},
	})
	require.NoError(t, err)

	deleted, err := PruneOlderThan(ctx, "widget", 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	results, err := GetByQuery(ctx, "widget", nil, 10, false)
	require.NoError(t, err)
	assert.Empty(t, results)
}
