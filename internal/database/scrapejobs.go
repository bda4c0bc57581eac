package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pricewatch/search-service/internal/types"
)

// ErrJobNotFound is returned when a job lookup finds no matching row.
var ErrJobNotFound = errors.New("database: job not found")

// ErrJobAlreadyActive is returned by Create when a pending or running job
// already exists for the query term; the unique partial index on
// (query_term) WHERE status IN ('pending','running') is what enforces
// this at the database level, so Create treats the resulting constraint
// violation as the authoritative signal rather than racing a prior read.
var ErrJobAlreadyActive = errors.New("database: job already active for query term")

func scanJob(row pgx.Row) (*types.ScrapeJob, error) {
	var j types.ScrapeJob
	err := row.Scan(&j.JobID, &j.QueryTerm, &j.SourceID, &j.Status, &j.CreatedAt, &j.StartedAt, &j.CompletedAt, &j.ErrorMessage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// FindActive returns the pending or running job for a query term, if any.
func FindActive(ctx context.Context, queryTerm string) (*types.ScrapeJob, error) {
	j, err := scanJob(Pool().QueryRow(ctx, `
		SELECT job_id, query_term, source_id, status, created_at, started_at, completed_at, error_message
		FROM scrape_jobs
		WHERE query_term = $1 AND status IN ('pending', 'running')
		ORDER BY created_at DESC
		LIMIT 1
	`, queryTerm))
	if errors.Is(err, ErrJobNotFound) {
		return nil, nil
	}
	return j, err
}

// GetJob fetches a single job by id.
func GetJob(ctx context.Context, jobID int64) (*types.ScrapeJob, error) {
	return scanJob(Pool().QueryRow(ctx, `
		SELECT job_id, query_term, source_id, status, created_at, started_at, completed_at, error_message
		FROM scrape_jobs WHERE job_id = $1
	`, jobID))
}

// Create registers a new pending job for a query term. If a pending or
// running job already exists for this query term, the unique partial
// index rejects the insert and Create returns ErrJobAlreadyActive so the
// caller can fall back to the existing job instead of launching a
// duplicate refresh.
func Create(ctx context.Context, queryTerm string, sourceID *int64) (*types.ScrapeJob, error) {
	j, err := scanJob(Pool().QueryRow(ctx, `
		INSERT INTO scrape_jobs (query_term, source_id, status, created_at)
		VALUES ($1, $2, 'pending', NOW())
		RETURNING job_id, query_term, source_id, status, created_at, started_at, completed_at, error_message
	`, queryTerm, sourceID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrJobAlreadyActive
		}
		return nil, fmt.Errorf("create job: %w", err)
	}
	return j, nil
}

// MarkRunning transitions a pending job to running.
func MarkRunning(ctx context.Context, jobID int64) error {
	tag, err := Pool().Exec(ctx, `
		UPDATE scrape_jobs SET status = 'running', started_at = NOW()
		WHERE job_id = $1 AND status = 'pending'
	`, jobID)
	if err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// MarkCompleted transitions a running job to completed. Like MarkRunning,
// the transition is gated on the job still being in the state this caller
// expects; a job already swept to failed by StaleSweeper is left alone
// instead of being clobbered back to completed by a late-finishing
// refresh goroutine racing the sweep.
func MarkCompleted(ctx context.Context, jobID int64) error {
	tag, err := Pool().Exec(ctx, `
		UPDATE scrape_jobs SET status = 'completed', completed_at = NOW()
		WHERE job_id = $1 AND status = 'running'
	`, jobID)
	if err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// MarkFailed transitions a running job to failed, recording the error.
// Gated on status = 'running' for the same reason as MarkCompleted: once a
// job has left the running state, whether by sweep or by a prior
// completion, it no-ops rather than moving backward.
func MarkFailed(ctx context.Context, jobID int64, errMsg string) error {
	tag, err := Pool().Exec(ctx, `
		UPDATE scrape_jobs SET status = 'failed', completed_at = NOW(), error_message = $2
		WHERE job_id = $1 AND status = 'running'
	`, jobID, errMsg)
	if err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// SweepStale marks pending/running jobs older than maxAge as failed,
// returning the count swept. Called periodically by internal/jobs.
func SweepStale(ctx context.Context, maxAgeSeconds int) (int64, error) {
	tag, err := Pool().Exec(ctx, `
		UPDATE scrape_jobs
		SET status = 'failed', completed_at = NOW(), error_message = 'swept: exceeded max job age'
		WHERE status IN ('pending', 'running')
		AND created_at < NOW() - ($1 || ' seconds')::interval
	`, maxAgeSeconds)
	if err != nil {
		return 0, fmt.Errorf("sweep stale jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}
