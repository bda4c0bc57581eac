// Package database owns the durable price store: the Postgres-backed
// connection pool plus the Source and PriceRecord persistence
// operations the Search Coordinator drives.
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pool     *pgxpool.Pool
	poolMu   sync.RWMutex
	poolOnce sync.Once
)

// Connect creates the process-wide connection pool (safe for concurrent use).
func Connect(ctx context.Context, connString string, maxConns, minConns int, maxLifetime, maxIdleTime time.Duration) error {
	var initErr error
	poolOnce.Do(func() {
		cfg, err := pgxpool.ParseConfig(connString)
		if err != nil {
			initErr = fmt.Errorf("error parsing database config: %w", err)
			return
		}

		cfg.MaxConns = int32(maxConns)
		cfg.MinConns = int32(minConns)
		cfg.MaxConnLifetime = maxLifetime
		cfg.MaxConnIdleTime = maxIdleTime
		cfg.HealthCheckPeriod = 1 * time.Minute

		newPool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			initErr = fmt.Errorf("error creating connection pool: %w", err)
			return
		}

		if err := newPool.Ping(ctx); err != nil {
			newPool.Close()
			initErr = fmt.Errorf("error connecting to database: %w", err)
			return
		}

		poolMu.Lock()
		pool = newPool
		poolMu.Unlock()
	})

	if initErr != nil {
		poolOnce = sync.Once{}
		return initErr
	}
	return nil
}

// Close closes the connection pool.
func Close() {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
	poolOnce = sync.Once{}
}

// Pool returns the connection pool.
func Pool() *pgxpool.Pool {
	poolMu.RLock()
	defer poolMu.RUnlock()
	return pool
}

// Status pings the pool; returns an error if unreachable or uninitialized.
func Status(ctx context.Context) error {
	poolMu.RLock()
	p := pool
	poolMu.RUnlock()

	if p == nil {
		return fmt.Errorf("database not initialized")
	}
	return p.Ping(ctx)
}

// Stats returns connection pool statistics.
func Stats() *pgxpool.Stat {
	poolMu.RLock()
	defer poolMu.RUnlock()
	if pool == nil {
		return nil
	}
	return pool.Stat()
}
