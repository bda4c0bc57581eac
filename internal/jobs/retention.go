package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pricewatch/search-service/internal/database"
)

// RetentionConfig configures how long stale price history is kept for a
// given query term before being pruned.
type RetentionConfig struct {
	PriceRetentionDays int
}

// DefaultRetentionConfig returns a sensible retention default.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{PriceRetentionDays: 30}
}

// PruneStalePrices removes price rows for a single query term older than
// the configured retention window. It is run after a refresh completes
// rather than on a global ticker, since there's no single table scan that
// makes sense across every distinct query term at once.
func PruneStalePrices(ctx context.Context, queryTerm string, cfg RetentionConfig) error {
	deleted, err := database.PruneOlderThan(ctx, queryTerm, cfg.PriceRetentionDays)
	if err != nil {
		return fmt.Errorf("prune stale prices: %w", err)
	}
	if deleted > 0 {
		slog.Info("pruned stale price history", "query_term", queryTerm, "rows_deleted", deleted)
	}
	return nil
}
