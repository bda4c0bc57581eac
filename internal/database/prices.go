package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pricewatch/search-service/internal/money"
	"github.com/pricewatch/search-service/internal/types"
)

// GetByQuery returns PriceRecords for a query term, optionally filtered
// to scraped_at >= since, ordered by price ascending. When includeSource
// is set the Source is eager-loaded via a single JOIN.
func GetByQuery(ctx context.Context, queryTerm string, since *time.Time, limit int, includeSource bool) ([]types.PriceRecord, error) {
	args := []interface{}{queryTerm}
	where := "p.query_term = $1"
	if since != nil {
		args = append(args, *since)
		where += fmt.Sprintf(" AND p.scraped_at >= $%d", len(args))
	}
	args = append(args, limit)
	limitClause := fmt.Sprintf("$%d", len(args))

	selectCols := `p.price_id, p.query_term, p.source_id, p.product_name, p.price,
		p.currency, p.product_url, p.attributes, p.scraped_at`
	from := "FROM prices p"
	if includeSource {
		selectCols += `, s.source_id, s.name, s.base_url, s.active, s.created_at, s.last_scraped_at`
		from += " JOIN sources s ON s.source_id = p.source_id"
	}

	query := fmt.Sprintf(`
		SELECT %s
		%s
		WHERE %s
		ORDER BY p.price ASC
		LIMIT %s
	`, selectCols, from, where, limitClause)

	rows, err := Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get prices by query: %w", err)
	}
	defer rows.Close()

	records := []types.PriceRecord{}
	for rows.Next() {
		var (
			r         types.PriceRecord
			priceUnit int64
			attrsJSON []byte
		)
		scanArgs := []interface{}{
			&r.PriceID, &r.QueryTerm, &r.SourceID, &r.ProductName, &priceUnit,
			&r.Currency, &r.ProductURL, &attrsJSON, &r.ScrapedAt,
		}
		var src types.Source
		if includeSource {
			scanArgs = append(scanArgs, &src.SourceID, &src.Name, &src.BaseURL, &src.Active, &src.CreatedAt, &src.LastScrapedAt)
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("scan price record: %w", err)
		}
		r.Price = money.FromMinorUnits(priceUnit)
		if len(attrsJSON) > 0 {
			if err := json.Unmarshal(attrsJSON, &r.Attributes); err != nil {
				return nil, fmt.Errorf("unmarshal price attributes: %w", err)
			}
		}
		if includeSource {
			r.Source = &src
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// UpsertMany inserts or updates, in a single transaction, every item by
// its product_url. A mid-batch failure leaves the store in its
// pre-batch state.
func UpsertMany(ctx context.Context, items []types.PriceCreate) ([]types.PriceRecord, error) {
	if len(items) == 0 {
		return nil, nil
	}

	tx, err := Pool().Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin upsert transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	results := make([]types.PriceRecord, 0, len(items))
	for _, item := range items {
		attrsJSON, err := json.Marshal(item.Attributes)
		if err != nil {
			return nil, fmt.Errorf("marshal attributes for %s: %w", item.ProductURL, err)
		}

		var (
			r         types.PriceRecord
			priceUnit int64
		)
		err = tx.QueryRow(ctx, `
			INSERT INTO prices (query_term, source_id, product_name, price, currency, product_url, attributes, scraped_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (product_url) DO UPDATE SET
				product_name = EXCLUDED.product_name,
				price        = EXCLUDED.price,
				currency     = EXCLUDED.currency,
				attributes   = EXCLUDED.attributes,
				scraped_at   = EXCLUDED.scraped_at,
				query_term   = EXCLUDED.query_term,
				source_id    = EXCLUDED.source_id
			RETURNING price_id, query_term, source_id, product_name, price, currency, product_url, attributes, scraped_at
		`, item.QueryTerm, item.SourceID, item.ProductName, item.Price.MinorUnits(), item.Currency, item.ProductURL, attrsJSON, item.ScrapedAt).
			Scan(&r.PriceID, &r.QueryTerm, &r.SourceID, &r.ProductName, &priceUnit, &r.Currency, &r.ProductURL, &attrsJSON, &r.ScrapedAt)
		if err != nil {
			return nil, fmt.Errorf("upsert %s: %w", item.ProductURL, err)
		}
		r.Price = money.FromMinorUnits(priceUnit)
		if len(attrsJSON) > 0 {
			_ = json.Unmarshal(attrsJSON, &r.Attributes)
		}
		results = append(results, r)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit upsert transaction: %w", err)
	}
	return results, nil
}

// PruneOlderThan deletes records for a query term older than the given
// number of days, returning the count deleted.
func PruneOlderThan(ctx context.Context, queryTerm string, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	tag, err := Pool().Exec(ctx, `
		DELETE FROM prices WHERE query_term = $1 AND scraped_at < $2
	`, queryTerm, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune old prices: %w", err)
	}
	return tag.RowsAffected(), nil
}
