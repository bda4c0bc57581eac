package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pricewatch/search-service/internal/types"
)

// ErrSourceNotFound is returned when a source lookup finds no matching row.
var ErrSourceNotFound = errors.New("database: source not found")

// ListSources returns every registered source, active or not, ordered by
// name. The Search Coordinator reads it (through ListActiveSources) once
// per background refresh.
func ListSources(ctx context.Context) ([]types.Source, error) {
	rows, err := Pool().Query(ctx, `
		SELECT source_id, name, base_url, active, created_at, last_scraped_at
		FROM sources
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	sources := []types.Source{}
	for rows.Next() {
		var s types.Source
		if err := rows.Scan(&s.SourceID, &s.Name, &s.BaseURL, &s.Active, &s.CreatedAt, &s.LastScrapedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// ListActiveSources returns only sources eligible for fan-out.
func ListActiveSources(ctx context.Context) ([]types.Source, error) {
	all, err := ListSources(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]types.Source, 0, len(all))
	for _, s := range all {
		if s.Active {
			active = append(active, s)
		}
	}
	return active, nil
}

// CreateSource registers a new source administratively.
func CreateSource(ctx context.Context, name, baseURL string) (*types.Source, error) {
	var s types.Source
	err := Pool().QueryRow(ctx, `
		INSERT INTO sources (name, base_url, active, created_at)
		VALUES ($1, $2, true, NOW())
		RETURNING source_id, name, base_url, active, created_at, last_scraped_at
	`, name, baseURL).Scan(&s.SourceID, &s.Name, &s.BaseURL, &s.Active, &s.CreatedAt, &s.LastScrapedAt)
	if err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	return &s, nil
}

// DeactivateSource marks a source inactive; the adapter registry then
// skips it on the next fan-out without losing its historical prices.
func DeactivateSource(ctx context.Context, sourceID int64) error {
	tag, err := Pool().Exec(ctx, `
		UPDATE sources SET active = false WHERE source_id = $1
	`, sourceID)
	if err != nil {
		return fmt.Errorf("deactivate source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSourceNotFound
	}
	return nil
}

// GetSource fetches a single source by id.
func GetSource(ctx context.Context, sourceID int64) (*types.Source, error) {
	var s types.Source
	err := Pool().QueryRow(ctx, `
		SELECT source_id, name, base_url, active, created_at, last_scraped_at
		FROM sources WHERE source_id = $1
	`, sourceID).Scan(&s.SourceID, &s.Name, &s.BaseURL, &s.Active, &s.CreatedAt, &s.LastScrapedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return &s, nil
}

// MarkSourceScraped stamps last_scraped_at. A refresh calls it for every
// active source once its upsert has succeeded, whether or not that
// source's own adapter run succeeded.
func MarkSourceScraped(ctx context.Context, sourceID int64) error {
	_, err := Pool().Exec(ctx, `
		UPDATE sources SET last_scraped_at = NOW() WHERE source_id = $1
	`, sourceID)
	if err != nil {
		return fmt.Errorf("mark source scraped: %w", err)
	}
	return nil
}
