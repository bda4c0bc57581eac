// Package types holds the value objects shared across the search and
// refresh pipeline: what an adapter produces, what the store persists,
// and what a client gets back.
package types

import (
	"time"

	"github.com/pricewatch/search-service/internal/money"
)

// JobStatus is the lifecycle state of a ScrapeJob.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// SourceQuery is the input handed to a SourceAdapter for one refresh.
type SourceQuery struct {
	Query      string
	SourceID   int64
	SourceName string
	BaseURL    string
}

// ScrapedItem is one offering an adapter found for a SourceQuery.
type ScrapedItem struct {
	ProductName string
	Price       money.Money
	Currency    string
	ProductURL  string
	Attributes  map[string]string
}

// PriceCreate is a ScrapedItem tagged with the query and source it was
// collected for, ready for UpsertMany.
type PriceCreate struct {
	QueryTerm   string
	SourceID    int64
	ProductName string
	Price       money.Money
	Currency    string
	ProductURL  string
	Attributes  map[string]string
	ScrapedAt   time.Time
}

// PriceRecord is a persisted price observation, optionally eager-loaded
// with its Source.
type PriceRecord struct {
	PriceID     int64
	QueryTerm   string
	SourceID    int64
	Source      *Source
	ProductName string
	Price       money.Money
	Currency    string
	ProductURL  string
	Attributes  map[string]string
	ScrapedAt   time.Time
}

// Source is a registered retail site the coordinator can fan out to.
type Source struct {
	SourceID      int64      `json:"source_id"`
	Name          string     `json:"name"`
	BaseURL       string     `json:"base_url"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	LastScrapedAt *time.Time `json:"last_scraped_at"`
}

// ScrapeJob tracks one refresh's lifecycle, guaranteeing at most one
// active job per query term.
type ScrapeJob struct {
	JobID        int64      `json:"job_id"`
	QueryTerm    string     `json:"query_term"`
	SourceID     *int64     `json:"source_id"`
	Status       JobStatus  `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	ErrorMessage *string    `json:"error_message"`
}

// SearchResultItem is the projection returned to callers and the shape
// stored in the Result Cache. It denormalizes the source name so the
// cache is self-contained.
type SearchResultItem struct {
	SourceName        string      `json:"source_name"`
	SourceProductName string      `json:"source_product_name"`
	Price             money.Money `json:"price"`
	Currency          string      `json:"currency"`
	ProductURL        string      `json:"product_url"`
	ScrapedAt         time.Time   `json:"scraped_at"`
}

// SearchResponse is the Search Coordinator's public contract.
type SearchResponse struct {
	Query     string             `json:"query"`
	Results   []SearchResultItem `json:"results"`
	FromCache bool               `json:"from_cache"`
	Message   *string            `json:"message,omitempty"`
	JobID     *int64             `json:"job_id,omitempty"`
}
