// Package catalog aggregates book search results from external catalog
// providers. Each provider normalizes its own response shape into Result;
// the aggregator fans out, merges, and deduplicates.
package catalog

import "context"

// Result is the normalized shape a provider search returns.
// Exactly the fields a library record needs, regardless of which
// catalog produced it.
type Result struct {
	// ExternalID is the provider's identifier for the work, used as the
	// dedup key during aggregation and library reconciliation.
	ExternalID string `json:"external_id"`

	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	Genre       string `json:"genre,omitempty"`
	PageCount   int    `json:"page_count,omitempty"`
	ISBN        string `json:"isbn,omitempty"`
	Language    string `json:"language,omitempty"`

	// Source names the provider that produced this result.
	Source string `json:"source"`
}

// DedupKey is the identity used when merging results across providers.
func (r *Result) DedupKey() string {
	return r.ExternalID
}

// Provider is one external catalog client.
type Provider interface {
	// Name identifies the provider in logs and Result.Source.
	Name() string

	// Search runs a free-text query against the catalog.
	Search(ctx context.Context, query string) ([]Result, error)
}
