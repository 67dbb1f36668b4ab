// Package catalog defines the external item-catalog collaborator: metadata
// lookup at session start and aggregate-stat refresh after commits.
package catalog

import "context"

// Item is the catalog's view of a rankable title.
type Item struct {
	ID         string `json:"id"`
	ExternalID int64  `json:"external_id"`
	Title      string `json:"title"`
	Year       int    `json:"year,omitempty"`
	PosterURL  string `json:"poster_url,omitempty"`
}

// Client is the catalog contract the ranking engine depends on.
type Client interface {
	// LookupByExternalID fetches item metadata by the catalog's numeric
	// id. Returns ErrItemNotFound for unknown ids.
	LookupByExternalID(ctx context.Context, externalID int64) (Item, error)

	// EnsureCached resolves an external id to a locally cached item,
	// fetching and caching it on first sight.
	EnsureCached(ctx context.Context, externalID int64) (Item, error)

	// RefreshAggregateStats asks the catalog to recompute cross-user
	// aggregates (average rating, rank counts) for an item. Best effort.
	RefreshAggregateStats(ctx context.Context, itemID string) error
}
