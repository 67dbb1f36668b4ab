package catalog

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
)

// MemoryClient is an in-process Client used for tests and catalog-less
// local runs. Items added via AddItem resolve; everything else is a
// not-found.
type MemoryClient struct {
	mu    sync.RWMutex
	items map[int64]Item

	refreshCalls atomic.Int64
}

// NewMemoryClient creates an empty in-memory catalog.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		items: make(map[int64]Item),
	}
}

// AddItem registers an item under its external id. A zero internal id is
// derived from the external id.
func (c *MemoryClient) AddItem(item Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item.ID == "" {
		item.ID = "item-" + strconv.FormatInt(item.ExternalID, 10)
	}
	c.items[item.ExternalID] = item
}

// LookupByExternalID fetches item metadata by numeric catalog id.
func (c *MemoryClient) LookupByExternalID(ctx context.Context, externalID int64) (Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[externalID]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return item, nil
}

// EnsureCached behaves like LookupByExternalID; the in-memory catalog is
// its own cache.
func (c *MemoryClient) EnsureCached(ctx context.Context, externalID int64) (Item, error) {
	return c.LookupByExternalID(ctx, externalID)
}

// RefreshAggregateStats records the call and succeeds.
func (c *MemoryClient) RefreshAggregateStats(ctx context.Context, itemID string) error {
	c.refreshCalls.Add(1)
	return nil
}

// RefreshCalls returns how many aggregate refreshes were requested.
func (c *MemoryClient) RefreshCalls() int64 {
	return c.refreshCalls.Load()
}
