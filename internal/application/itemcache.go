package application

import (
	"context"

	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// ItemCache memoizes single-item lookups of one catalog for the session.
// Entries never expire. Not safe for concurrent use.
type ItemCache struct {
	repo  ports.ItemRepository
	items [domain.LayerCount]map[int]domain.Row
}

// NewItemCache creates an empty cache in front of repo
func NewItemCache(repo ports.ItemRepository) *ItemCache {
	c := &ItemCache{repo: repo}
	for i := range c.items {
		c.items[i] = make(map[int]domain.Row)
	}
	return c
}

// GetItem returns the row of (layer, id), loading it at most once.
// Repository errors are returned as-is and nothing is cached.
func (c *ItemCache) GetItem(ctx context.Context, layer domain.Layer, id int) (domain.Row, error) {
	if row, ok := c.items[layer][id]; ok {
		return row, nil
	}

	row, err := c.repo.LoadItem(ctx, layer, id)
	if err != nil {
		return domain.Row{}, err
	}
	c.items[layer][id] = row
	return row, nil
}
