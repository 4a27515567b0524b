package ports

import (
	"context"

	"catalogsync/internal/domain"
)

// ItemRepository provides read access to one catalog.
// Soft-deleted and import-marker records are filtered out by implementations.
type ItemRepository interface {
	// LoadItems returns the rows of layer under parentID, in display order.
	// Subject ignores parentID. SpecificKnowledge takes the knowledge id as parent.
	LoadItems(ctx context.Context, layer domain.Layer, parentID int) ([]domain.ItemRecord, error)

	// LoadItem returns one row. A missing item yields an empty row and no error.
	LoadItem(ctx context.Context, layer domain.Layer, id int) (domain.Row, error)

	// CountChildren returns how many visible children the item has one layer down
	CountChildren(ctx context.Context, layer domain.Layer, id int) (int, error)
}
