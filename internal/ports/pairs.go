package ports

import (
	"context"
	"errors"

	"catalogsync/internal/domain"
)

// ErrConstraint marks a duplicate-key, foreign-key or unique-constraint failure
// reported by a PairTable. Callers treat it as "already exists".
var ErrConstraint = errors.New("constraint violation")

// HandlePair references two sync handles that form one SyncPair
type HandlePair struct {
	First  int64
	Second int64
}

// PairTable is the durable backing of the pair cache. Layers passed in are
// already collapsed to their pair layer.
type PairTable interface {
	// CatalogID returns the id registered for a catalog name, creating it if absent
	CatalogID(ctx context.Context, name string) (domain.CatalogID, error)

	// FindPeer returns the item paired with (catalog, layer, itemID) in peerCatalog
	FindPeer(ctx context.Context, layer domain.Layer, itemID int, catalog, peerCatalog domain.CatalogID) (int, bool, error)

	// FindHandle returns the sync handle of (catalog, layer, itemID)
	FindHandle(ctx context.Context, catalog domain.CatalogID, layer domain.Layer, itemID int) (int64, bool, error)

	// CreateHandle inserts a sync handle and returns its surrogate key
	CreateHandle(ctx context.Context, catalog domain.CatalogID, layer domain.Layer, itemID int) (int64, error)

	// InsertPair records one SyncPair
	InsertPair(ctx context.Context, pair HandlePair) error

	// InsertPairs records all pairs in one batch and returns how many were new
	InsertPairs(ctx context.Context, pairs []HandlePair) (int, error)

	// DeletePair removes the SyncPair between two handles, in either order
	DeletePair(ctx context.Context, pair HandlePair) error
}
