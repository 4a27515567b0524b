package commands

import (
	"context"
	"fmt"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
)

// LookupResult contains the peer of one item
type LookupResult struct {
	Layer  domain.Layer
	ID     int
	PeerID int
	Paired bool
}

// LookupCommand resolves the item paired with ID. With Mirror set, ID is a
// target item and the peer is looked up in the source catalog.
type LookupCommand struct {
	pairs  *application.PairStore
	Layer  domain.Layer
	ID     int
	Mirror bool
}

// NewLookupCommand creates a new LookupCommand
func NewLookupCommand(pairs *application.PairStore, layer domain.Layer, id int, mirror bool) *LookupCommand {
	return &LookupCommand{
		pairs:  pairs,
		Layer:  layer,
		ID:     id,
		Mirror: mirror,
	}
}

// Execute runs the lookup command
func (c *LookupCommand) Execute(ctx context.Context) (*LookupResult, error) {
	if !c.Layer.Valid() {
		return nil, &application.ValidationError{Field: "layer", Message: fmt.Sprintf("invalid layer %d", c.Layer)}
	}
	peer, err := c.pairs.GetSynchronizedID(ctx, c.Layer, c.ID, c.Mirror)
	if err != nil {
		return nil, fmt.Errorf("lookup %s %d: %w", c.Layer, c.ID, err)
	}
	return &LookupResult{
		Layer:  c.Layer,
		ID:     c.ID,
		PeerID: peer,
		Paired: peer != domain.NoID,
	}, nil
}
