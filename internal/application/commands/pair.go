package commands

import (
	"context"
	"fmt"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
)

// PairCommand pairs a source item with a target item
type PairCommand struct {
	session  *application.Session
	Layer    domain.Layer
	ParentID int
	SourceID int
	TargetID int
}

// NewPairCommand creates a new PairCommand
func NewPairCommand(session *application.Session, layer domain.Layer, sourceID, targetID int) *PairCommand {
	return &PairCommand{
		session:  session,
		Layer:    layer,
		ParentID: domain.NoID,
		SourceID: sourceID,
		TargetID: targetID,
	}
}

// Validate checks if the pair operation is valid
func (c *PairCommand) Validate() error {
	if !c.Layer.Valid() {
		return &application.ValidationError{Field: "layer", Message: fmt.Sprintf("invalid layer %d", c.Layer)}
	}
	if c.SourceID < 0 {
		return &application.ValidationError{Field: "source", Message: "source id is required"}
	}
	if c.TargetID < 0 {
		return &application.ValidationError{Field: "target", Message: "target id is required"}
	}
	return nil
}

// Execute runs the pair command
func (c *PairCommand) Execute(ctx context.Context) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return c.session.SavePair(ctx, c.Layer, c.ParentID, c.SourceID, c.TargetID)
}

// UnpairCommand removes the pair of a source item
type UnpairCommand struct {
	session  *application.Session
	Layer    domain.Layer
	ParentID int
	SourceID int
}

// NewUnpairCommand creates a new UnpairCommand
func NewUnpairCommand(session *application.Session, layer domain.Layer, sourceID int) *UnpairCommand {
	return &UnpairCommand{
		session:  session,
		Layer:    layer,
		ParentID: domain.NoID,
		SourceID: sourceID,
	}
}

// Validate checks if the unpair operation is valid
func (c *UnpairCommand) Validate() error {
	if !c.Layer.Valid() {
		return &application.ValidationError{Field: "layer", Message: fmt.Sprintf("invalid layer %d", c.Layer)}
	}
	if c.SourceID < 0 {
		return &application.ValidationError{Field: "source", Message: "source id is required"}
	}
	return nil
}

// Execute runs the unpair command. Unpaired items are left alone.
func (c *UnpairCommand) Execute(ctx context.Context) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return c.session.DeletePair(ctx, c.Layer, c.ParentID, c.SourceID)
}
