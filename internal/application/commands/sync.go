package commands

import (
	"context"
	"fmt"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
)

// NoChoice leaves a leaf proposal unconfirmed
const NoChoice = -1

// SyncResult contains the result of an auto-sync run
type SyncResult struct {
	Proposal *application.Proposal
	// Saved counts the pairs written to the pair store
	Saved     int
	Confirmed bool
}

// SyncCommand proposes matches for the rows below Path and optionally
// confirms them
type SyncCommand struct {
	session *application.Session
	Path    []int
	// Decline lists proposal rows whose tentative match is rejected
	Decline []int
	// Choice picks a candidate of a leaf proposal, NoChoice to skip
	Choice int
	DryRun bool
}

// NewSyncCommand creates a new SyncCommand
func NewSyncCommand(session *application.Session, path []int) *SyncCommand {
	return &SyncCommand{
		session: session,
		Path:    path,
		Choice:  NoChoice,
	}
}

// Validate checks if the sync operation is valid
func (c *SyncCommand) Validate() error {
	if err := validatePath(c.Path); err != nil {
		return err
	}
	if len(c.Path) == 0 {
		return &application.ValidationError{
			Field:   "path",
			Message: "subjects are paired manually; select a subject first",
		}
	}
	leaf := domain.Layer(len(c.Path)).IsLeaf()
	if leaf && len(c.Decline) > 0 {
		return &application.ValidationError{Field: "decline", Message: "a leaf proposal is confirmed with a choice"}
	}
	if !leaf && c.Choice != NoChoice {
		return &application.ValidationError{Field: "choice", Message: "only a leaf proposal takes a choice"}
	}
	return nil
}

// Execute runs the sync command. Whatever is not confirmed is discarded, so
// the session never keeps a pending proposal after it returns.
func (c *SyncCommand) Execute(ctx context.Context) (*SyncResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	filter, err := filterAt(c.Path)
	if err != nil {
		return nil, err
	}

	proposal, err := c.session.Synchronize(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := &SyncResult{Proposal: proposal}
	if proposal.Status != application.StatusProposed || c.DryRun {
		c.session.Discard()
		return result, nil
	}

	if proposal.Layer.IsLeaf() {
		if c.Choice == NoChoice {
			c.session.Discard()
			return result, nil
		}
		if err := c.session.ConfirmManual(ctx, c.Choice); err != nil {
			c.session.Discard()
			return nil, err
		}
		result.Saved, result.Confirmed = 1, true
		return result, nil
	}

	for _, row := range c.Decline {
		if _, err := c.session.Toggle(row); err != nil {
			c.session.Discard()
			return nil, fmt.Errorf("decline row %d: %w", row, err)
		}
	}
	n, err := c.session.ConfirmAuto(ctx, filter.ParentID())
	if err != nil {
		c.session.Discard()
		return nil, err
	}
	result.Saved, result.Confirmed = n, true
	return result, nil
}
