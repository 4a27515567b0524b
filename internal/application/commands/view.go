package commands

import (
	"context"
	"fmt"

	"catalogsync/internal/application"
	"catalogsync/internal/domain"
)

// ViewCommand loads the rows shown below a chain of selected ids
type ViewCommand struct {
	session *application.Session
	// Path selects subject, package, theme and knowledge ids in that order.
	// In manual compare mode the ids belong to the target catalog.
	Path []int
	Mode application.Mode
}

// NewViewCommand creates a new ViewCommand
func NewViewCommand(session *application.Session, path []int, mode application.Mode) *ViewCommand {
	return &ViewCommand{
		session: session,
		Path:    path,
		Mode:    mode,
	}
}

// Validate checks the path before any catalog is queried
func (c *ViewCommand) Validate() error {
	return validatePath(c.Path)
}

// Execute runs the view command
func (c *ViewCommand) Execute(ctx context.Context) (*application.View, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	filter, err := filterAt(c.Path)
	if err != nil {
		return nil, err
	}
	return c.session.GetView(ctx, filter, c.Mode)
}

func validatePath(path []int) error {
	if len(path) >= domain.LayerCount {
		return &application.ValidationError{
			Field:   "path",
			Message: fmt.Sprintf("at most %d ids", domain.LayerCount-1),
		}
	}
	for i, id := range path {
		if id < 0 {
			return &application.ValidationError{
				Field:   "path",
				Message: fmt.Sprintf("invalid %s id %d", domain.Layer(i), id),
			}
		}
	}
	return nil
}

func filterAt(path []int) (*application.Filter, error) {
	filter := application.NewFilter()
	if err := filter.SelectPath(path...); err != nil {
		return nil, err
	}
	return filter, nil
}
