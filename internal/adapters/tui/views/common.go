package views

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// pageSize is how many rows fit between the header and the help line
func (s *ViewState) pageSize() int {
	const chrome = 12
	if s.Height <= chrome {
		return 10
	}
	return s.Height - chrome
}

// paneWidth is the width of one of the two side-by-side panes
func (s *ViewState) paneWidth() int {
	if s.Width < 40 {
		return 40
	}
	return (s.Width - 8) / 2
}

// Messages for view switching
type (
	SwitchToCompareMsg struct{}
	SwitchToHelpMsg    struct{}
)
