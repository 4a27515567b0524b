package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"catalogsync/internal/adapters/tui/views"
	"catalogsync/internal/application"
)

// ViewState represents the current view
type ViewState int

const (
	ViewCompare ViewState = iota
	ViewProposal
	ViewHelp
)

// App is the main TUI application model
type App struct {
	session *application.Session

	state    ViewState
	compare  *views.CompareModel
	proposal *views.ProposalModel
	help     *views.HelpModel

	width  int
	height int
}

// NewApp creates a new TUI application over session
func NewApp(session *application.Session, sourceName, targetName string) *App {
	return &App{
		session: session,
		state:   ViewCompare,
		compare: views.NewCompareModel(session, sourceName, targetName),
		help:    views.NewHelpModel(),
	}
}

// State returns the view currently shown
func (a *App) State() ViewState {
	return a.state
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.compare.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.compare.Update(msg)
		a.help.SetSize(msg.Width, msg.Height)
		if a.proposal != nil {
			a.proposal.Update(msg)
		}
		return a, nil

	// View switching messages
	case views.SwitchToProposalMsg:
		a.state = ViewProposal
		a.proposal = views.NewProposalModel(a.session, msg.Proposal, msg.ParentID)
		a.proposal.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		return a, a.proposal.Init()

	case views.ProposalDoneMsg:
		a.state = ViewCompare
		a.proposal = nil
		a.compare.SetMessage(msg.Message, false)
		return a, a.compare.Reload()

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToCompareMsg:
		a.state = ViewCompare
		return a, nil
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewCompare:
		_, cmd = a.compare.Update(msg)
	case ViewProposal:
		_, cmd = a.proposal.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewProposal:
		return a.proposal.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.compare.View()
	}
}
