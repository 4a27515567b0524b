package views

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"catalogsync/internal/adapters/tui/styles"
	"catalogsync/internal/application"
)

// ProposalKeyMap defines key bindings for reviewing a proposal
type ProposalKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

var ProposalKeys = ProposalKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "x"),
		key.WithHelp("space", "accept/decline"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter", "y"),
		key.WithHelp("enter", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "n"),
		key.WithHelp("esc", "discard"),
	),
}

// ProposalDoneMsg is sent when a proposal was confirmed or discarded
type ProposalDoneMsg struct {
	Message string
}

type confirmedMsg struct {
	saved int
}

// ProposalModel reviews the pending proposal of the session. Bulk proposals
// are toggled row by row and confirmed at once; a leaf proposal is confirmed
// by picking one candidate.
type ProposalModel struct {
	ViewState
	session  *application.Session
	proposal *application.Proposal
	parentID int
	pager    *Paginator
	busy     bool
}

// NewProposalModel creates a review view for proposal. parentID is the
// selected parent of the proposal's layer.
func NewProposalModel(session *application.Session, proposal *application.Proposal, parentID int) *ProposalModel {
	m := &ProposalModel{
		session:  session,
		proposal: proposal,
		parentID: parentID,
		pager:    NewPaginator(10),
	}
	m.pager.SetTotal(len(m.rows()))
	return m
}

// rows are the reviewable entries: the matches of a bulk proposal or the
// candidates of a leaf one
func (m *ProposalModel) rows() []application.Match {
	if m.proposal.Layer.IsLeaf() {
		return m.proposal.Choices
	}
	return m.proposal.Matches
}

// Init initializes the model
func (m *ProposalModel) Init() tea.Cmd {
	return nil
}

func (m *ProposalModel) confirm() tea.Cmd {
	m.busy = true
	leaf := m.proposal.Layer.IsLeaf()
	choice := m.pager.Cursor()
	return func() tea.Msg {
		ctx := context.Background()
		if leaf {
			if err := m.session.ConfirmManual(ctx, choice); err != nil {
				return errMsg{err}
			}
			return confirmedMsg{saved: 1}
		}
		n, err := m.session.ConfirmAuto(ctx, m.parentID)
		if err != nil {
			return errMsg{err}
		}
		return confirmedMsg{saved: n}
	}
}

// Update handles messages for the proposal view
func (m *ProposalModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		m.pager.SetPageSize(m.pageSize())
		return m, nil

	case confirmedMsg:
		m.busy = false
		text := fmt.Sprintf("Saved %d pair(s)", msg.saved)
		return m, func() tea.Msg { return ProposalDoneMsg{Message: text} }

	case errMsg:
		m.busy = false
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		m.ClearMessage()
		switch {
		case key.Matches(msg, ProposalKeys.Cancel):
			m.session.Discard()
			return m, func() tea.Msg { return ProposalDoneMsg{Message: "Proposal discarded"} }

		case key.Matches(msg, ProposalKeys.Confirm):
			if m.proposal.Layer.IsLeaf() && len(m.proposal.Choices) == 0 {
				return m, nil
			}
			return m, m.confirm()

		case key.Matches(msg, ProposalKeys.Toggle):
			if m.proposal.Layer.IsLeaf() {
				return m, nil
			}
			if _, err := m.session.Toggle(m.pager.Cursor()); err != nil {
				m.SetMessage("Only new matches can be declined", true)
			}

		case key.Matches(msg, ProposalKeys.Up):
			m.pager.CursorUp()

		case key.Matches(msg, ProposalKeys.Down):
			m.pager.CursorDown()
		}
	}

	return m, nil
}

// View renders the proposal view
func (m *ProposalModel) View() string {
	p := m.proposal
	b := NewViewBuilder().
		Title("Review "+p.Layer.String(), fmt.Sprintf("%s (%d new)", p.Status, p.NewMatches))

	width := m.paneWidth()
	leaf := p.Layer.IsLeaf()
	rows := m.rows()
	start, end := m.pager.VisibleRange()
	for i := start; i < end && i < len(rows); i++ {
		r := rows[i]
		selected := i == m.pager.Cursor()

		marker, style := "   ", styles.RowNeutral
		switch {
		case leaf:
			marker = "( )"
			if selected {
				marker = "(•)"
			}
			style = styles.RowTentative
		case r.Kind == application.MatchTentative && r.Accepted:
			marker, style = "[x]", styles.RowTentative
		case r.Kind == application.MatchTentative:
			marker, style = "[ ]", styles.RowDeclined
		case r.Kind == application.MatchExisting:
			style = styles.RowSynced
		}
		if selected {
			style = styles.RowSelected
		}

		target := ""
		if r.Kind != application.MatchUnmatched {
			target = fmt.Sprintf("%d  %s", r.TargetID, r.Row.Name())
			if r.Kind == application.MatchTentative {
				target += fmt.Sprintf("  %.3f", r.Score)
			}
		}
		line := fmt.Sprintf("%s %-6d", marker, r.SourceID)
		b.Line(style.Render(fit(line, 12)) + " " + style.Render(fit(target, 2*width-8)))
	}
	if len(rows) == 0 {
		b.Line(styles.MutedText.Render("No candidates."))
	}

	b.Message(m.Message, m.MessageErr)
	if leaf {
		return b.Help(ProposalKeys.Up, ProposalKeys.Down, ProposalKeys.Confirm, ProposalKeys.Cancel).String()
	}
	return b.Help(ProposalKeys.Up, ProposalKeys.Down, ProposalKeys.Toggle, ProposalKeys.Confirm, ProposalKeys.Cancel).String()
}
