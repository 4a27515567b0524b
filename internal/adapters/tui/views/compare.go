package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"catalogsync/internal/adapters/tui/styles"
	"catalogsync/internal/application"
	"catalogsync/internal/domain"
)

// CompareKeyMap defines key bindings for the compare view
type CompareKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Forward  key.Binding
	Back     key.Binding
	Sync     key.Binding
	Manual   key.Binding
	Unpair   key.Binding
	Switch   key.Binding
	Copy     key.Binding
	Reload   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var CompareKeys = CompareKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("pgup", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("pgdn", "page down"),
	),
	Forward: key.NewBinding(
		key.WithKeys("l", "right", "enter"),
		key.WithHelp("l/enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("h", "left", "backspace"),
		key.WithHelp("h", "back"),
	),
	Sync: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "auto-sync"),
	),
	Manual: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "pair manually"),
	),
	Unpair: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "unpair"),
	),
	Switch: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "switch roles"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy ids"),
	),
	Reload: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "reload"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// PickKeyMap defines key bindings while choosing a target row manually
type PickKeyMap struct {
	Pair   key.Binding
	Cancel key.Binding
}

var PickKeys = PickKeyMap{
	Pair: key.NewBinding(
		key.WithKeys("enter", "p"),
		key.WithHelp("enter", "pair"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "m"),
		key.WithHelp("esc", "cancel"),
	),
}

// copyToClipboard is replaced in tests
var copyToClipboard = clipboard.WriteAll

type viewLoadedMsg struct {
	view   *application.View
	crumbs []string
}

type pickLoadedMsg struct {
	view *application.View
}

type proposalMsg struct {
	proposal *application.Proposal
	parentID int
}

type successMsg struct {
	message string
}

type errMsg struct {
	err error
}

// SwitchToProposalMsg asks the app to review a pending proposal
type SwitchToProposalMsg struct {
	Proposal *application.Proposal
	ParentID int
}

// CompareModel shows the source catalog next to the paired target rows.
// While picking, the right pane lists the target catalog under the paired
// parent so a row can be paired by hand.
type CompareModel struct {
	ViewState
	session *application.Session
	source  *application.Filter
	target  *application.Filter
	names   [2]string

	view   *application.View
	pick   *application.View
	crumbs []string
	pager  *Paginator
	// picked is the source row being paired while pick is shown
	picked int
	busy   bool
}

// NewCompareModel creates a compare view over session. sourceName and
// targetName label the panes.
func NewCompareModel(session *application.Session, sourceName, targetName string) *CompareModel {
	return &CompareModel{
		session: session,
		source:  application.NewFilter(),
		target:  application.NewFilter(),
		names:   [2]string{sourceName, targetName},
		pager:   NewPaginator(10),
	}
}

// Init loads the subject list
func (m *CompareModel) Init() tea.Cmd {
	return m.navigate(func(*application.Filter) error { return nil }, nil)
}

// Reload reloads the current layer
func (m *CompareModel) Reload() tea.Cmd {
	return m.navigate(func(*application.Filter) error { return nil }, m.crumbs)
}

// navigate runs move on the source filter and loads the resulting view.
// Only one session call runs at a time; busy blocks keys meanwhile.
func (m *CompareModel) navigate(move func(*application.Filter) error, crumbs []string) tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		view, err := m.session.Navigate(context.Background(), m.source, application.ModeBrowse, move)
		if err != nil {
			return errMsg{err}
		}
		return viewLoadedMsg{view: view, crumbs: crumbs}
	}
}

// openPick positions the target filter under the peers of the selected
// source ancestors and lists the target rows there
func (m *CompareModel) openPick() tea.Cmd {
	m.busy = true
	layer := m.view.Layer
	return func() tea.Msg {
		ctx := context.Background()
		chain := make([]int, 0, int(layer))
		for l := domain.LayerSubject; l < layer; l++ {
			id := m.source.Selected(l)
			peer, err := m.session.Pairs().GetSynchronizedID(ctx, l, id, false)
			if err != nil {
				return errMsg{err}
			}
			if peer == domain.NoID {
				return errMsg{fmt.Errorf("%s %d is not synchronized", l, id)}
			}
			chain = append(chain, peer)
		}
		if err := m.target.SelectPath(chain...); err != nil {
			return errMsg{err}
		}
		view, err := m.session.GetView(ctx, m.target, application.ModeManualCompare)
		if err != nil {
			return errMsg{err}
		}
		return pickLoadedMsg{view: view}
	}
}

func (m *CompareModel) synchronize() tea.Cmd {
	m.busy = true
	return func() tea.Msg {
		proposal, err := m.session.Synchronize(context.Background(), m.source)
		if err != nil {
			return errMsg{err}
		}
		return proposalMsg{proposal: proposal, parentID: m.source.ParentID()}
	}
}

func (m *CompareModel) savePair(layer domain.Layer, sourceID, targetID int) tea.Cmd {
	m.busy = true
	parentID := m.source.ParentID()
	return func() tea.Msg {
		if err := m.session.SavePair(context.Background(), layer, parentID, sourceID, targetID); err != nil {
			return errMsg{err}
		}
		return successMsg{fmt.Sprintf("Paired %s %d with %d", layer, sourceID, targetID)}
	}
}

func (m *CompareModel) deletePair(layer domain.Layer, sourceID int) tea.Cmd {
	m.busy = true
	parentID := m.source.ParentID()
	return func() tea.Msg {
		if err := m.session.DeletePair(context.Background(), layer, parentID, sourceID); err != nil {
			return errMsg{err}
		}
		return successMsg{fmt.Sprintf("Unpaired %s %d", layer, sourceID)}
	}
}

// switchRoles swaps the catalogs and restarts browsing at the subjects of
// the new source
func (m *CompareModel) switchRoles() tea.Cmd {
	m.session.SwitchRoles()
	m.source.Swap(m.target)
	m.names[0], m.names[1] = m.names[1], m.names[0]
	m.view = nil
	m.SetMessage(fmt.Sprintf("Source is now %s", m.names[0]), false)
	return m.navigate(func(f *application.Filter) error {
		return f.SelectPath()
	}, nil)
}

// Update handles messages for the compare view
func (m *CompareModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		m.pager.SetPageSize(m.pageSize())
		return m, nil

	case viewLoadedMsg:
		m.busy = false
		layerChanged := m.view == nil || m.view.Layer != msg.view.Layer
		m.view = msg.view
		m.crumbs = msg.crumbs
		m.pick = nil
		m.pager.SetTotal(len(m.view.Source))
		if layerChanged {
			m.pager.SetCursor(0)
		}
		return m, nil

	case pickLoadedMsg:
		m.busy = false
		m.picked = m.pager.Cursor()
		m.pick = msg.view
		m.pager.SetTotal(len(m.pick.Target))
		m.pager.SetCursor(0)
		return m, nil

	case proposalMsg:
		m.busy = false
		if msg.proposal.Status != application.StatusProposed {
			m.SetMessage(msg.proposal.Status.String(), false)
			return m, m.Reload()
		}
		return m, func() tea.Msg {
			return SwitchToProposalMsg{Proposal: msg.proposal, ParentID: msg.parentID}
		}

	case successMsg:
		m.busy = false
		m.SetMessage(msg.message, false)
		return m, m.Reload()

	case errMsg:
		m.busy = false
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy || m.view == nil {
			return m, nil
		}
		if !key.Matches(msg, CompareKeys.Switch) {
			m.ClearMessage()
		}
		if m.pick != nil {
			return m, m.updatePick(msg)
		}
		return m, m.updateBrowse(msg)
	}

	return m, nil
}

func (m *CompareModel) updateBrowse(msg tea.KeyMsg) tea.Cmd {
	row := m.pager.Cursor()
	switch {
	case key.Matches(msg, CompareKeys.Quit):
		return tea.Quit

	case key.Matches(msg, CompareKeys.Up):
		m.pager.CursorUp()

	case key.Matches(msg, CompareKeys.Down):
		m.pager.CursorDown()

	case key.Matches(msg, CompareKeys.PageUp):
		m.pager.PrevPage()

	case key.Matches(msg, CompareKeys.PageDown):
		m.pager.NextPage()

	case key.Matches(msg, CompareKeys.Forward):
		if m.view.Layer.IsLeaf() || row >= len(m.view.Source) {
			return nil
		}
		crumbs := append(append([]string(nil), m.crumbs...), m.view.Names[row])
		return m.navigate(func(f *application.Filter) error { return f.Forward(row) }, crumbs)

	case key.Matches(msg, CompareKeys.Back):
		if m.view.Layer == domain.LayerSubject {
			return nil
		}
		crumbs := m.crumbs
		if len(crumbs) > 0 {
			crumbs = crumbs[:len(crumbs)-1]
		}
		return m.navigate(func(f *application.Filter) error { return f.Back() }, crumbs)

	case key.Matches(msg, CompareKeys.Sync):
		if m.view.Layer == domain.LayerSubject {
			m.SetMessage("Subjects are paired manually", true)
			return nil
		}
		return m.synchronize()

	case key.Matches(msg, CompareKeys.Manual):
		if m.view.Layer.IsLeaf() {
			m.SetMessage("Use auto-sync to choose a candidate for a knowledge type", true)
			return nil
		}
		if row >= len(m.view.Source) {
			return nil
		}
		return m.openPick()

	case key.Matches(msg, CompareKeys.Unpair):
		if row >= len(m.view.Target) || m.view.Target[row].ID == domain.NoID {
			return nil
		}
		return m.deletePair(m.view.Layer, m.view.Source[row].ID)

	case key.Matches(msg, CompareKeys.Switch):
		return m.switchRoles()

	case key.Matches(msg, CompareKeys.Copy):
		if row >= len(m.view.Source) {
			return nil
		}
		ids := fmt.Sprint(m.view.Source[row].ID)
		if row < len(m.view.Target) && m.view.Target[row].ID != domain.NoID {
			ids += "\t" + fmt.Sprint(m.view.Target[row].ID)
		}
		if err := copyToClipboard(ids); err != nil {
			m.SetMessage(err.Error(), true)
			return nil
		}
		m.SetMessage("Copied "+strings.ReplaceAll(ids, "\t", " / "), false)

	case key.Matches(msg, CompareKeys.Reload):
		return m.Reload()

	case key.Matches(msg, CompareKeys.Help):
		return func() tea.Msg { return SwitchToHelpMsg{} }
	}
	return nil
}

func (m *CompareModel) updatePick(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, PickKeys.Cancel):
		m.pick = nil
		m.pager.SetTotal(len(m.view.Source))
		m.pager.SetCursor(m.picked)

	case key.Matches(msg, PickKeys.Pair):
		row := m.pager.Cursor()
		if row >= len(m.pick.Target) {
			return nil
		}
		if m.pick.Target[row].State == application.RowSynced {
			m.SetMessage("Target item is already paired", true)
			return nil
		}
		return m.savePair(m.view.Layer, m.view.Source[m.picked].ID, m.pick.Target[row].ID)

	case key.Matches(msg, CompareKeys.Up):
		m.pager.CursorUp()

	case key.Matches(msg, CompareKeys.Down):
		m.pager.CursorDown()

	case key.Matches(msg, CompareKeys.PageUp):
		m.pager.PrevPage()

	case key.Matches(msg, CompareKeys.PageDown):
		m.pager.NextPage()
	}
	return nil
}

// View renders the compare view
func (m *CompareModel) View() string {
	if m.view == nil {
		return NewViewBuilder().
			Title("catalogsync", "Loading...").
			Message(m.Message, m.MessageErr).
			String()
	}

	subtitle := m.view.Layer.String()
	if len(m.crumbs) > 0 {
		subtitle = strings.Join(m.crumbs, " › ") + " › " + subtitle
	}

	width := m.paneWidth()
	left := []string{styles.PaneHeader.Render(fit(m.names[0], width))}
	right := []string{styles.PaneHeader.Render(fit(m.names[1], width))}

	start, end := m.pager.VisibleRange()
	if m.pick == nil {
		for i := start; i < end && i < len(m.view.Source); i++ {
			left = append(left, m.renderSource(i, width, i == m.pager.Cursor()))
			if i < len(m.view.Target) {
				tgt := m.view.Target[i]
				right = append(right, rowStyle(tgt.State).Render(fit(rowText(tgt), width)))
			}
		}
	} else {
		left = append(left, m.renderSource(m.picked, width, true))
		for i := start; i < end && i < len(m.pick.Target); i++ {
			tgt := m.pick.Target[i]
			style := rowStyle(tgt.State)
			if i == m.pager.Cursor() {
				style = styles.RowSelected
			}
			right = append(right, style.Render(fit(rowText(tgt), width)))
		}
	}

	b := NewViewBuilder().
		Title("catalogsync", subtitle).
		Raw(columns(left, right, width)).
		Message(m.Message, m.MessageErr)
	if m.pick != nil {
		return b.Help(PickKeys.Pair, PickKeys.Cancel, CompareKeys.Up, CompareKeys.Down).String()
	}
	return b.Help(CompareKeys.Forward, CompareKeys.Back, CompareKeys.Sync, CompareKeys.Manual,
		CompareKeys.Unpair, CompareKeys.Switch, CompareKeys.Help, CompareKeys.Quit).String()
}

func (m *CompareModel) renderSource(i, width int, selected bool) string {
	src := m.view.Source[i]
	style := rowStyle(src.State)
	if selected {
		style = styles.RowSelected
	}
	if src.Ratio == "" {
		return style.Render(fit(rowText(src), width))
	}
	ratio := " " + src.Ratio
	return style.Render(fit(rowText(src), width-len(ratio))) + styles.Ratio.Render(ratio)
}

// rowText is the label of a row: its id and own name
func rowText(r application.ViewRow) string {
	if r.ID == domain.NoID {
		return ""
	}
	name := r.Row.Name()
	if r.Row.Layer.IsLeaf() && len(r.Row.Fields) > 0 {
		name += " · " + r.Row.Fields[len(r.Row.Fields)-1]
	}
	return fmt.Sprintf("%d  %s", r.ID, name)
}
