package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"catalogsync/internal/adapters/tui/styles"
)

// HelpKeyMap defines key bindings for the help view
type HelpKeyMap struct {
	Close key.Binding
}

var HelpKeys = HelpKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "?"),
		key.WithHelp("esc/q/?", "close"),
	),
}

// HelpModel is the model for the help view
type HelpModel struct {
	width  int
	height int
}

// NewHelpModel creates a new help view model
func NewHelpModel() *HelpModel {
	return &HelpModel{}
}

// Init initializes the help view
func (m *HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view
func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, HelpKeys.Close) {
			return m, func() tea.Msg {
				return SwitchToCompareMsg{}
			}
		}
	}

	return m, nil
}

// View renders the help view
func (m *HelpModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("catalogsync Help"))
	b.WriteString("\n\n")

	b.WriteString(styles.Subtitle.Render("Pair items between two catalogs"))
	b.WriteString("\n\n")

	b.WriteString(styles.Section.Render("Navigation"))
	b.WriteString("\n")
	b.WriteString(helpLine("j / k / ↑ / ↓", "Move up/down"))
	b.WriteString(helpLine("pgup / pgdn", "Previous/next page"))
	b.WriteString(helpLine("h / ←", "Go to parent layer"))
	b.WriteString(helpLine("l / → / Enter", "Open selected item"))
	b.WriteString("\n")

	b.WriteString(styles.Section.Render("Pairing"))
	b.WriteString("\n")
	b.WriteString(helpLine("s", "Propose matches for the rows shown"))
	b.WriteString(helpLine("m", "Pick the target of the selected row"))
	b.WriteString(helpLine("d", "Remove the pair of the selected row"))
	b.WriteString(helpLine("r", "Switch source and target catalogs"))
	b.WriteString(helpLine("y", "Copy source/target ids"))
	b.WriteString("\n")

	b.WriteString(styles.Section.Render("Reviewing a proposal"))
	b.WriteString("\n")
	b.WriteString(helpLine("space", "Accept or decline a new match"))
	b.WriteString(helpLine("enter", "Save accepted matches / chosen candidate"))
	b.WriteString(helpLine("esc", "Discard the proposal"))
	b.WriteString("\n")

	b.WriteString(styles.Section.Render("General"))
	b.WriteString("\n")
	b.WriteString(helpLine("ctrl+r", "Reload"))
	b.WriteString(helpLine("?", "Toggle help"))
	b.WriteString(helpLine("q / Ctrl+C", "Quit"))
	b.WriteString("\n\n")

	b.WriteString(styles.Section.Render("Layers"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  Subject › Package › Theme › Knowledge › Knowledge type"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  Ratios show paired/total children of each source row"))
	b.WriteString("\n\n")

	// Close hint
	b.WriteString(styles.HelpDesc.Render("Press "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" or "))
	b.WriteString(styles.HelpKey.Render("?"))
	b.WriteString(styles.HelpDesc.Render(" to close"))

	return styles.App.Render(b.String())
}

func helpLine(key, desc string) string {
	return "  " + styles.HelpKey.Render(padRight(key, 20)) + styles.HelpDesc.Render(desc) + "\n"
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// SetSize updates the view dimensions
func (m *HelpModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}
