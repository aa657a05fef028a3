package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/theme"
	"github.com/nhle/planner/internal/ui/command"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay: one block per key section followed by
// the palette commands.
func (m Model) View() string {
	blocks := []string{theme.TitleStyle.Render("Keyboard Shortcuts")}
	for _, sec := range m.keys.Sections() {
		blocks = append(blocks, renderSection(sec))
	}

	cmds := []string{theme.TitleStyle.MarginTop(1).Render("Commands (:)")}
	for _, e := range command.Entries {
		name := e.Name
		if len(e.Aliases) > 0 {
			name += " (" + strings.Join(e.Aliases, ", ") + ")"
		}
		cmds = append(cmds, row(name, e.Help, 22))
	}
	blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left, cmds...))

	m.help.Width = m.width - 8
	blocks = append(blocks, "", m.help.ShortHelpView(m.keys.ShortHelp()))

	content := lipgloss.JoinVertical(lipgloss.Left, blocks...)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

func renderSection(sec keys.Section) string {
	lines := []string{theme.SectionStyle.MarginTop(1).Render(sec.Title)}
	for _, b := range sec.Bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		lines = append(lines, row(h.Key, h.Desc, 10))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func row(key, desc string, width int) string {
	return theme.HelpKeyStyle.Render(fmt.Sprintf("  %-*s", width, key)) + theme.HelpStyle.Render(desc)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
