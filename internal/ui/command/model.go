package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// CancelMsg is emitted when the palette is dismissed with esc.
type CancelMsg struct{}

// Entry is one palette command.
type Entry struct {
	Name    string
	Aliases []string
	Help    string
}

// Entries is the palette vocabulary, in the order it is listed.
var Entries = []Entry{
	{Name: "projects", Aliases: []string{"dashboard"}, Help: "back to the project dashboard"},
	{Name: "list", Help: "show the task list"},
	{Name: "board", Help: "show the status board"},
	{Name: "schedule", Help: "show the generated schedule"},
	{Name: "new task", Aliases: []string{"new"}, Help: "open the create-task form"},
	{Name: "generate", Help: "regenerate the project schedule"},
	{Name: "refresh", Aliases: []string{"r"}, Help: "reload the current view"},
	{Name: "logout", Help: "sign out and clear the session"},
	{Name: "quit", Aliases: []string{"q"}, Help: "exit"},
}

// Commands lists the entry names, offered as completions.
var Commands = names(Entries)

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// Resolve maps an alias to its entry name. Unknown input is returned as is.
func Resolve(cmd string) string {
	for _, e := range Entries {
		for _, a := range e.Aliases {
			if cmd == a {
				return e.Name
			}
		}
	}
	return cmd
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Commands)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			cmd := Resolve(Normalize(m.input.Value()))
			m.input.Reset()
			if cmd != "" {
				return m, func() tea.Msg {
					return CommandMsg(cmd)
				}
			}
			return m, nil
		case "esc":
			m.input.Reset()
			return m, func() tea.Msg { return CancelMsg{} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Command Palette")
	input := m.input.View()
	hint := theme.HelpStyle.Render(strings.Join(Commands, " · "))

	content := lipgloss.JoinVertical(lipgloss.Left, title, input, "", hint)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Normalize lowercases a command and collapses inner whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
