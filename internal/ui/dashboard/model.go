package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/theme"
	"github.com/nhle/planner/internal/ui"
	"github.com/nhle/planner/internal/validate"
)

// OpenProjectMsg asks the parent to open the workspace for Project.
type OpenProjectMsg struct {
	Project model.Project
}

// Gateway is the project half of the service API.
type Gateway interface {
	MyProjects(ctx context.Context) ([]model.Project, error)
	CreateProject(ctx context.Context, p model.NewProject) error
	JoinProject(ctx context.Context, inviteCode string) error
	DeleteProject(ctx context.Context, projectID int64) error
}

type mode int

const (
	modeList mode = iota
	modeCreate
	modeJoin
	modeConfirmDelete
)

type formBindings struct {
	name        string
	description string
	inviteCode  string
	confirm     bool
}

type projectsLoadedMsg struct {
	projects []model.Project
	err      error
}

type projectSavedMsg struct {
	notice string
	err    error
	fail   string
}

// Model is the Bubble Tea model for the project dashboard.
type Model struct {
	mode        mode
	gw          Gateway
	keys        *keys.KeyMap
	projects    []model.Project
	selectedIdx int
	loading     bool
	loadErr     string
	form        *huh.Form
	fb          *formBindings
	statusMsg   string
	errMsg      string
	width       int
	height      int
}

// New creates a new dashboard model.
func New(gw Gateway, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:   modeList,
		gw:     gw,
		keys:   k,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Init loads the user's projects.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a command that fetches the project list.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	gw := m.gw
	return func() tea.Msg {
		projects, err := gw.MyProjects(context.Background())
		return projectsLoadedMsg{projects: projects, err: err}
	}
}

// Projects returns the loaded projects.
func (m Model) Projects() []model.Project {
	return m.projects
}

// InForm reports whether a form currently owns the keyboard.
func (m Model) InForm() bool {
	return m.mode != modeList
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case projectsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.loadErr = api.Message(msg.err, "Failed to load projects")
			return m, nil
		}
		m.loadErr = ""
		m.projects = msg.projects
		if m.selectedIdx >= len(m.projects) {
			m.selectedIdx = max(0, len(m.projects)-1)
		}
		return m, nil

	case projectSavedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.errMsg = api.Message(msg.err, msg.fail)
			m.statusMsg = ""
			return m, nil
		}
		m.errMsg = ""
		m.statusMsg = msg.notice
		cmd := m.Load()
		return m, cmd

	case tea.KeyMsg:
		if m.mode == modeList {
			return m.handleListKey(msg)
		}
		if msg.String() == "esc" {
			m.mode = modeList
			return m, nil
		}
	}

	return m.updateForm(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.projects) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.projects)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.projects) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.projects) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.projects) == 0 {
			return m, nil
		}
		p := m.projects[m.selectedIdx]
		return m, func() tea.Msg { return OpenProjectMsg{Project: p} }

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.Load()
		return m, cmd

	case key.Matches(msg, m.keys.New):
		m.fb.name = ""
		m.fb.description = ""
		m.errMsg = ""
		m.form = m.buildCreateForm()
		m.mode = modeCreate
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Join):
		m.fb.inviteCode = ""
		m.errMsg = ""
		m.form = m.buildJoinForm()
		m.mode = modeJoin
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if len(m.projects) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.form = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) buildCreateForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Project name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					return validate.Struct(validate.NewProject{Name: s})
				}),
			huh.NewText().
				Title("Description").
				Placeholder("Optional description").
				Value(&m.fb.description),
		),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) buildJoinForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Invite code").
				Placeholder("Code shared by a project member").
				Value(&m.fb.inviteCode).
				Validate(func(s string) error {
					return validate.Struct(validate.JoinProject{InviteCode: s})
				}),
		),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if m.selectedIdx < len(m.projects) {
		name = m.projects[m.selectedIdx].Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete project %q?", name)).
				Description("All of its tasks will be deleted for every member.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.mode == modeList {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	case huh.StateCompleted:
		return m.submit()
	}
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	gw := m.gw
	fb := *m.fb

	switch m.mode {
	case modeCreate:
		return m, func() tea.Msg {
			err := gw.CreateProject(context.Background(), model.NewProject{
				Name:        strings.TrimSpace(fb.name),
				Description: strings.TrimSpace(fb.description),
			})
			return projectSavedMsg{notice: "Project created", err: err, fail: "Failed to create project"}
		}

	case modeJoin:
		return m, func() tea.Msg {
			err := gw.JoinProject(context.Background(), strings.TrimSpace(fb.inviteCode))
			return projectSavedMsg{notice: "Joined project", err: err, fail: "Failed to join project"}
		}

	case modeConfirmDelete:
		if !fb.confirm || m.selectedIdx >= len(m.projects) {
			m.mode = modeList
			return m, nil
		}
		id := m.projects[m.selectedIdx].ID
		return m, func() tea.Msg {
			err := gw.DeleteProject(context.Background(), id)
			return projectSavedMsg{notice: "Project deleted", err: err, fail: "Failed to delete project"}
		}
	}

	m.mode = modeList
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.mode != modeList {
		if m.form == nil {
			return ""
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}
	return m.viewList()
}

func (m Model) viewList() string {
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render("My projects"))
	b.WriteString("\n\n")

	switch {
	case m.loading && len(m.projects) == 0:
		b.WriteString(theme.DimmedStyle.Render("Loading projects..."))
	case m.loadErr != "":
		b.WriteString(theme.ErrorStyle.Render(m.loadErr))
		b.WriteString("\n")
		b.WriteString(theme.HelpStyle.Render("Press r to retry."))
	case len(m.projects) == 0:
		b.WriteString(theme.HelpStyle.Render("No projects yet. Press 'n' to create one or 'J' to join with an invite code."))
	default:
		for i, p := range m.projects {
			label := fmt.Sprintf("%s  %s", p.Name, theme.DimmedStyle.Render(memberSummary(p)))
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
		if sel := m.selected(); sel != nil && sel.Description != "" {
			b.WriteString("\n")
			b.WriteString(theme.DimmedStyle.Render(ui.Truncate(sel.Description, m.width-4)))
		}
	}

	if m.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.ErrorStyle.Render(m.errMsg))
	} else if m.statusMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.NoticeStyle.Render(m.statusMsg))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) selected() *model.Project {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.projects) {
		return nil
	}
	return &m.projects[m.selectedIdx]
}

func memberSummary(p model.Project) string {
	switch n := len(p.Members); n {
	case 0:
		return ""
	case 1:
		return "1 member"
	default:
		return fmt.Sprintf("%d members", n)
	}
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
