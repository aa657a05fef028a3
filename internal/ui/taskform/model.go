package taskform

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/projection"
	"github.com/nhle/planner/internal/theme"
	"github.com/nhle/planner/internal/ui"
	"github.com/nhle/planner/internal/validate"
)

// TaskCreatedMsg is dispatched after the server accepted a new task.
type TaskCreatedMsg struct {
	ProjectID int64
	Title     string
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// Gateway creates tasks and lists effort levels.
type Gateway interface {
	CreateTask(ctx context.Context, t model.NewTask) error
	EffortLevels(ctx context.Context) ([]string, error)
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	effort      string
	startDate   string
	endDate     string
	parentID    int64
}

type levelsLoadedMsg struct {
	levels []string
	err    error
}

type createdMsg struct {
	title string
	err   error
}

// Model is the Bubble Tea model for the create-task form.
type Model struct {
	gw         Gateway
	projectID  int64
	candidates []model.Task
	levels     []string
	form       *huh.Form
	fb         *formBindings
	busy       bool
	errMsg     string
	width      int
	height     int
}

// New creates a new task form model.
func New(gw Gateway, width, height int) Model {
	return Model{
		gw:     gw,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start resets the form for projectID. tasks are the project's current
// tasks; the non-deleted ones are offered as parents.
func (m *Model) Start(projectID int64, tasks []model.Task) tea.Cmd {
	m.projectID = projectID
	m.candidates = projection.ParentCandidates(tasks, 0)
	*m.fb = formBindings{}
	m.errMsg = ""
	m.busy = false
	m.form = nil

	if m.levels != nil {
		m.fb.effort = defaultLevel(m.levels)
		m.form = m.buildForm()
		return m.form.Init()
	}

	gw := m.gw
	return func() tea.Msg {
		levels, err := gw.EffortLevels(context.Background())
		return levelsLoadedMsg{levels: levels, err: err}
	}
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case levelsLoadedMsg:
		if msg.err != nil {
			m.errMsg = api.Message(msg.err, "Failed to load effort levels")
			return m, nil
		}
		m.levels = msg.levels
		m.fb.effort = defaultLevel(m.levels)
		m.form = m.buildForm()
		return m, m.form.Init()

	case createdMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = api.Message(msg.err, "Failed to create task")
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		pid, title := m.projectID, msg.title
		return m, func() tea.Msg { return TaskCreatedMsg{ProjectID: pid, Title: title} }

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return m, func() tea.Msg { return CancelMsg{} }
		}
	}

	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.submit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	f := validate.NewTask{
		Title:       m.fb.title,
		Description: m.fb.description,
		StartDate:   strings.TrimSpace(m.fb.startDate),
		EndDate:     strings.TrimSpace(m.fb.endDate),
		EffortLevel: m.fb.effort,
		ParentID:    m.fb.parentID,
	}
	if err := f.Validate(); err != nil {
		m.errMsg = err.Error()
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	m.busy = true
	m.errMsg = ""
	gw := m.gw
	payload := f.Payload(m.projectID)
	return m, func() tea.Msg {
		err := gw.CreateTask(context.Background(), payload)
		return createdMsg{title: payload.Title, err: err}
	}
}

// View renders the task form.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("New Task"))
	b.WriteString("\n")

	if m.errMsg != "" {
		b.WriteString(theme.ErrorStyle.Render(m.errMsg))
		b.WriteString("\n\n")
	}

	switch {
	case m.busy:
		b.WriteString(theme.DimmedStyle.Render("Creating task..."))
	case m.form != nil:
		b.WriteString(m.form.View())
	case m.errMsg == "":
		b.WriteString(theme.DimmedStyle.Render("Loading..."))
	default:
		b.WriteString(theme.HelpStyle.Render("esc to go back"))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(b.String())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	effortOpts := make([]huh.Option[string], len(m.levels))
	for i, l := range m.levels {
		effortOpts[i] = huh.NewOption(l, l)
	}

	parentOpts := []huh.Option[int64]{huh.NewOption("None", int64(0))}
	for _, t := range m.candidates {
		parentOpts = append(parentOpts, huh.NewOption(fmt.Sprintf("#%d %s", t.ID, t.Title), t.ID))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs to be done?").
				Value(&m.fb.title),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				Value(&m.fb.description),
			huh.NewSelect[string]().
				Title("Effort level").
				Options(effortOpts...).
				Value(&m.fb.effort),
			huh.NewInput().
				Title("Start date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.startDate).
				Validate(validateOptionalDate),
			huh.NewInput().
				Title("End date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.endDate).
				Validate(validateOptionalDate),
			huh.NewSelect[int64]().
				Title("Parent task").
				Options(parentOpts...).
				Value(&m.fb.parentID),
		),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func defaultLevel(levels []string) string {
	if len(levels) == 0 {
		return ""
	}
	return levels[0]
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := model.ParseDate(s)
	return err
}
