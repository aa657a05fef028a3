package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/projection"
	"github.com/nhle/planner/internal/reconcile"
	"github.com/nhle/planner/internal/schedule"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/internal/taskstore"
	"github.com/nhle/planner/internal/theme"
	"github.com/nhle/planner/internal/ui"
)

// BackMsg asks the parent to return to the project dashboard.
type BackMsg struct{}

// OpenTaskMsg asks the parent to open the detail overlay for a task.
type OpenTaskMsg struct {
	ProjectID int64
	TaskID    int64
}

// NewTaskMsg asks the parent to open the create-task form.
type NewTaskMsg struct {
	ProjectID int64
}

// Tab is one of the workspace views.
type Tab int

const (
	TabList Tab = iota
	TabBoard
	TabSchedule
)

var tabNames = []string{"list", "board", "schedule"}

func (t Tab) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return fmt.Sprintf("tab(%d)", int(t))
	}
	return tabNames[t]
}

// Label is the title shown in the tab strip.
func (t Tab) Label() string {
	s := t.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseTab maps "list", "board" or "schedule" to a Tab.
func ParseTab(s string) (Tab, bool) {
	for i, n := range tabNames {
		if n == strings.ToLower(strings.TrimSpace(s)) {
			return Tab(i), true
		}
	}
	return TabList, false
}

// ProjectGateway fetches the project header.
type ProjectGateway interface {
	Project(ctx context.Context, projectID int64) (*model.Project, error)
}

// ViewPrefs remembers the last tab per project for the current session.
type ViewPrefs interface {
	GetView(ctx context.Context, projectID int64) (string, error)
	SetView(ctx context.Context, projectID int64, view string) error
}

type projectLoadedMsg struct {
	projectID int64
	project   *model.Project
	err       error
}

type tasksLoadedMsg struct {
	projectID int64
	err       error
}

type viewPrefMsg struct {
	projectID int64
	tab       Tab
}

// Deps are the collaborators of a workspace.
type Deps struct {
	Projects   ProjectGateway
	Tasks      *taskstore.Store
	Reconciler *reconcile.Reconciler
	Scheduler  *schedule.Scheduler
	Prefs      ViewPrefs
	Log        logrus.FieldLogger
}

// Model is the per-project workspace: header, tab strip and the active view.
type Model struct {
	deps       Deps
	keys       *keys.KeyMap
	defaultTab Tab

	project    model.Project
	projectErr string
	tab        Tab
	notice     string

	list  listView
	board boardView
	sched scheduleView

	width  int
	height int
}

// New creates a workspace model. defaultTab applies to projects without a
// remembered tab.
func New(deps Deps, k *keys.KeyMap, defaultTab Tab, width, height int) Model {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	m := Model{
		deps:       deps,
		keys:       k,
		defaultTab: defaultTab,
		tab:        defaultTab,
		list:       newListView(width, height),
		board:      newBoardView(),
		sched:      newScheduleView(width, height),
		width:      width,
		height:     height,
	}
	return m
}

// Open binds the workspace to p and starts loading its data.
func (m *Model) Open(p model.Project) tea.Cmd {
	m.project = p
	m.projectErr = ""
	m.notice = ""
	m.tab = m.defaultTab
	m.board = newBoardView()
	m.sched.reset()
	m.list.setTasks(nil)

	return tea.Batch(
		m.loadProject(),
		m.loadTasks(),
		m.restoreSchedule(),
		m.loadViewPref(),
	)
}

// ProjectID returns the bound project.
func (m Model) ProjectID() int64 {
	return m.project.ID
}

// Project returns the bound project header.
func (m Model) Project() model.Project {
	return m.project
}

// Tab returns the active tab.
func (m Model) Tab() Tab {
	return m.tab
}

// Capturing reports whether the workspace needs every key, e.g. while a
// task is picked up on the board.
func (m Model) Capturing() bool {
	return m.board.carrying()
}

// Reload re-issues the project and task loads. It is also the Retry action.
func (m *Model) Reload() tea.Cmd {
	m.notice = ""
	return tea.Batch(m.loadProject(), m.loadTasks())
}

// SetTab switches the active tab and remembers it for the project.
func (m *Model) SetTab(t Tab) tea.Cmd {
	if m.board.carrying() {
		m.board.cancel()
	}
	m.tab = t
	return m.saveViewPref(t)
}

// GenerateSchedule switches to the schedule tab and regenerates it.
func (m *Model) GenerateSchedule() tea.Cmd {
	cmd := m.SetTab(TabSchedule)
	return tea.Batch(cmd, m.sched.generate(m.deps.Scheduler, m.project.ID))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case projectLoadedMsg:
		if msg.projectID != m.project.ID {
			return m, nil
		}
		if msg.err != nil {
			m.projectErr = api.Message(msg.err, "Failed to load project")
			return m, nil
		}
		m.projectErr = ""
		if msg.project != nil {
			m.project = *msg.project
		}
		return m, nil

	case tasksLoadedMsg:
		if msg.projectID != m.project.ID {
			return m, nil
		}
		m.refreshViews()
		return m, nil

	case viewPrefMsg:
		if msg.projectID == m.project.ID {
			m.tab = msg.tab
		}
		return m, nil

	case dropResultMsg:
		m.board.finish(msg.result.TaskID)
		switch {
		case msg.err != nil:
			m.notice = msg.err.Error()
		case msg.result.Outcome == reconcile.RolledBack:
			m.notice = msg.result.Message
		case msg.result.Outcome == reconcile.Committed:
			m.notice = fmt.Sprintf("Moved to %s", msg.result.To.Label())
		}
		m.refreshViews()
		return m, nil

	case scheduleMsg:
		if msg.projectID != m.project.ID {
			return m, nil
		}
		m.sched.apply(msg)
		m.sched.render(m.width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.tab == TabList {
		var cmd tea.Cmd
		m.list, cmd = m.list.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.tab == TabBoard && m.board.carrying() {
		return m.handleDragKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.NextTab):
		cmd := m.SetTab((m.tab + 1) % Tab(len(tabNames)))
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.Reload()
		return m, cmd

	case key.Matches(msg, m.keys.New):
		pid := m.project.ID
		return m, func() tea.Msg { return NewTaskMsg{ProjectID: pid} }
	}

	switch m.tab {
	case TabList:
		if key.Matches(msg, m.keys.Select) {
			return m, m.openTask(m.list.selected())
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.update(msg)
		return m, cmd

	case TabBoard:
		return m.handleBoardKey(msg)

	case TabSchedule:
		if key.Matches(msg, m.keys.Generate) {
			return m, m.sched.generate(m.deps.Scheduler, m.project.ID)
		}
		var cmd tea.Cmd
		m.sched.viewport, cmd = m.sched.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) openTask(t *model.Task) tea.Cmd {
	if t == nil {
		return nil
	}
	msg := OpenTaskMsg{ProjectID: m.project.ID, TaskID: t.ID}
	return func() tea.Msg { return msg }
}

// Refresh redraws the list and board from the task store, e.g. after the
// store was re-synced elsewhere.
func (m *Model) Refresh() {
	m.refreshViews()
}

// refreshViews re-projects the task collection into the list and board.
func (m *Model) refreshViews() {
	tasks := m.deps.Tasks.Tasks()
	m.list.setTasks(projection.List(tasks))
	m.board.setTasks(tasks)
}

func (m Model) loadProject() tea.Cmd {
	gw := m.deps.Projects
	pid := m.project.ID
	return func() tea.Msg {
		p, err := gw.Project(context.Background(), pid)
		return projectLoadedMsg{projectID: pid, project: p, err: err}
	}
}

func (m Model) loadTasks() tea.Cmd {
	ts := m.deps.Tasks
	pid := m.project.ID
	return func() tea.Msg {
		err := ts.Load(context.Background(), pid)
		return tasksLoadedMsg{projectID: pid, err: err}
	}
}

func (m Model) restoreSchedule() tea.Cmd {
	sch := m.deps.Scheduler
	pid := m.project.ID
	return func() tea.Msg {
		res, ok := sch.Restore(context.Background(), pid)
		return scheduleMsg{projectID: pid, result: res, ok: ok, restored: true}
	}
}

func (m Model) loadViewPref() tea.Cmd {
	prefs := m.deps.Prefs
	if prefs == nil {
		return nil
	}
	log := m.deps.Log
	pid := m.project.ID
	return func() tea.Msg {
		v, err := prefs.GetView(context.Background(), pid)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				log.WithError(err).WithField("project_id", pid).Warn("reading view preference")
			}
			return nil
		}
		tab, ok := ParseTab(v)
		if !ok {
			return nil
		}
		return viewPrefMsg{projectID: pid, tab: tab}
	}
}

func (m Model) saveViewPref(t Tab) tea.Cmd {
	prefs := m.deps.Prefs
	if prefs == nil {
		return nil
	}
	log := m.deps.Log
	pid := m.project.ID
	return func() tea.Msg {
		if err := prefs.SetView(context.Background(), pid, t.String()); err != nil {
			log.WithError(err).WithField("project_id", pid).Warn("saving view preference")
		}
		return nil
	}
}

// View renders the workspace.
func (m Model) View() string {
	header := m.renderHeader()
	tabs := m.renderTabs()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(tabs) - 1

	var body string
	switch {
	case m.deps.Tasks.Loading() && len(m.deps.Tasks.Tasks()) == 0 && m.tab != TabSchedule:
		body = ui.Centered(m.width, bodyHeight, "Loading tasks...")
	case m.deps.Tasks.Err() != nil && m.tab != TabSchedule:
		body = ui.Centered(m.width, bodyHeight,
			theme.ErrorStyle.Render(m.deps.Tasks.ErrMessage())+"\n\nPress r to retry.")
	default:
		switch m.tab {
		case TabList:
			body = m.list.view(m.width, bodyHeight)
		case TabBoard:
			body = m.board.view(m.width, bodyHeight)
		case TabSchedule:
			body = m.sched.view(m.width, bodyHeight)
		}
	}

	parts := []string{header, tabs, body}
	if m.notice != "" {
		parts = append(parts, theme.NoticeStyle.Render(m.notice))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	p := m.project
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(p.Name))
	if p.InviteCode != "" {
		b.WriteString(theme.DimmedStyle.Render("  invite: " + p.InviteCode))
	}
	counts := projection.Counts(m.deps.Tasks.Tasks())
	var cs []string
	for _, st := range model.BoardStatuses {
		cs = append(cs, fmt.Sprintf("%s %d", st.Label(), counts[st]))
	}
	b.WriteString(theme.DimmedStyle.Render("  [" + strings.Join(cs, " · ") + "]"))
	b.WriteString("\n")

	if p.Description != "" {
		b.WriteString(theme.DimmedStyle.Render(ui.Truncate(p.Description, m.width-2)))
		b.WriteString("\n")
	}
	if names := p.MemberNames(); len(names) > 0 {
		b.WriteString(theme.HelpStyle.Render(ui.Truncate("Members: "+strings.Join(names, ", "), m.width-2)))
		b.WriteString("\n")
	}
	if m.projectErr != "" {
		b.WriteString(theme.ErrorStyle.Render(m.projectErr))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderTabs() string {
	var tabs []string
	for i := range tabNames {
		t := Tab(i)
		if t == m.tab {
			tabs = append(tabs, theme.ActiveTabStyle.Render(t.Label()))
		} else {
			tabs = append(tabs, theme.TabStyle.Render(t.Label()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// KeyHints returns the status bar hints for the active tab.
func (m Model) KeyHints() string {
	switch m.tab {
	case TabBoard:
		if m.board.carrying() {
			return "h/l move | enter drop | esc cancel"
		}
		return "h/l column | j/k task | space pick up | enter open | n new | tab view | r refresh | esc projects"
	case TabSchedule:
		return "g generate | j/k scroll | tab view | esc projects"
	default:
		return "j/k move | enter open | n new | tab view | r refresh | esc projects"
	}
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.setSize(width, height)
	m.sched.setSize(width, height)
	m.sched.render(width)
}
