package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/credential"
	"github.com/nhle/planner/internal/detail"
	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/projection"
	"github.com/nhle/planner/internal/reconcile"
	"github.com/nhle/planner/internal/schedule"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/internal/taskstore"
	"github.com/nhle/planner/internal/ui"
	"github.com/nhle/planner/internal/ui/command"
	"github.com/nhle/planner/internal/ui/dashboard"
	detailview "github.com/nhle/planner/internal/ui/detail"
	helpview "github.com/nhle/planner/internal/ui/help"
	"github.com/nhle/planner/internal/ui/login"
	"github.com/nhle/planner/internal/ui/taskform"
	"github.com/nhle/planner/internal/ui/workspace"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewDashboard
	ViewWorkspace
	ViewDetail
	ViewTaskForm
	ViewHelp
	ViewCommand
)

// Config wires the application to its collaborators.
type Config struct {
	Client  *api.Client
	Session *credential.Session
	Store   store.Store
	// DefaultView is the workspace tab used for projects without a
	// remembered one: "list", "board" or "schedule".
	DefaultView string
	Log         logrus.FieldLogger
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the shared task state of the open project.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	log          logrus.FieldLogger

	client  *api.Client
	session *credential.Session
	store   store.Store
	expired chan struct{}

	tasks *taskstore.Store

	loginView     login.Model
	dashboardView dashboard.Model
	workspaceView workspace.Model
	detailView    detailview.Model
	taskFormView  taskform.Model
	helpView      helpview.Model
	commandView   command.Model

	userName string
	userID   int64
	ready    bool
}

// New creates the root application model.
func New(cfg Config) Model {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	k := keys.DefaultKeyMap()

	tasks := taskstore.New(cfg.Client, log.WithField("component", "taskstore"))
	rec := reconcile.New(tasks, log.WithField("component", "reconcile"),
		reconcile.WithObserver(func(t reconcile.Transition) {
			log.WithFields(logrus.Fields{
				"task_id": t.TaskID,
				"from":    t.From,
				"to":      t.To,
			}).Debug("drag transition")
		}))
	sched := schedule.NewScheduler(cfg.Client, schedule.NewStoreCache(cfg.Store), log.WithField("component", "schedule"))

	defaultTab, ok := workspace.ParseTab(cfg.DefaultView)
	if !ok {
		defaultTab = workspace.TabList
	}

	ws := workspace.New(workspace.Deps{
		Projects:   cfg.Client,
		Tasks:      tasks,
		Reconciler: rec,
		Scheduler:  sched,
		Prefs:      cfg.Store,
		Log:        log.WithField("component", "workspace"),
	}, k, defaultTab, 80, 24)

	m := Model{
		currentView:   ViewLogin,
		keys:          k,
		log:           log,
		client:        cfg.Client,
		session:       cfg.Session,
		store:         cfg.Store,
		expired:       make(chan struct{}, 1),
		tasks:         tasks,
		loginView:     login.New(cfg.Client, 80, 24),
		dashboardView: dashboard.New(cfg.Client, k, 80, 24),
		workspaceView: ws,
		detailView:    detailview.New(k, 80, 24),
		taskFormView:  taskform.New(cfg.Client, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		commandView:   command.New(80, 24),
	}

	cfg.Session.OnInvalidate(m.onInvalidate)

	if cfg.Session.LoggedIn() {
		m.currentView = ViewDashboard
		m.loadIdentity()
	}
	return m
}

// Init loads the first screen and starts listening for session expiry.
func (m Model) Init() tea.Cmd {
	first := m.loginView.Init()
	if m.currentView == ViewDashboard {
		first = m.dashboardView.Init()
	}
	return tea.Batch(first, m.waitForExpiry())
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.dashboardView.SetSize(w, h)
		m.workspaceView.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.taskFormView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case sessionExpiredMsg:
		wait := m.waitForExpiry()
		if m.currentView == ViewLogin {
			return m, wait
		}
		cmd := m.toLogin("Your session has expired. Please sign in again.")
		return m, tea.Batch(cmd, wait)

	case login.LoggedInMsg:
		if err := m.session.Login(msg.Token); err != nil {
			m.log.WithError(err).Error("storing token")
			m.loginView.SetNotice("Could not store the session token: " + err.Error())
			return m, nil
		}
		m.loadIdentity()
		m.currentView = ViewDashboard
		cmd := m.dashboardView.Load()
		return m, cmd

	case dashboard.OpenProjectMsg:
		m.currentView = ViewWorkspace
		cmd := m.workspaceView.Open(msg.Project)
		return m, cmd

	case workspace.BackMsg:
		m.currentView = ViewDashboard
		cmd := m.dashboardView.Load()
		return m, cmd

	case workspace.OpenTaskMsg:
		sess := m.newDetailSession(msg.ProjectID, msg.TaskID)
		children := projection.Children(m.tasks.Tasks(), msg.TaskID)
		m.currentView = ViewDetail
		cmd := m.detailView.Open(sess, children)
		return m, cmd

	case detailview.ClosedMsg:
		if m.currentView == ViewDetail {
			m.currentView = ViewWorkspace
		}
		m.workspaceView.Refresh()
		return m, nil

	case workspace.NewTaskMsg:
		m.currentView = ViewTaskForm
		cmd := m.taskFormView.Start(msg.ProjectID, m.tasks.Tasks())
		return m, cmd

	case taskform.TaskCreatedMsg:
		m.currentView = ViewWorkspace
		cmd := m.workspaceView.Reload()
		return m, cmd

	case taskform.CancelMsg:
		m.currentView = ViewWorkspace
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(command.Normalize(string(msg)))
		return m, cmd

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.currentView == ViewDashboard && !m.dashboardView.InForm() {
				return m, tea.Quit
			}

		case "?":
			if m.capturingInput() {
				break
			}
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case ":":
			if m.capturingInput() {
				break
			}
			if m.currentView != ViewHelp {
				m.previousView = m.currentView
			}
			m.currentView = ViewCommand
			return m, m.commandView.Focus()

		case "esc":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
		}
	}

	return m.updateMessage(msg)
}

// updateMessage delivers msg to the active view. Asynchronous results
// also reach the workspace and the dashboard in the background, since their
// loads and drops may finish after the user switched away; views with an
// open form are skipped so stray form messages cannot advance them.
func (m Model) updateMessage(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.updateActiveView(msg)
	if _, ok := msg.(tea.KeyMsg); ok {
		return next, cmd
	}
	m = next.(Model)
	cmds := []tea.Cmd{cmd}

	if m.currentView != ViewWorkspace {
		m.workspaceView, cmd = m.workspaceView.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.currentView != ViewDashboard && !m.dashboardView.InForm() {
		m.dashboardView, cmd = m.dashboardView.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewDashboard:
		m.dashboardView, cmd = m.dashboardView.Update(msg)
	case ViewWorkspace:
		m.workspaceView, cmd = m.workspaceView.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewTaskForm:
		m.taskFormView, cmd = m.taskFormView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// capturingInput reports whether the active view owns every key, so the
// global ? and : shortcuts must not fire.
func (m Model) capturingInput() bool {
	switch m.currentView {
	case ViewLogin, ViewTaskForm, ViewCommand:
		return true
	case ViewDashboard:
		return m.dashboardView.InForm()
	case ViewWorkspace:
		return m.workspaceView.Capturing()
	case ViewDetail:
		return m.detailView.InForm()
	}
	return false
}

func (m *Model) newDetailSession(projectID, taskID int64) *detail.Session {
	tasks := m.tasks
	log := m.log.WithFields(logrus.Fields{"component": "detail", "task_id": taskID})
	return detail.New(m.client, projectID, taskID,
		detail.WithCurrentUser(m.userID),
		detail.WithLogger(log),
		detail.WithOnClose(func() {
			if err := tasks.Resync(context.Background()); err != nil {
				log.WithError(err).Warn("re-syncing tasks after detail close")
			}
		}),
	)
}

func (m *Model) loadIdentity() {
	id, err := m.session.Identity()
	if err != nil {
		m.log.WithError(err).Warn("decoding token identity")
		m.userID, m.userName = 0, ""
		return
	}
	m.userID = id.UserID
	m.userName = id.Name
	if m.userName == "" {
		m.userName = id.Email
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.title(), m.userName)
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), "")

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) title() string {
	switch m.currentView {
	case ViewWorkspace, ViewDetail, ViewTaskForm:
		if p := m.workspaceView.Project(); p.Name != "" {
			return "Planner · " + p.Name
		}
	}
	return "Planner"
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewWorkspace:
		return m.workspaceView.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewTaskForm:
		return m.taskFormView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter submit | ctrl+r register | ctrl+f forgot | ctrl+t reset | ctrl+v verify | esc sign in"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewWorkspace:
		return m.workspaceView.KeyHints()
	case ViewDetail:
		return m.detailView.KeyHints()
	case ViewTaskForm:
		return "enter next | esc cancel"
	default:
		if m.dashboardView.InForm() {
			return "enter confirm | esc cancel"
		}
		return "q quit | ? help | : command | enter open | n new | J join | D delete | r refresh"
	}
}
