package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/planner/internal/ui/workspace"
)

// executeCommand handles a command string from the command palette. A
// command that navigates away from the detail overlay also closes it.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	fromDetail := m.currentView == ViewDetail
	next := m.runCommand(cmd)
	if fromDetail && m.currentView != ViewDetail {
		return tea.Batch(m.detailView.Close(), next)
	}
	return next
}

// runCommand dispatches cmd. Project-scoped commands are ignored until a
// project is open.
func (m *Model) runCommand(cmd string) tea.Cmd {
	hasProject := m.workspaceView.ProjectID() != 0

	switch cmd {
	case "quit", "q":
		return tea.Quit

	case "logout":
		return m.logout()

	case "projects", "dashboard":
		m.currentView = ViewDashboard
		return m.dashboardView.Load()

	case "refresh", "r":
		switch m.currentView {
		case ViewDashboard:
			return m.dashboardView.Load()
		case ViewWorkspace:
			return m.workspaceView.Reload()
		}
		return nil
	}

	if !hasProject {
		return nil
	}

	if tab, ok := workspace.ParseTab(cmd); ok {
		m.currentView = ViewWorkspace
		return m.workspaceView.SetTab(tab)
	}

	switch cmd {
	case "new task", "new":
		m.currentView = ViewTaskForm
		return m.taskFormView.Start(m.workspaceView.ProjectID(), m.tasks.Tasks())

	case "generate":
		m.currentView = ViewWorkspace
		return m.workspaceView.GenerateSchedule()
	}
	return nil
}
