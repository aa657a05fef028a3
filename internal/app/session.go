package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/planner/internal/ui/login"
)

// sessionExpiredMsg is delivered when the credential was discarded outside
// the UI loop, typically because the server answered 401.
type sessionExpiredMsg struct{}

// onInvalidate runs on whichever goroutine discarded the token. It drops
// the session's cached rows and wakes the UI without blocking.
func (m Model) onInvalidate() {
	if err := m.store.ClearSession(context.Background()); err != nil {
		m.log.WithError(err).Warn("clearing session cache")
	}
	select {
	case m.expired <- struct{}{}:
	default:
	}
}

// waitForExpiry blocks until the credential is invalidated.
func (m Model) waitForExpiry() tea.Cmd {
	ch := m.expired
	return func() tea.Msg {
		<-ch
		return sessionExpiredMsg{}
	}
}

// toLogin resets per-user state and shows the sign-in form with notice.
func (m *Model) toLogin(notice string) tea.Cmd {
	m.userID, m.userName = 0, ""
	m.previousView = ViewLogin
	m.currentView = ViewLogin
	cmd := m.loginView.Start(login.ModeLogin, "")
	m.loginView.SetNotice(notice)
	return cmd
}

// logout discards the credential. The invalidation listener fires as part
// of it, so the resulting sessionExpiredMsg finds the login view already
// active and is ignored.
func (m *Model) logout() tea.Cmd {
	sess := m.session
	log := m.log
	cmd := m.toLogin("Signed out.")
	return tea.Batch(cmd, func() tea.Msg {
		if err := sess.Logout(); err != nil {
			log.WithError(err).Warn("logout")
		}
		return nil
	})
}
