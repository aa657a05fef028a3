package app

import (
	"context"
	"testing"

	"github.com/99designs/keyring"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/credential"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/internal/testutil"
)

type harness struct {
	srv     *testutil.FakeServer
	client  *api.Client
	session *credential.Session
	store   *store.SQLiteStore
}

func newHarness(t *testing.T, loggedIn bool) (Model, *harness) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	h := &harness{
		srv:     testutil.NewFakeServer(t),
		session: credential.NewSession(credential.NewVault(keyring.NewArrayKeyring(nil)), logger),
		store:   testutil.NewTestStore(t),
	}
	if loggedIn {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"id": 1, "sub": "ann@example.com", "name": "Ann",
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		require.NoError(t, h.session.Login(tok))
	}
	h.client = api.NewClient(h.srv.URL, h.session, api.WithLogger(logger))

	m := New(Config{Client: h.client, Session: h.session, Store: h.store, Log: logger})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), h
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestNew_StartsOnLoginWithoutToken(t *testing.T) {
	m, _ := newHarness(t, false)
	assert.Equal(t, ViewLogin, m.currentView)
	assert.Empty(t, m.userName)
}

func TestNew_StartsOnDashboardWithToken(t *testing.T) {
	m, _ := newHarness(t, true)
	assert.Equal(t, ViewDashboard, m.currentView)
	assert.Equal(t, int64(1), m.userID)
	assert.Equal(t, "Ann", m.userName)
	assert.Contains(t, m.View(), "Ann")
}

func TestUnauthorized_RoutesToLoginAndClearsCache(t *testing.T) {
	m, h := newHarness(t, true)
	ctx := context.Background()
	require.NoError(t, h.store.PutSchedule(ctx, 5, model.ScheduleResult{TotalDays: 2}))

	h.srv.Fail("GET", "/api/projects/my-projects", 401, `{"message":"Token expired"}`)
	_, err := h.client.MyProjects(ctx)
	require.Error(t, err)
	assert.False(t, h.session.LoggedIn())

	msg := m.waitForExpiry()()
	require.IsType(t, sessionExpiredMsg{}, msg)
	next, cmd := m.Update(msg)
	m = next.(Model)
	assert.NotNil(t, cmd, "keeps listening")
	assert.Equal(t, ViewLogin, m.currentView)
	assert.Zero(t, m.userID)

	_, err = h.store.GetSchedule(ctx, 5)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGlobalKeys(t *testing.T) {
	m, _ := newHarness(t, true)

	m, _ = press(t, m, "?")
	assert.Equal(t, ViewHelp, m.currentView)
	m, _ = press(t, m, "esc")
	assert.Equal(t, ViewDashboard, m.currentView)

	m, _ = press(t, m, ":")
	assert.Equal(t, ViewCommand, m.currentView)
	m, _ = press(t, m, "q")
	assert.Equal(t, ViewCommand, m.currentView, "q is typed into the palette")

	m, cmd := press(t, m, "esc")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, ViewDashboard, m.currentView)

	_, cmd = press(t, m, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestExecuteCommand_ProjectScopedNeedsProject(t *testing.T) {
	m, _ := newHarness(t, true)

	assert.Nil(t, m.executeCommand("board"))
	assert.Nil(t, m.executeCommand("generate"))
	assert.Equal(t, ViewDashboard, m.currentView)

	cmd := m.executeCommand("projects")
	assert.NotNil(t, cmd)
	assert.Equal(t, ViewDashboard, m.currentView)
}

func TestOpenProject_ThenBoardCommand(t *testing.T) {
	m, h := newHarness(t, true)
	h.srv.Projects = []model.Project{{ID: 5, Name: "Launch"}}
	h.srv.Seed(model.Task{ID: 1, Title: "Plan", ProjectID: 5, Status: model.StatusNotStarted})

	cmd := m.workspaceView.Open(model.Project{ID: 5, Name: "Launch"})
	require.NotNil(t, cmd)
	m.currentView = ViewWorkspace

	m.executeCommand("board")
	assert.Equal(t, ViewWorkspace, m.currentView)
	assert.Equal(t, "board", m.workspaceView.Tab().String())
	assert.Contains(t, m.title(), "Launch")
}
