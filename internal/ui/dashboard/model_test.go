package dashboard

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/testutil"
)

func loaded(t *testing.T, srv *testutil.FakeServer) Model {
	t.Helper()
	m := New(srv.Client(), keys.DefaultKeyMap(), 100, 30)
	cmd := m.Load()
	m, _ = m.Update(cmd())
	return m
}

func TestLoad_ListsProjects(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	srv.Projects = []model.Project{
		{ID: 1, Name: "Apollo", Members: []model.Member{{UserID: 1}, {UserID: 2}}},
		{ID: 2, Name: "Gemini"},
	}
	m := loaded(t, srv)

	require.Len(t, m.Projects(), 2)
	view := m.View()
	assert.Contains(t, view, "Apollo")
	assert.Contains(t, view, "2 members")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	open, ok := cmd().(OpenProjectMsg)
	require.True(t, ok)
	assert.Equal(t, int64(2), open.Project.ID)
}

func TestLoad_ErrorOffersRetry(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	srv.Fail("GET", "/api/projects/my-projects", 500, `{"message":"database unavailable"}`)
	m := loaded(t, srv)

	assert.Contains(t, m.View(), "database unavailable")
	assert.Contains(t, m.View(), "Press r to retry.")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.Empty(t, m.loadErr)
}

func TestJoin_UnknownInviteCode(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	m := loaded(t, srv)

	m.mode = modeJoin
	m.fb.inviteCode = " NOPE "
	m, cmd := m.submit()
	require.NotNil(t, cmd)

	m, _ = m.Update(cmd())
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "Invalid invite code", m.errMsg)
}

func TestCreate_ReloadsList(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	m := loaded(t, srv)
	require.Empty(t, m.Projects())

	m.mode = modeCreate
	m.fb.name = "Mercury"
	m, cmd := m.submit()
	require.NotNil(t, cmd)

	m, cmd = m.Update(cmd())
	assert.Equal(t, "Project created", m.statusMsg)
	require.NotNil(t, cmd, "list reloads")
	m, _ = m.Update(cmd())
	require.Len(t, m.Projects(), 1)
	assert.Equal(t, "Mercury", m.Projects()[0].Name)
}
