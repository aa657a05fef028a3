package detail

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/detail"
	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/testutil"
)

func openDetail(t *testing.T) (Model, *testutil.FakeServer, *int) {
	t.Helper()
	srv := testutil.NewFakeServer(t)
	srv.Projects = []model.Project{{
		ID: 7, Name: "Apollo",
		Members: []model.Member{{UserID: 1, Name: "Ann"}, {UserID: 2, Name: "Bo"}},
	}}
	srv.Seed(
		model.Task{ID: 10, Title: "Root", ProjectID: 7, Status: model.StatusInProgress},
		model.Task{ID: 11, Title: "Child", ProjectID: 7, Status: model.StatusNotStarted,
			EffortLevel: "SMALL", Parent: &model.TaskRef{ID: 10, Title: "Root"}},
	)
	srv.Comments[11] = []model.Comment{
		{ID: 50, TaskID: 11, UserID: 1, UserName: "Ann", Comment: "mine"},
		{ID: 51, TaskID: 11, UserID: 2, UserName: "Bo", Comment: "theirs"},
	}
	srv.Tags[11] = []string{"backend"}

	closed := 0
	logger, _ := test.NewNullLogger()
	s := detail.New(srv.Client(), 7, 11,
		detail.WithCurrentUser(1),
		detail.WithLogger(logger),
		detail.WithOnClose(func() { closed++ }),
	)

	m := New(keys.DefaultKeyMap(), 100, 60)
	cmd := m.Open(s, []model.Task{{ID: 12, Title: "Grandchild", Status: model.StatusDone}})
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m, srv, &closed
}

func TestOpen_RendersAggregate(t *testing.T) {
	m, _, _ := openDetail(t)

	content := m.renderContent()
	assert.Contains(t, content, "Child")
	assert.Contains(t, content, "Root", "parent shown")
	assert.Contains(t, content, "Grandchild", "subtasks shown")
	assert.Contains(t, content, "Ann (you)")
	assert.NotContains(t, content, "Bo (you)")
	assert.Contains(t, content, "backend")
}

func TestRemoveOptions_OnlyOwnComments(t *testing.T) {
	m, _, _ := openDetail(t)

	var values []string
	for _, o := range m.removeOptions(m.session.Aggregate()) {
		values = append(values, o.Value)
	}
	assert.Equal(t, []string{"comment:50", "tag:backend", "parent:"}, values)
}

func TestSubmitRemove_Tag(t *testing.T) {
	m, srv, _ := openDetail(t)

	m.mode = modeRemove
	m.fb.remove = "tag:backend"
	m, cmd := m.submit()
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	m, _ = m.Update(cmd())
	assert.False(t, m.busy)
	assert.Equal(t, "Tag removed", m.notice)
	assert.Empty(t, m.session.Aggregate().Tags)
	assert.Equal(t, 1, srv.Count("DELETE", "/api/tasks/11/tags"))
}

func TestEsc_ClosesSession(t *testing.T) {
	m, _, closed := openDetail(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, ClosedMsg{ProjectID: 7}, msg)
	assert.Equal(t, 1, *closed)
}

func TestStaleResultIgnored(t *testing.T) {
	m, _, _ := openDetail(t)

	m.busy = true
	m, _ = m.Update(doneMsg{taskID: 99, notice: "other task"})
	assert.True(t, m.busy)
	assert.Empty(t, m.notice)
}
