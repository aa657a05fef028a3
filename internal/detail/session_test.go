package detail_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/detail"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/testutil"
	"github.com/nhle/planner/internal/validate"
)

const (
	projectID = int64(7)
	me        = int64(1)
	other     = int64(2)
)

func ptr(s string) *string { return &s }

func setup(t *testing.T, opts ...detail.Option) (*detail.Session, *testutil.FakeServer, *int) {
	t.Helper()
	srv := testutil.NewFakeServer(t)
	srv.Projects = []model.Project{{
		ID: projectID, Name: "Apollo",
		Members: []model.Member{
			{UserID: me, Name: "Ann", Role: "OWNER"},
			{UserID: other, Name: "Bo", Role: "MEMBER"},
			{UserID: 3, Name: "Cy", Role: "MEMBER"},
		},
	}}
	srv.Seed(
		model.Task{ID: 10, Title: "Root", ProjectID: projectID, Status: model.StatusInProgress, EffortLevel: "LARGE"},
		model.Task{
			ID: 11, Title: "Child", Description: "desc", ProjectID: projectID, Status: model.StatusNotStarted,
			EffortLevel: "SMALL", StartDate: ptr("2024-05-10T00:00:00.000Z"), EndDate: ptr("2024-05-12T23:59:59.999Z"),
			Parent: &model.TaskRef{ID: 10, Title: "Root"},
		},
		model.Task{ID: 12, Title: "Grandchild", ProjectID: projectID, Status: model.StatusDone, Parent: &model.TaskRef{ID: 11}},
		model.Task{ID: 13, Title: "Gone", ProjectID: projectID, Status: model.StatusDeleted},
	)
	srv.Logs[11] = []model.ActivityLog{{ID: 1, Action: "CREATED"}, {ID: 2, Action: "UPDATED"}}
	srv.Comments[11] = []model.Comment{
		{ID: 50, TaskID: 11, UserID: me, Comment: "mine"},
		{ID: 51, TaskID: 11, UserID: other, Comment: "theirs"},
	}
	srv.Tags[11] = []string{"backend"}
	srv.Assignees[11] = []model.Assignee{{UserID: other, Name: "Bo"}}

	closed := 0
	logger, _ := test.NewNullLogger()
	base := []detail.Option{
		detail.WithLogger(logger),
		detail.WithCurrentUser(me),
		detail.WithOnClose(func() { closed++ }),
	}
	s := detail.New(srv.Client(), projectID, 11, append(base, opts...)...)
	return s, srv, &closed
}

func TestOpen_LoadsAggregate(t *testing.T) {
	s, _, _ := setup(t)
	require.NoError(t, s.Open(context.Background()))

	agg := s.Aggregate()
	require.NotNil(t, agg.Task)
	assert.Equal(t, "Child", agg.Task.Title)
	require.Len(t, agg.Logs, 2)
	assert.Equal(t, int64(2), agg.Logs[0].ID, "logs newest first")
	assert.Len(t, agg.Comments, 2)
	assert.Equal(t, []string{"backend"}, agg.Tags)
	assert.Len(t, agg.Members, 3)

	var avail []int64
	for _, m := range agg.AvailableMembers {
		avail = append(avail, m.UserID)
	}
	assert.Equal(t, []int64{me, 3}, avail)
	assert.False(t, s.Loading())
	assert.NoError(t, s.Err())
}

func TestOpen_PartialFailureKeepsResolvedParts(t *testing.T) {
	s, srv, _ := setup(t)
	srv.Fail("GET", "/api/tasks/11/comments", 500, `{"message":"comments down"}`)

	err := s.Open(context.Background())
	require.Error(t, err)
	assert.Equal(t, err, s.Err())

	agg := s.Aggregate()
	require.NotNil(t, agg.Task, "task part resolved")
	assert.Equal(t, []string{"backend"}, agg.Tags)
	assert.Empty(t, agg.Comments)
}

func TestMutations_RefetchTouchedParts(t *testing.T) {
	s, srv, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	require.NoError(t, s.AddComment(ctx, "  hello  "))
	agg := s.Aggregate()
	require.Len(t, agg.Comments, 3)
	assert.Equal(t, "hello", agg.Comments[2].Comment)
	assert.Equal(t, "COMMENTED", agg.Logs[0].Action)

	require.NoError(t, s.AddTag(ctx, "urgent"))
	require.NoError(t, s.DeleteTag(ctx, "backend"))
	assert.Equal(t, []string{"urgent"}, s.Aggregate().Tags)

	require.NoError(t, s.Assign(ctx, 3))
	require.NoError(t, s.Unassign(ctx, other))
	agg = s.Aggregate()
	require.Len(t, agg.Assignees, 1)
	assert.Equal(t, int64(3), agg.Assignees[0].UserID)
	assert.Len(t, agg.AvailableMembers, 2)

	assert.Equal(t, 3, srv.Count("GET", "/api/tasks/11/tags"), "open plus one refetch per tag mutation")
	assert.Equal(t, 1, srv.Count("GET", "/api/projects/7/members"), "untouched parts are not refetched")
}

func TestAddComment_BlankIsIgnored(t *testing.T) {
	s, srv, _ := setup(t)
	require.NoError(t, s.Open(context.Background()))

	require.NoError(t, s.AddComment(context.Background(), "   "))
	assert.Zero(t, srv.Count("POST", "/api/tasks/11/comments"))
}

func TestDeleteComment_OnlyOwn(t *testing.T) {
	s, srv, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	agg := s.Aggregate()

	assert.True(t, s.CanDeleteComment(agg.Comments[0]))
	assert.False(t, s.CanDeleteComment(agg.Comments[1]))

	err := s.DeleteComment(ctx, agg.Comments[1])
	assert.True(t, validate.IsError(err))
	assert.Zero(t, srv.Count("DELETE", "/api/tasks/comments/51"))

	require.NoError(t, s.DeleteComment(ctx, agg.Comments[0]))
	assert.Len(t, s.Aggregate().Comments, 1)
}

func TestCanDeleteComment_UnknownUser(t *testing.T) {
	s, _, _ := setup(t, detail.WithCurrentUser(0))
	assert.False(t, s.CanDeleteComment(model.Comment{UserID: 0}))
}

func TestEdit_ConfirmSendsFullRecord(t *testing.T) {
	s, srv, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	e, err := s.BeginEdit(detail.FieldTitle)
	require.NoError(t, err)
	assert.Equal(t, "Child", e.Pending())

	e.Set("Renamed")
	require.NoError(t, e.Confirm(ctx))
	assert.True(t, e.Done())

	updates := srv.UpdatesFor(11)
	require.Len(t, updates, 1)
	u := updates[0]
	assert.Equal(t, "Renamed", u.Title)
	assert.Equal(t, "desc", u.Description)
	assert.Equal(t, model.StatusNotStarted, u.Status)
	assert.Equal(t, "SMALL", u.EffortLevel)
	assert.Equal(t, "2024-05-10T00:00:00.000Z", *u.StartDate)
	assert.Equal(t, "2024-05-12T23:59:59.999Z", *u.EndDate)
	require.NotNil(t, u.Parent)
	assert.Equal(t, int64(10), u.Parent.ID)

	task, _ := s.Task()
	assert.Equal(t, "Renamed", task.Title, "task reloaded")
}

func TestEdit_CancelSendsNothing(t *testing.T) {
	s, srv, _ := setup(t)
	require.NoError(t, s.Open(context.Background()))

	e, err := s.BeginEdit(detail.FieldDescription)
	require.NoError(t, err)
	e.Set("changed")
	e.Cancel()

	assert.Empty(t, srv.UpdatesFor(11))
	assert.Error(t, e.Confirm(context.Background()))
}

func TestEdit_EmptyTitleRejectedLocally(t *testing.T) {
	s, srv, _ := setup(t)
	require.NoError(t, s.Open(context.Background()))

	e, _ := s.BeginEdit(detail.FieldTitle)
	e.Set("   ")
	err := e.Confirm(context.Background())

	assert.True(t, validate.IsError(err))
	assert.False(t, e.Done(), "edit stays open")
	assert.Empty(t, srv.UpdatesFor(11))
}

func TestEdit_StartDateClampsEnd(t *testing.T) {
	s, srv, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	e, _ := s.BeginEdit(detail.FieldStartDate)
	assert.Equal(t, "2024-05-10", e.Pending())
	e.Set("2024-05-20")
	require.NoError(t, e.Confirm(ctx))

	u := srv.UpdatesFor(11)[0]
	assert.Equal(t, "2024-05-20T00:00:00.000Z", *u.StartDate)
	assert.Equal(t, "2024-05-20T00:00:00.000Z", *u.EndDate, "end pulled up to the new start")
}

func TestEdit_StartDateKeepsLaterEnd(t *testing.T) {
	s, srv, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	e, _ := s.BeginEdit(detail.FieldStartDate)
	e.Set("2024-05-11")
	require.NoError(t, e.Confirm(ctx))

	u := srv.UpdatesFor(11)[0]
	assert.Equal(t, "2024-05-12T23:59:59.999Z", *u.EndDate)
}

func TestEdit_EndDateBeforeStartRejected(t *testing.T) {
	s, srv, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	e, _ := s.BeginEdit(detail.FieldEndDate)
	e.Set("2024-05-09")
	err := e.Confirm(ctx)
	assert.True(t, validate.IsError(err))

	e.Set("2024-05-10")
	require.NoError(t, e.Confirm(ctx))
	assert.Equal(t, "2024-05-10T23:59:59.999Z", *srv.UpdatesFor(11)[0].EndDate)
}

func TestEdit_Status(t *testing.T) {
	s, srv, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	e, _ := s.BeginEdit(detail.FieldStatus)
	e.Set("BOGUS")
	assert.True(t, validate.IsError(e.Confirm(ctx)))

	e.Set(string(model.StatusOnHold))
	require.NoError(t, e.Confirm(ctx))
	assert.Equal(t, model.StatusOnHold, srv.UpdatesFor(11)[0].Status)
}

func TestBeginEdit_RequiresLoadedTask(t *testing.T) {
	s, _, _ := setup(t)
	_, err := s.BeginEdit(detail.FieldTitle)
	assert.ErrorIs(t, err, detail.ErrNotLoaded)
}

func TestParent_CandidatesAndSet(t *testing.T) {
	s, srv, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	assert.ErrorIs(t, s.SetParent(ctx, 10), detail.ErrParentNotCandidate, "candidates must be loaded first")

	cands, err := s.LoadParentCandidates(ctx)
	require.NoError(t, err)
	var ids []int64
	for _, c := range cands {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int64{10, 12}, ids, "self and deleted excluded, descendants kept")

	assert.ErrorIs(t, s.SetParent(ctx, 13), detail.ErrParentNotCandidate)
	assert.ErrorIs(t, s.SetParent(ctx, 11), detail.ErrParentNotCandidate)

	require.NoError(t, s.SetParent(ctx, 12))
	u := srv.UpdatesFor(11)
	require.Len(t, u, 1)
	assert.Equal(t, int64(12), u[0].Parent.ID)
}

func TestParent_ServerRejectsCycle(t *testing.T) {
	s, srv, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	_, err := s.LoadParentCandidates(ctx)
	require.NoError(t, err)

	srv.Fail("PUT", "/api/tasks/11", 400, `{"error":"Circular parent relationship"}`)
	err = s.SetParent(ctx, 12)
	require.Error(t, err)

	task, _ := s.Task()
	assert.Equal(t, int64(10), task.ParentID(), "unchanged")
}

func TestRemoveParent(t *testing.T) {
	s, srv, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	require.NoError(t, s.RemoveParent(ctx))
	u := srv.UpdatesFor(11)
	require.Len(t, u, 1)
	assert.Nil(t, u[0].Parent)

	task, _ := s.Task()
	assert.Nil(t, task.Parent)

	require.NoError(t, s.RemoveParent(ctx))
	assert.Len(t, srv.UpdatesFor(11), 1, "no request when there is no parent")
}

func TestDeleteTask_ClosesOnce(t *testing.T) {
	s, srv, closed := setup(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	require.NoError(t, s.DeleteTask(ctx))
	_, ok := srv.TaskByID(11)
	assert.False(t, ok)
	assert.Equal(t, 1, *closed)

	s.Close()
	assert.Equal(t, 1, *closed)
}

func TestEffortLevels_Cached(t *testing.T) {
	s, srv, _ := setup(t)
	ctx := context.Background()

	levels, err := s.EffortLevels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"SMALL", "MEDIUM", "LARGE"}, levels)

	_, err = s.EffortLevels(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Count("GET", "/api/tasks/effort-levels"))
}
