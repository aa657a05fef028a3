package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/reconcile"
	"github.com/nhle/planner/internal/taskstore"
	"github.com/nhle/planner/internal/testutil"
)

type recordingMutator struct {
	mu    sync.Mutex
	calls []model.Status
	err   error
}

func (m *recordingMutator) MutateStatus(_ context.Context, _ int64, status model.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, status)
	return m.err
}

func statusPtr(s model.Status) *model.Status { return &s }

func newReconciler(mut reconcile.Mutator, seen *[]reconcile.State) *reconcile.Reconciler {
	logger, _ := test.NewNullLogger()
	return reconcile.New(mut, logger, reconcile.WithObserver(func(tr reconcile.Transition) {
		*seen = append(*seen, tr.To)
	}))
}

func TestDrop_NoOpCases(t *testing.T) {
	task := model.Task{ID: 1, Status: model.StatusInProgress}

	tests := []struct {
		name string
		dest *model.Status
	}{
		{"outside any column", nil},
		{"same column", statusPtr(model.StatusInProgress)},
		{"non-board status", statusPtr(model.StatusOnHold)},
		{"deleted status", statusPtr(model.StatusDeleted)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mut := &recordingMutator{}
			var seen []reconcile.State
			r := newReconciler(mut, &seen)

			d := r.Begin(task)
			assert.Equal(t, reconcile.Dragging, d.State())

			res, err := d.Drop(context.Background(), tt.dest)
			require.NoError(t, err)
			assert.Equal(t, reconcile.NoOp, res.Outcome)
			assert.Empty(t, mut.calls, "no request")
			assert.Equal(t, reconcile.Idle, d.State())
			assert.Equal(t, []reconcile.State{reconcile.Dragging, reconcile.Idle}, seen)
		})
	}
}

func TestDrop_Commit(t *testing.T) {
	mut := &recordingMutator{}
	var seen []reconcile.State
	r := newReconciler(mut, &seen)

	res, err := r.Begin(model.Task{ID: 4, Status: model.StatusNotStarted}).Drop(context.Background(), statusPtr(model.StatusDone))

	require.NoError(t, err)
	assert.Equal(t, reconcile.Committed, res.Outcome)
	assert.Equal(t, model.StatusNotStarted, res.From)
	assert.Equal(t, model.StatusDone, res.To)
	assert.Equal(t, []model.Status{model.StatusDone}, mut.calls)
	assert.Equal(t, []reconcile.State{reconcile.Dragging, reconcile.Committing, reconcile.Idle}, seen)
}

func TestDrop_RollbackMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &api.APIError{StatusCode: 400, Message: "Cannot complete a blocked task"}, "Cannot complete a blocked task"},
		{"transport error", errors.New("connection refused"), reconcile.FailedMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mut := &recordingMutator{err: tt.err}
			var seen []reconcile.State
			r := newReconciler(mut, &seen)

			res, err := r.Begin(model.Task{ID: 4, Status: model.StatusNotStarted}).Drop(context.Background(), statusPtr(model.StatusInProgress))

			require.NoError(t, err)
			assert.Equal(t, reconcile.RolledBack, res.Outcome)
			assert.Equal(t, tt.want, res.Message)
			assert.ErrorIs(t, res.Err, tt.err)
			assert.Equal(t, []reconcile.State{
				reconcile.Dragging, reconcile.Committing, reconcile.RollingBack, reconcile.Idle,
			}, seen)
		})
	}
}

func TestDrop_AtMostOnce(t *testing.T) {
	mut := &recordingMutator{}
	var seen []reconcile.State
	d := newReconciler(mut, &seen).Begin(model.Task{ID: 1, Status: model.StatusNotStarted})

	_, err := d.Drop(context.Background(), statusPtr(model.StatusDone))
	require.NoError(t, err)

	_, err = d.Drop(context.Background(), statusPtr(model.StatusInProgress))
	assert.ErrorIs(t, err, reconcile.ErrDragFinished)
	assert.Len(t, mut.calls, 1)
}

func TestCancel(t *testing.T) {
	mut := &recordingMutator{}
	var seen []reconcile.State
	d := newReconciler(mut, &seen).Begin(model.Task{ID: 1, Status: model.StatusNotStarted})

	d.Cancel()
	d.Cancel()

	assert.Equal(t, reconcile.Idle, d.State())
	_, err := d.Drop(context.Background(), statusPtr(model.StatusDone))
	assert.ErrorIs(t, err, reconcile.ErrDragFinished)
	assert.Empty(t, mut.calls)
}

func TestDrop_AgainstTaskStore(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	srv.Seed(
		model.Task{ID: 1, Title: "Plan", ProjectID: 5, Status: model.StatusNotStarted, EffortLevel: "SMALL"},
		model.Task{ID: 2, Title: "Ship", ProjectID: 5, Status: model.StatusInProgress, EffortLevel: "LARGE"},
	)
	logger, _ := test.NewNullLogger()
	store := taskstore.New(srv.Client(), logger)
	ctx := context.Background()
	require.NoError(t, store.Load(ctx, 5))

	r := reconcile.New(store, logger)

	task, err := store.Task(1)
	require.NoError(t, err)
	res, err := r.Begin(task).Drop(ctx, statusPtr(model.StatusInProgress))
	require.NoError(t, err)
	assert.Equal(t, reconcile.Committed, res.Outcome)

	updated, err := store.Task(1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, updated.Status, "collection re-synced from server")

	srv.Fail("PUT", "/api/tasks/2", 422, `{"error":"Status change not allowed"}`)
	task2, _ := store.Task(2)
	res, err = r.Begin(task2).Drop(ctx, statusPtr(model.StatusDone))
	require.NoError(t, err)
	assert.Equal(t, reconcile.RolledBack, res.Outcome)
	assert.Equal(t, "Status change not allowed", res.Message)

	unchanged, _ := store.Task(2)
	assert.Equal(t, model.StatusInProgress, unchanged.Status)
}
