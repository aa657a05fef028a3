package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/internal/testutil"
)

func sampleSchedule(totalDays int) model.ScheduleResult {
	start := "2024-04-01T00:00:00.000Z"
	return model.ScheduleResult{
		TotalDays: totalDays,
		Tasks: []model.ScheduleTask{{
			Task: model.Task{ID: 1, Title: "Design", Status: model.StatusInProgress, StartDate: &start},
			Subtasks: []model.SubtaskSummary{
				{ID: 2, Title: "Wireframes", Status: model.StatusDone},
			},
		}},
	}
}

func TestSchedule_MissingIsNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.GetSchedule(context.Background(), 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSchedule_PutOverwrites(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSchedule(ctx, 7, sampleSchedule(3)))
	require.NoError(t, s.PutSchedule(ctx, 7, sampleSchedule(9)))

	got, err := s.GetSchedule(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 9, got.TotalDays)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "Design", got.Tasks[0].Title)
	assert.Equal(t, "2024-04-01T00:00:00.000Z", *got.Tasks[0].StartDate)
	assert.Equal(t, model.StatusDone, got.Tasks[0].Subtasks[0].Status)

	_, err = s.GetSchedule(ctx, 8)
	assert.ErrorIs(t, err, store.ErrNotFound, "entries are keyed by project")
}

func TestSessions_AreIsolatedAndPurged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	first := testutil.OpenTestStore(t, path)
	require.NoError(t, first.PutSchedule(ctx, 1, sampleSchedule(4)))

	second := testutil.OpenTestStore(t, path)
	assert.NotEqual(t, first.Session(), second.Session())

	_, err := second.GetSchedule(ctx, 1)
	assert.ErrorIs(t, err, store.ErrNotFound, "a new session starts empty")

	n, err := second.PurgeOtherSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = first.GetSchedule(ctx, 1)
	assert.ErrorIs(t, err, store.ErrNotFound, "purged rows are gone")
}

func TestClearSession(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutSchedule(ctx, 1, sampleSchedule(2)))
	require.NoError(t, s.SetView(ctx, 1, "board"))

	require.NoError(t, s.ClearSession(ctx))

	_, err := s.GetSchedule(ctx, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetView(ctx, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.PutSchedule(ctx, 1, sampleSchedule(5)), "store stays usable")
}

func TestView_RoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetView(ctx, 3, "schedule"))
	require.NoError(t, s.SetView(ctx, 3, "board"))

	v, err := s.GetView(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "board", v)
}

func TestMigrations_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	testutil.OpenTestStore(t, path)
	s := testutil.OpenTestStore(t, path)

	require.NoError(t, s.SetView(context.Background(), 1, "list"))
}
