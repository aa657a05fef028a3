package schedule_test

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/schedule"
	"github.com/nhle/planner/internal/testutil"
)

func caches(t *testing.T) map[string]schedule.Cache {
	return map[string]schedule.Cache{
		"memory": schedule.NewMemoryCache(),
		"sqlite": schedule.NewStoreCache(testutil.NewTestStore(t)),
	}
}

func fixture(totalDays int) model.ScheduleResult {
	return model.ScheduleResult{
		TotalDays: totalDays,
		Tasks: []model.ScheduleTask{{
			Task:     model.Task{ID: 1, Title: "Root", Status: model.StatusNotStarted},
			Subtasks: []model.SubtaskSummary{{ID: 2, Title: "Child", Status: model.StatusDone}},
		}},
	}
}

func TestRestore_EmptyCacheNoNetwork(t *testing.T) {
	for name, cache := range caches(t) {
		t.Run(name, func(t *testing.T) {
			srv := testutil.NewFakeServer(t)
			logger, _ := test.NewNullLogger()
			s := schedule.NewScheduler(srv.Client(), cache, logger)

			_, ok := s.Restore(context.Background(), 1)
			assert.False(t, ok)
			assert.Empty(t, srv.Requests())
		})
	}
}

func TestGenerate_OverwritesCache(t *testing.T) {
	for name, cache := range caches(t) {
		t.Run(name, func(t *testing.T) {
			srv := testutil.NewFakeServer(t)
			srv.Projects = []model.Project{{ID: 1, Name: "P"}}
			srv.Schedules[1] = fixture(4)
			logger, _ := test.NewNullLogger()
			s := schedule.NewScheduler(srv.Client(), cache, logger)
			ctx := context.Background()

			res, err := s.Generate(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, 4, res.TotalDays)

			srv.Schedules[1] = fixture(6)
			_, err = s.Generate(ctx, 1)
			require.NoError(t, err)

			restored, ok := s.Restore(ctx, 1)
			require.True(t, ok)
			assert.Equal(t, 6, restored.TotalDays, "second result replaces the first")
			assert.Equal(t, "Child", restored.Tasks[0].Subtasks[0].Title)
			assert.Equal(t, 2, srv.Count("POST", "/api/projects/1/schedule"))
			assert.False(t, s.Generating(1))
		})
	}
}

func TestGenerate_FailureKeepsCache(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	srv.Projects = []model.Project{{ID: 1}}
	cache := schedule.NewMemoryCache()
	require.NoError(t, cache.Put(context.Background(), 1, fixture(3)))
	logger, _ := test.NewNullLogger()
	s := schedule.NewScheduler(srv.Client(), cache, logger)

	srv.Fail("POST", "/api/projects/1/schedule", 500, `{}`)
	_, err := s.Generate(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, schedule.GenerateFailedMessage, schedule.ErrMessage(err))

	restored, ok := s.Restore(context.Background(), 1)
	require.True(t, ok)
	assert.Equal(t, 3, restored.TotalDays)
}

func TestGenerate_ServerMessage(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	srv.Projects = []model.Project{{ID: 1}}
	logger, _ := test.NewNullLogger()
	s := schedule.NewScheduler(srv.Client(), schedule.NewMemoryCache(), logger)

	srv.Fail("POST", "/api/projects/1/schedule", 400, `{"message":"Project has no start date"}`)
	_, err := s.Generate(context.Background(), 1)
	assert.Equal(t, "Project has no start date", schedule.ErrMessage(err))
}

func TestMemoryCache_KeyedByProject(t *testing.T) {
	c := schedule.NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, c.Put(ctx, 1, fixture(1)))

	_, ok, err := c.Get(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	c.Clear()
	_, ok, _ = c.Get(ctx, 1)
	assert.False(t, ok)
}
