// Package schedule fetches server-computed project schedules and keeps the
// last result per project for the current session.
package schedule

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/model"
)

// GenerateFailedMessage is shown when generation fails without a server message.
const GenerateFailedMessage = "Failed to generate schedule"

// Generator asks the server to compute a schedule.
type Generator interface {
	GenerateSchedule(ctx context.Context, projectID int64) (*model.ScheduleResult, error)
}

// Scheduler hydrates schedules from the cache and regenerates them on
// demand. Cached entries are never invalidated by task edits; the user
// regenerates explicitly.
type Scheduler struct {
	gen   Generator
	cache Cache
	log   logrus.FieldLogger

	mu         sync.Mutex
	generating map[int64]int
}

// NewScheduler returns a Scheduler.
func NewScheduler(gen Generator, cache Cache, log logrus.FieldLogger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{gen: gen, cache: cache, log: log, generating: map[int64]int{}}
}

// Restore returns the cached schedule for projectID without touching the
// network. ok is false when nothing is cached or the cache is unreadable.
func (s *Scheduler) Restore(ctx context.Context, projectID int64) (model.ScheduleResult, bool) {
	res, ok, err := s.cache.Get(ctx, projectID)
	if err != nil {
		s.log.WithError(err).WithField("project_id", projectID).Warn("reading cached schedule")
		return model.ScheduleResult{}, false
	}
	return res, ok
}

// Generate requests a fresh schedule and overwrites the cache entry. On
// failure the cache is left untouched.
func (s *Scheduler) Generate(ctx context.Context, projectID int64) (model.ScheduleResult, error) {
	s.mu.Lock()
	s.generating[projectID]++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.generating[projectID]--
		if s.generating[projectID] <= 0 {
			delete(s.generating, projectID)
		}
		s.mu.Unlock()
	}()

	log := s.log.WithFields(logrus.Fields{"op": "generate_schedule", "project_id": projectID})

	res, err := s.gen.GenerateSchedule(ctx, projectID)
	if err != nil {
		log.WithError(err).Warn("schedule generation failed")
		return model.ScheduleResult{}, err
	}
	if res.Tasks == nil {
		res.Tasks = []model.ScheduleTask{}
	}

	if err := s.cache.Put(ctx, projectID, *res); err != nil {
		log.WithError(err).Warn("caching schedule")
	}
	log.WithFields(logrus.Fields{"tasks": len(res.Tasks), "total_days": res.TotalDays}).Info("schedule generated")
	return *res, nil
}

// Generating reports whether a generation for projectID is in flight.
func (s *Scheduler) Generating(projectID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating[projectID] > 0
}

// ErrMessage converts a Generate error into user-facing text.
func ErrMessage(err error) string {
	return api.Message(err, GenerateFailedMessage)
}
