// Package taskstore holds the authoritative client-side copy of a
// project's tasks and performs every status mutation against the server.
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/model"
)

// ErrTaskNotFound is returned when a task id is not in the loaded collection.
var ErrTaskNotFound = errors.New("task not found")

// LoadFailedMessage is shown when a load fails without a server message.
const LoadFailedMessage = "Failed to load tasks"

// Gateway is the subset of the API client the store needs.
type Gateway interface {
	TasksByProject(ctx context.Context, projectID int64) ([]model.Task, error)
	UpdateTask(ctx context.Context, taskID int64, u model.TaskUpdate) error
}

// Store is the task collection for one project. The collection always
// mirrors the last successful server response; it is never edited locally.
type Store struct {
	gw  Gateway
	log logrus.FieldLogger

	mu        sync.RWMutex
	projectID int64
	tasks     []model.Task
	inflight  int
	err       error
	errMsg    string
}

// New returns an empty Store.
func New(gw Gateway, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{gw: gw, log: log}
}

// Load fetches the tasks of projectID and replaces the collection. On
// failure the previous collection is kept and the error state is set.
// Binding a different project empties the collection before the request,
// so a failed first load of that project leaves it empty.
func (s *Store) Load(ctx context.Context, projectID int64) error {
	s.mu.Lock()
	if s.projectID != projectID {
		// Switching projects never shows another project's tasks.
		s.tasks = nil
	}
	s.projectID = projectID
	s.inflight++
	s.mu.Unlock()

	tasks, err := s.gw.TasksByProject(ctx, projectID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if s.projectID != projectID {
		// A newer Load for another project started meanwhile.
		return err
	}

	if err != nil {
		s.err = err
		s.errMsg = api.Message(err, LoadFailedMessage)
		s.log.WithError(err).WithField("project_id", projectID).Warn("loading tasks")
		return err
	}

	s.tasks = tasks
	s.err = nil
	s.errMsg = ""
	s.log.WithFields(logrus.Fields{"project_id": projectID, "count": len(tasks)}).Debug("tasks loaded")
	return nil
}

// Resync reloads the currently bound project.
func (s *Store) Resync(ctx context.Context) error {
	s.mu.RLock()
	id := s.projectID
	s.mu.RUnlock()
	if id == 0 {
		return fmt.Errorf("resync: no project loaded")
	}
	return s.Load(ctx, id)
}

// MutateStatus sends a full-record update of taskID with only the status
// replaced, then re-syncs the whole collection. The returned error is the
// update's; a failed re-sync is reported through Err.
func (s *Store) MutateStatus(ctx context.Context, taskID int64, status model.Status) error {
	task, err := s.Task(taskID)
	if err != nil {
		return err
	}

	payload := task.UpdatePayload()
	payload.Status = status

	log := s.log.WithFields(logrus.Fields{
		"op":      "mutate_status",
		"task_id": taskID,
		"from":    task.Status,
		"status":  status,
	})

	if err := s.gw.UpdateTask(ctx, taskID, payload); err != nil {
		log.WithError(err).Warn("status update rejected")
		return err
	}
	log.Info("status updated")

	if err := s.Resync(ctx); err != nil {
		log.WithError(err).Warn("re-sync after status update")
	}
	return nil
}

// Tasks returns a copy of the collection in server order.
func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Task returns the task with id, or ErrTaskNotFound.
func (s *Store) Task(id int64) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, fmt.Errorf("task %d: %w", id, ErrTaskNotFound)
}

// Err returns the error of the last load, or nil if it succeeded.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// ErrMessage returns the user-facing text for Err, or "".
func (s *Store) ErrMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Loading reports whether a load is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// ProjectID returns the project the store is bound to, or 0.
func (s *Store) ProjectID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectID
}
