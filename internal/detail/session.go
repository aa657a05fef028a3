// Package detail manages the state of one open task: its aggregate of
// related resources, the mutations available on it, and field edits.
package detail

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/projection"
)

var (
	// ErrNotLoaded is returned when an operation needs the task before it
	// has been fetched.
	ErrNotLoaded = errors.New("task not loaded")

	// ErrParentNotCandidate is returned by SetParent for an id that is not
	// among the loaded parent candidates.
	ErrParentNotCandidate = errors.New("not an eligible parent")
)

// Gateway is the subset of the API client a Session needs.
type Gateway interface {
	Task(ctx context.Context, taskID int64) (*model.Task, error)
	ActivityLogs(ctx context.Context, taskID int64) ([]model.ActivityLog, error)
	Comments(ctx context.Context, taskID int64) ([]model.Comment, error)
	Tags(ctx context.Context, taskID int64) ([]string, error)
	Assignees(ctx context.Context, taskID int64) ([]model.Assignee, error)
	Members(ctx context.Context, projectID int64) ([]model.Member, error)
	TasksByProject(ctx context.Context, projectID int64) ([]model.Task, error)
	EffortLevels(ctx context.Context) ([]string, error)

	UpdateTask(ctx context.Context, taskID int64, u model.TaskUpdate) error
	DeleteTask(ctx context.Context, taskID int64) error
	AddComment(ctx context.Context, taskID int64, text string) error
	DeleteComment(ctx context.Context, commentID int64) error
	AddTag(ctx context.Context, taskID int64, tag string) error
	DeleteTag(ctx context.Context, taskID int64, tag string) error
	Assign(ctx context.Context, taskID, userID int64) error
	Unassign(ctx context.Context, taskID, userID int64) error
}

// part names one fetchable piece of the aggregate.
type part int

const (
	partTask part = iota
	partLogs
	partComments
	partTags
	partAssignees
	partMembers
)

var allParts = []part{partTask, partLogs, partComments, partTags, partAssignees, partMembers}

// Session is the state of one open task overlay.
type Session struct {
	gw        Gateway
	log       logrus.FieldLogger
	projectID int64
	taskID    int64
	userID    int64
	onClose   func()
	closeOnce sync.Once

	mu               sync.RWMutex
	agg              model.TaskDetailAggregate
	candidates       []model.Task
	candidatesLoaded bool
	effortLevels     []string
	inflight         int
	err              error
}

// Option configures a Session.
type Option func(*Session)

// WithCurrentUser sets the id of the signed-in user, used by CanDeleteComment.
func WithCurrentUser(userID int64) Option {
	return func(s *Session) { s.userID = userID }
}

// WithOnClose registers fn to run once when the session closes. The
// workspace uses it to re-sync its task collection.
func WithOnClose(fn func()) Option {
	return func(s *Session) { s.onClose = fn }
}

// WithLogger sets the session logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Session) { s.log = log }
}

// New returns a Session for taskID in projectID. Nothing is fetched until Open.
func New(gw Gateway, projectID, taskID int64, opts ...Option) *Session {
	s := &Session{
		gw:        gw,
		projectID: projectID,
		taskID:    taskID,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithFields(logrus.Fields{"project_id": projectID, "task_id": taskID})
	return s
}

// TaskID returns the id of the task this session shows.
func (s *Session) TaskID() int64 { return s.taskID }

// ProjectID returns the project of the task.
func (s *Session) ProjectID() int64 { return s.projectID }

// Open fetches the task, its logs, comments, tags, assignees, and the
// project members concurrently. Parts that resolve are kept even when
// another part fails.
func (s *Session) Open(ctx context.Context) error {
	return s.fetch(ctx, allParts...)
}

// Refresh re-fetches the whole aggregate.
func (s *Session) Refresh(ctx context.Context) error {
	return s.fetch(ctx, allParts...)
}

// Aggregate returns a copy of the current aggregate.
func (s *Session) Aggregate() model.TaskDetailAggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a := s.agg
	if a.Task != nil {
		t := *a.Task
		a.Task = &t
	}
	a.Logs = append([]model.ActivityLog(nil), a.Logs...)
	a.Comments = append([]model.Comment(nil), a.Comments...)
	a.Tags = append([]string(nil), a.Tags...)
	a.Assignees = append([]model.Assignee(nil), a.Assignees...)
	a.Members = append([]model.Member(nil), a.Members...)
	a.AvailableMembers = append([]model.Member(nil), a.AvailableMembers...)
	return a
}

// Task returns the loaded task, or ErrNotLoaded.
func (s *Session) Task() (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.agg.Task == nil {
		return model.Task{}, ErrNotLoaded
	}
	return *s.agg.Task, nil
}

// Err returns the error of the last fetch, or nil.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Loading reports whether any fetch is in flight.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// CanDeleteComment reports whether the current user wrote c.
func (s *Session) CanDeleteComment(c model.Comment) bool {
	return s.userID != 0 && c.UserID == s.userID
}

// Close ends the session. The close callback runs exactly once no matter
// how often Close is called.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
	})
}

func (s *Session) fetch(ctx context.Context, parts ...part) error {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	p := pool.New().WithErrors()
	for _, pt := range parts {
		p.Go(func() error { return s.fetchPart(ctx, pt) })
	}
	err := p.Wait()

	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	if err != nil {
		s.log.WithError(err).Warn("loading task detail")
	}
	return err
}

func (s *Session) fetchPart(ctx context.Context, pt part) error {
	switch pt {
	case partTask:
		t, err := s.gw.Task(ctx, s.taskID)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.agg.Task = t
		s.mu.Unlock()
	case partLogs:
		logs, err := s.gw.ActivityLogs(ctx, s.taskID)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.agg.Logs = projection.ReverseLogs(logs)
		s.mu.Unlock()
	case partComments:
		comments, err := s.gw.Comments(ctx, s.taskID)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.agg.Comments = comments
		s.mu.Unlock()
	case partTags:
		tags, err := s.gw.Tags(ctx, s.taskID)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.agg.Tags = tags
		s.mu.Unlock()
	case partAssignees:
		assignees, err := s.gw.Assignees(ctx, s.taskID)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.agg.Assignees = assignees
		s.agg.AvailableMembers = projection.AvailableMembers(s.agg.Members, assignees)
		s.mu.Unlock()
	case partMembers:
		members, err := s.gw.Members(ctx, s.projectID)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.agg.Members = members
		s.agg.AvailableMembers = projection.AvailableMembers(members, s.agg.Assignees)
		s.mu.Unlock()
	default:
		return fmt.Errorf("unknown detail part %d", pt)
	}
	return nil
}
