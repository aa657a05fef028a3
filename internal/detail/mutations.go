package detail

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/projection"
	"github.com/nhle/planner/internal/validate"
)

// mutate runs one request and, when it succeeds, re-fetches the task, its
// logs, and the touched parts.
func (s *Session) mutate(ctx context.Context, op string, req func() error, touched ...part) error {
	log := s.log.WithField("op", op)
	if err := req(); err != nil {
		log.WithError(err).Warn("task mutation failed")
		return err
	}
	log.Info("task mutated")
	return s.fetch(ctx, append([]part{partTask, partLogs}, touched...)...)
}

// AddComment posts text as a comment. Blank text is ignored.
func (s *Session) AddComment(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.mutate(ctx, "add_comment", func() error {
		return s.gw.AddComment(ctx, s.taskID, text)
	}, partComments)
}

// DeleteComment deletes a comment written by the current user.
func (s *Session) DeleteComment(ctx context.Context, c model.Comment) error {
	if !s.CanDeleteComment(c) {
		return validate.Newf("You can only delete your own comments.")
	}
	return s.mutate(ctx, "delete_comment", func() error {
		return s.gw.DeleteComment(ctx, c.ID)
	}, partComments)
}

// AddTag attaches tag. Blank tags are ignored.
func (s *Session) AddTag(ctx context.Context, tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil
	}
	return s.mutate(ctx, "add_tag", func() error {
		return s.gw.AddTag(ctx, s.taskID, tag)
	}, partTags)
}

// DeleteTag detaches tag.
func (s *Session) DeleteTag(ctx context.Context, tag string) error {
	return s.mutate(ctx, "delete_tag", func() error {
		return s.gw.DeleteTag(ctx, s.taskID, tag)
	}, partTags)
}

// Assign assigns a project member to the task.
func (s *Session) Assign(ctx context.Context, userID int64) error {
	return s.mutate(ctx, "assign", func() error {
		return s.gw.Assign(ctx, s.taskID, userID)
	}, partAssignees)
}

// Unassign removes an assignee.
func (s *Session) Unassign(ctx context.Context, userID int64) error {
	return s.mutate(ctx, "unassign", func() error {
		return s.gw.Unassign(ctx, s.taskID, userID)
	}, partAssignees)
}

// DeleteTask deletes the task and closes the session.
func (s *Session) DeleteTask(ctx context.Context) error {
	if err := s.gw.DeleteTask(ctx, s.taskID); err != nil {
		s.log.WithError(err).Warn("deleting task")
		return err
	}
	s.log.Info("task deleted")
	s.Close()
	return nil
}

// EffortLevels returns the effort levels accepted by the server, fetching
// them on first use.
func (s *Session) EffortLevels(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	cached := s.effortLevels
	s.mu.RUnlock()
	if cached != nil {
		return append([]string(nil), cached...), nil
	}

	levels, err := s.gw.EffortLevels(ctx)
	if err != nil {
		return nil, err
	}
	if levels == nil {
		levels = []string{}
	}
	s.mu.Lock()
	s.effortLevels = levels
	s.mu.Unlock()
	return append([]string(nil), levels...), nil
}

// LoadParentCandidates fetches the project's tasks and keeps those eligible
// as parent: every non-deleted task except this one.
func (s *Session) LoadParentCandidates(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.gw.TasksByProject(ctx, s.projectID)
	if err != nil {
		return nil, err
	}
	candidates := projection.ParentCandidates(tasks, s.taskID)

	s.mu.Lock()
	s.candidates = candidates
	s.candidatesLoaded = true
	s.mu.Unlock()
	return append([]model.Task(nil), candidates...), nil
}

// SetParent makes parentID the task's parent. LoadParentCandidates must
// have been called and parentID must be among its results.
func (s *Session) SetParent(ctx context.Context, parentID int64) error {
	s.mu.RLock()
	loaded := s.candidatesLoaded
	found := false
	for _, c := range s.candidates {
		if c.ID == parentID {
			found = true
			break
		}
	}
	s.mu.RUnlock()

	if !loaded {
		return fmt.Errorf("set parent: candidates not loaded: %w", ErrParentNotCandidate)
	}
	if !found {
		return fmt.Errorf("set parent %d: %w", parentID, ErrParentNotCandidate)
	}

	return s.update(ctx, "set_parent", func(u *model.TaskUpdate, _ model.Task) error {
		u.Parent = &model.ParentPayload{ID: parentID}
		return nil
	})
}

// RemoveParent detaches the task from its parent. A task without a parent
// is left alone.
func (s *Session) RemoveParent(ctx context.Context) error {
	task, err := s.Task()
	if err != nil {
		return err
	}
	if task.Parent == nil {
		return nil
	}
	return s.update(ctx, "remove_parent", func(u *model.TaskUpdate, _ model.Task) error {
		u.Parent = nil
		return nil
	})
}

// update sends a full-record PUT built from the loaded task with edit
// applied, then reloads the task and its logs.
func (s *Session) update(ctx context.Context, op string, edit func(u *model.TaskUpdate, current model.Task) error) error {
	task, err := s.Task()
	if err != nil {
		return err
	}
	payload := task.UpdatePayload()
	if err := edit(&payload, task); err != nil {
		return err
	}

	return s.mutate(ctx, op, func() error {
		return s.gw.UpdateTask(ctx, s.taskID, payload)
	})
}
