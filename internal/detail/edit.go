package detail

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/validate"
)

// Field is an editable scalar field of a task.
type Field int

const (
	FieldTitle Field = iota
	FieldDescription
	FieldStatus
	FieldEffort
	FieldStartDate
	FieldEndDate
)

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldDescription:
		return "description"
	case FieldStatus:
		return "status"
	case FieldEffort:
		return "effort"
	case FieldStartDate:
		return "start_date"
	case FieldEndDate:
		return "end_date"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Edit is a pending change to one field. Nothing is sent until Confirm.
type Edit struct {
	s     *Session
	field Field

	mu       sync.Mutex
	original string
	pending  string
	done     bool
}

// BeginEdit snapshots the current value of field into a pending buffer.
// Dates are snapshotted as YYYY-MM-DD.
func (s *Session) BeginEdit(field Field) (*Edit, error) {
	task, err := s.Task()
	if err != nil {
		return nil, err
	}

	var v string
	switch field {
	case FieldTitle:
		v = task.Title
	case FieldDescription:
		v = task.Description
	case FieldStatus:
		v = string(task.Status)
	case FieldEffort:
		v = task.EffortLevel
	case FieldStartDate:
		v = model.CalendarDate(task.StartDate)
	case FieldEndDate:
		v = model.CalendarDate(task.EndDate)
	default:
		return nil, fmt.Errorf("begin edit: unknown %s", field)
	}
	return &Edit{s: s, field: field, original: v, pending: v}, nil
}

// Field returns the field being edited.
func (e *Edit) Field() Field { return e.field }

// Original returns the value snapshotted when the edit began.
func (e *Edit) Original() string { return e.original }

// Pending returns the current buffered value.
func (e *Edit) Pending() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// Set replaces the buffered value.
func (e *Edit) Set(v string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = v
}

// Done reports whether the edit was confirmed or cancelled.
func (e *Edit) Done() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// Cancel discards the pending value without sending anything.
func (e *Edit) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.done = true
}

// Confirm validates the pending value and sends a full-record update built
// from the latest loaded task. A validation failure leaves the edit open.
func (e *Edit) Confirm(ctx context.Context) error {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return fmt.Errorf("confirm %s: edit already finished", e.field)
	}
	v := e.pending
	e.mu.Unlock()

	err := e.s.update(ctx, "edit_"+e.field.String(), func(u *model.TaskUpdate, current model.Task) error {
		return applyField(u, current, e.field, v)
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.done = true
	e.mu.Unlock()
	return nil
}

func applyField(u *model.TaskUpdate, current model.Task, field Field, v string) error {
	switch field {
	case FieldTitle:
		v = strings.TrimSpace(v)
		if v == "" {
			return validate.Newf("Title cannot be empty.")
		}
		u.Title = v

	case FieldDescription:
		u.Description = v

	case FieldStatus:
		st := model.Status(v)
		valid := false
		for _, s := range model.AllStatuses {
			if s == st {
				valid = true
			}
		}
		if !valid {
			return validate.Newf("Unknown status %q.", v)
		}
		u.Status = st

	case FieldEffort:
		if strings.TrimSpace(v) == "" {
			return validate.Newf("Effort level is required.")
		}
		u.EffortLevel = v

	case FieldStartDate:
		start, err := model.ParseDate(v)
		if err != nil {
			return validate.Newf("Start date must be a date in YYYY-MM-DD format.")
		}
		iso := model.StartOfDay(v)
		u.StartDate = &iso
		// An end date before the new start is pulled up to the start.
		if end, ok := current.End(); ok && end.Before(start) {
			u.EndDate = &iso
		}

	case FieldEndDate:
		end, err := model.ParseDate(v)
		if err != nil {
			return validate.Newf("End date must be a date in YYYY-MM-DD format.")
		}
		if start, ok := current.Start(); ok {
			startDay, _ := model.ParseDate(start.UTC().Format(model.DateLayout))
			if end.Before(startDay) {
				return validate.Newf("End date cannot be before start date.")
			}
		}
		iso := model.EndOfDay(v)
		u.EndDate = &iso

	default:
		return fmt.Errorf("apply edit: unknown %s", field)
	}
	return nil
}
