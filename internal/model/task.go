package model

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a task as reported by the server.
type Status string

// Task status constants.
const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusOnHold     Status = "ON_HOLD"
	StatusDeleted    Status = "DELETED"
)

// AllStatuses lists every status the server may return, in display order.
var AllStatuses = []Status{
	StatusNotStarted,
	StatusInProgress,
	StatusDone,
	StatusOnHold,
	StatusDeleted,
}

// BoardStatuses are the kanban columns shown on the board, in column order.
var BoardStatuses = []Status{
	StatusNotStarted,
	StatusInProgress,
	StatusDone,
}

// Label returns a human-readable form of the status ("IN_PROGRESS" -> "In progress").
func (s Status) Label() string {
	str := strings.ToLower(strings.ReplaceAll(string(s), "_", " "))
	if str == "" {
		return ""
	}
	return strings.ToUpper(str[:1]) + str[1:]
}

// IsBoardColumn reports whether the status is one of the board columns.
func (s Status) IsBoardColumn() bool {
	for _, b := range BoardStatuses {
		if b == s {
			return true
		}
	}
	return false
}

// TaskRef is a lightweight reference to another task.
type TaskRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title,omitempty"`
}

// Task is a unit of work belonging to a project.
type Task struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartDate   *string  `json:"startDate"`
	EndDate     *string  `json:"endDate"`
	Status      Status   `json:"status"`
	EffortLevel string   `json:"effortLevel"`
	Parent      *TaskRef `json:"parent"`
	ProjectID   int64    `json:"projectId"`
	CreatedByID int64    `json:"createdById"`

	// TimeEstimate is a duration in milliseconds computed by the server.
	TimeEstimate *int64 `json:"timeEstimate"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// IsDeleted reports whether the task has been moved to the terminal DELETED state.
func (t Task) IsDeleted() bool {
	return t.Status == StatusDeleted
}

// Start parses StartDate. The second return value is false when the date
// is unset or unparseable.
func (t Task) Start() (time.Time, bool) {
	return parseTimestamp(t.StartDate)
}

// End parses EndDate. The second return value is false when the date
// is unset or unparseable.
func (t Task) End() (time.Time, bool) {
	return parseTimestamp(t.EndDate)
}

// EstimateDays converts TimeEstimate to days. Zero when not estimated.
func (t Task) EstimateDays() float64 {
	if t.TimeEstimate == nil || *t.TimeEstimate <= 0 {
		return 0
	}
	return float64(*t.TimeEstimate) / float64(24*time.Hour/time.Millisecond)
}

// ParentID returns the parent task id, or 0 when the task has no parent.
func (t Task) ParentID() int64 {
	if t.Parent == nil {
		return 0
	}
	return t.Parent.ID
}

// ParentPayload is the wire form of a parent reference in write requests.
type ParentPayload struct {
	ID int64 `json:"id"`
}

// TaskUpdate is the body of a full-record PUT. The server replaces every
// field, so it must always be built from a complete Task.
type TaskUpdate struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	StartDate   *string        `json:"startDate"`
	EndDate     *string        `json:"endDate"`
	Status      Status         `json:"status"`
	EffortLevel string         `json:"effortLevel"`
	Parent      *ParentPayload `json:"parent"`
}

// UpdatePayload returns the full-record update body for t. Callers
// override the edited field(s) on the returned value.
func (t Task) UpdatePayload() TaskUpdate {
	u := TaskUpdate{
		Title:       t.Title,
		Description: t.Description,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Status:      t.Status,
		EffortLevel: t.EffortLevel,
	}
	if t.Parent != nil {
		u.Parent = &ParentPayload{ID: t.Parent.ID}
	}
	return u
}

// NewTask is the body of a create-task request.
type NewTask struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	StartDate   *string        `json:"startDate"`
	EndDate     *string        `json:"endDate"`
	ProjectID   int64          `json:"projectId"`
	Parent      *ParentPayload `json:"parent"`
	EffortLevel string         `json:"effortLevel"`
}

// SubtaskSummary is the condensed form of a child task in a schedule.
type SubtaskSummary struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Status Status `json:"status"`
}

// ScheduleTask is a top-level task in a generated schedule.
type ScheduleTask struct {
	Task
	Subtasks []SubtaskSummary `json:"subtasks"`
}

// ScheduleResult is the output of the server-side schedule computation.
type ScheduleResult struct {
	Tasks     []ScheduleTask `json:"tasks"`
	TotalDays int            `json:"totalDays"`
}

// ActivityLog is a single audit entry for a task.
type ActivityLog struct {
	ID        int64  `json:"id"`
	TaskID    int64  `json:"taskId"`
	UserID    int64  `json:"userId"`
	Action    string `json:"action"`
	Details   string `json:"details"`
	CreatedAt string `json:"createdAt"`
}

// Comment is a user comment on a task.
type Comment struct {
	ID        int64  `json:"id"`
	TaskID    int64  `json:"taskId"`
	UserID    int64  `json:"userId"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	UserName  string `json:"userName"`
}

// Assignee is a user assigned to a task. The server spells the id field
// "userid".
type Assignee struct {
	UserID int64  `json:"userid"`
	Name   string `json:"name"`
}
