// Package projection derives the list, board, and detail views from a task
// collection. Every function is pure: inputs are never modified and the
// same input always yields the same output.
package projection

import "github.com/nhle/planner/internal/model"

// Column is one board column.
type Column struct {
	Status model.Status
	Tasks  []model.Task
}

// List returns the non-deleted tasks in server order. ON_HOLD tasks are
// kept.
func List(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsDeleted() {
			out = append(out, t)
		}
	}
	return out
}

// Board partitions tasks into the board columns, in column order. Tasks
// whose status is not a board column are omitted; within a column the
// server order is preserved.
func Board(tasks []model.Task) []Column {
	cols := make([]Column, len(model.BoardStatuses))
	for i, st := range model.BoardStatuses {
		cols[i] = Column{Status: st, Tasks: []model.Task{}}
	}
	for _, t := range tasks {
		if i := ColumnIndex(t.Status); i >= 0 {
			cols[i].Tasks = append(cols[i].Tasks, t)
		}
	}
	return cols
}

// ColumnIndex returns the board column of status, or -1 when the status has
// no column.
func ColumnIndex(status model.Status) int {
	for i, st := range model.BoardStatuses {
		if st == status {
			return i
		}
	}
	return -1
}

// ParentCandidates returns the tasks that may be chosen as parent of selfID:
// every non-deleted task except the task itself. Descendants are not
// excluded; the server rejects cycles.
func ParentCandidates(tasks []model.Task, selfID int64) []model.Task {
	out := []model.Task{}
	for _, t := range tasks {
		if t.ID == selfID || t.IsDeleted() {
			continue
		}
		out = append(out, t)
	}
	return out
}

// AvailableMembers returns the project members not yet assigned, in roster order.
func AvailableMembers(members []model.Member, assignees []model.Assignee) []model.Member {
	assigned := make(map[int64]struct{}, len(assignees))
	for _, a := range assignees {
		assigned[a.UserID] = struct{}{}
	}
	out := []model.Member{}
	for _, m := range members {
		if _, ok := assigned[m.UserID]; !ok {
			out = append(out, m)
		}
	}
	return out
}

// ReverseLogs returns logs newest first. The server returns them oldest first.
func ReverseLogs(logs []model.ActivityLog) []model.ActivityLog {
	out := make([]model.ActivityLog, len(logs))
	for i, l := range logs {
		out[len(logs)-1-i] = l
	}
	return out
}

// Children returns the direct subtasks of parentID in server order.
func Children(tasks []model.Task, parentID int64) []model.Task {
	out := []model.Task{}
	for _, t := range tasks {
		if t.ParentID() == parentID {
			out = append(out, t)
		}
	}
	return out
}

// Counts returns the number of tasks per status.
func Counts(tasks []model.Task) map[model.Status]int {
	out := make(map[model.Status]int, len(model.AllStatuses))
	for _, t := range tasks {
		out[t.Status]++
	}
	return out
}
