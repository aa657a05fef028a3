package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/model"
)

// Failure is a canned error response.
type Failure struct {
	Status int
	Body   string
}

// FakeServer is an in-memory stand-in for the task-management service.
// Tests seed its exported fields before issuing requests; handlers lock mu.
type FakeServer struct {
	*httptest.Server

	mu           sync.Mutex
	Projects     []model.Project
	Tasks        []model.Task
	Logs         map[int64][]model.ActivityLog
	Comments     map[int64][]model.Comment
	Tags         map[int64][]string
	Assignees    map[int64][]model.Assignee
	Schedules    map[int64]model.ScheduleResult
	EffortLevels []string

	// Updates records every PUT body per task, in arrival order.
	Updates map[int64][]model.TaskUpdate

	failures map[string][]Failure
	requests []string
	nextID   int64
}

// NewFakeServer starts a FakeServer and stops it when the test completes.
func NewFakeServer(t *testing.T) *FakeServer {
	t.Helper()
	f := &FakeServer{
		Logs:         map[int64][]model.ActivityLog{},
		Comments:     map[int64][]model.Comment{},
		Tags:         map[int64][]string{},
		Assignees:    map[int64][]model.Assignee{},
		Schedules:    map[int64]model.ScheduleResult{},
		EffortLevels: []string{"SMALL", "MEDIUM", "LARGE"},
		Updates:      map[int64][]model.TaskUpdate{},
		failures:     map[string][]Failure{},
		nextID:       1000,
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// StaticToken is a CredentialProvider that always returns the same token
// and counts invalidations.
type StaticToken struct {
	mu          sync.Mutex
	Value       string
	Invalidated int
}

// Token implements api.CredentialProvider.
func (s *StaticToken) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Value == "" {
		return "", fmt.Errorf("no token")
	}
	return s.Value, nil
}

// Invalidate implements api.CredentialProvider.
func (s *StaticToken) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Invalidated++
	s.Value = ""
}

// Client returns an API client pointed at the fake server with a fixed token.
func (f *FakeServer) Client() *api.Client {
	logger, _ := test.NewNullLogger()
	return api.NewClient(f.URL, &StaticToken{Value: "test-token"}, api.WithLogger(logger))
}

// Seed replaces the task collection.
func (f *FakeServer) Seed(tasks ...model.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tasks = append([]model.Task(nil), tasks...)
}

// Fail queues a failure for the next request matching method and path
// (the URL path without query string). Failures are consumed in order.
func (f *FakeServer) Fail(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := method + " " + path
	f.failures[key] = append(f.failures[key], Failure{Status: status, Body: body})
}

// Requests returns "METHOD /path" for every request received so far.
func (f *FakeServer) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Count returns how many requests matched method and path.
func (f *FakeServer) Count(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r == method+" "+path {
			n++
		}
	}
	return n
}

// UpdatesFor returns the PUT bodies received for a task.
func (f *FakeServer) UpdatesFor(id int64) []model.TaskUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.TaskUpdate(nil), f.Updates[id]...)
}

// TaskByID returns the server-side copy of a task.
func (f *FakeServer) TaskByID(id int64) (model.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.taskIndex(id)
	if i < 0 {
		return model.Task{}, false
	}
	return f.Tasks[i], true
}

func (f *FakeServer) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.Method + " " + r.URL.Path
	f.requests = append(f.requests, key)

	if queued := f.failures[key]; len(queued) > 0 {
		f.failures[key] = queued[1:]
		w.WriteHeader(queued[0].Status)
		_, _ = io.WriteString(w, queued[0].Body)
		return
	}

	if r.Header.Get("Authorization") == "" && !strings.HasPrefix(r.URL.Path, "/auth/") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	seg := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(seg) >= 2 && seg[0] == "api" && seg[1] == "tasks":
		f.serveTasks(w, r, seg[2:])
	case len(seg) >= 2 && seg[0] == "api" && seg[1] == "projects":
		f.serveProjects(w, r, seg[2:])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *FakeServer) serveTasks(w http.ResponseWriter, r *http.Request, seg []string) {
	switch {
	case len(seg) == 0 && r.Method == http.MethodPost:
		var nt model.NewTask
		if !decode(w, r, &nt) {
			return
		}
		f.nextID++
		t := model.Task{
			ID: f.nextID, Title: nt.Title, Description: nt.Description,
			StartDate: nt.StartDate, EndDate: nt.EndDate, ProjectID: nt.ProjectID,
			EffortLevel: nt.EffortLevel, Status: model.StatusNotStarted,
		}
		if nt.Parent != nil {
			t.Parent = &model.TaskRef{ID: nt.Parent.ID}
		}
		f.Tasks = append(f.Tasks, t)
		writeJSON(w, t)
		return

	case len(seg) == 1 && seg[0] == "by-project":
		pid, _ := strconv.ParseInt(r.URL.Query().Get("projectId"), 10, 64)
		out := []model.Task{}
		for _, t := range f.Tasks {
			if t.ProjectID == pid {
				out = append(out, t)
			}
		}
		writeJSON(w, out)
		return

	case len(seg) == 1 && seg[0] == "effort-levels":
		writeJSON(w, f.EffortLevels)
		return

	case len(seg) == 2 && seg[0] == "comments" && r.Method == http.MethodDelete:
		cid, _ := strconv.ParseInt(seg[1], 10, 64)
		for tid, list := range f.Comments {
			for i, c := range list {
				if c.ID == cid {
					f.Comments[tid] = append(list[:i:i], list[i+1:]...)
					f.logAction(tid, "COMMENT_DELETED", "")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
		}
		writeError(w, http.StatusNotFound, "Comment not found")
		return
	}

	if len(seg) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id, err := strconv.ParseInt(seg[0], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	i := f.taskIndex(id)
	if i < 0 {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	if len(seg) == 1 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, f.Tasks[i])
		case http.MethodPut:
			var u model.TaskUpdate
			if !decode(w, r, &u) {
				return
			}
			f.Updates[id] = append(f.Updates[id], u)
			t := &f.Tasks[i]
			t.Title, t.Description = u.Title, u.Description
			t.StartDate, t.EndDate = u.StartDate, u.EndDate
			t.Status, t.EffortLevel = u.Status, u.EffortLevel
			t.Parent = nil
			if u.Parent != nil {
				t.Parent = &model.TaskRef{ID: u.Parent.ID}
				if j := f.taskIndex(u.Parent.ID); j >= 0 {
					t.Parent.Title = f.Tasks[j].Title
				}
			}
			f.logAction(id, "UPDATED", string(u.Status))
			writeJSON(w, *t)
		case http.MethodDelete:
			f.Tasks = append(f.Tasks[:i:i], f.Tasks[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch seg[1] {
	case "activity-logs":
		writeJSON(w, nonNil(f.Logs[id]))
	case "comments":
		if r.Method == http.MethodPost {
			var body struct {
				Comment string `json:"comment"`
			}
			if !decode(w, r, &body) {
				return
			}
			f.nextID++
			f.Comments[id] = append(f.Comments[id], model.Comment{ID: f.nextID, TaskID: id, UserID: 1, Comment: body.Comment})
			f.logAction(id, "COMMENTED", body.Comment)
			w.WriteHeader(http.StatusCreated)
			return
		}
		writeJSON(w, nonNil(f.Comments[id]))
	case "tags":
		switch r.Method {
		case http.MethodPost:
			var body struct {
				Tag string `json:"tag"`
			}
			if !decode(w, r, &body) {
				return
			}
			f.Tags[id] = append(f.Tags[id], body.Tag)
			f.logAction(id, "TAG_ADDED", body.Tag)
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			tag := r.URL.Query().Get("tag")
			kept := []string{}
			for _, t := range f.Tags[id] {
				if t != tag {
					kept = append(kept, t)
				}
			}
			f.Tags[id] = kept
			f.logAction(id, "TAG_REMOVED", tag)
			w.WriteHeader(http.StatusNoContent)
		default:
			writeJSON(w, nonNil(f.Tags[id]))
		}
	case "assignees":
		writeJSON(w, nonNil(f.Assignees[id]))
	case "assign":
		if len(seg) < 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		uid, _ := strconv.ParseInt(seg[2], 10, 64)
		switch r.Method {
		case http.MethodPost:
			name := ""
			for _, p := range f.Projects {
				for _, m := range p.Members {
					if m.UserID == uid {
						name = m.Name
					}
				}
			}
			f.Assignees[id] = append(f.Assignees[id], model.Assignee{UserID: uid, Name: name})
			f.logAction(id, "ASSIGNED", name)
		case http.MethodDelete:
			kept := []model.Assignee{}
			for _, a := range f.Assignees[id] {
				if a.UserID != uid {
					kept = append(kept, a)
				}
			}
			f.Assignees[id] = kept
			f.logAction(id, "UNASSIGNED", strconv.FormatInt(uid, 10))
		}
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *FakeServer) serveProjects(w http.ResponseWriter, r *http.Request, seg []string) {
	if len(seg) == 1 {
		switch seg[0] {
		case "my-projects":
			writeJSON(w, nonNil(f.Projects))
			return
		case "create":
			var np model.NewProject
			if !decode(w, r, &np) {
				return
			}
			f.nextID++
			p := model.Project{ID: f.nextID, Name: np.Name, Description: np.Description, InviteCode: fmt.Sprintf("INV%d", f.nextID)}
			f.Projects = append(f.Projects, p)
			writeJSON(w, p)
			return
		case "join":
			var body struct {
				InviteCode string `json:"inviteCode"`
			}
			if !decode(w, r, &body) {
				return
			}
			for _, p := range f.Projects {
				if p.InviteCode == body.InviteCode {
					writeJSON(w, p)
					return
				}
			}
			writeError(w, http.StatusNotFound, "Invalid invite code")
			return
		}
	}

	if len(seg) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id, err := strconv.ParseInt(seg[0], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	pi := -1
	for i, p := range f.Projects {
		if p.ID == id {
			pi = i
		}
	}
	if pi < 0 {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}

	if len(seg) == 1 {
		writeJSON(w, f.Projects[pi])
		return
	}
	switch seg[1] {
	case "members":
		writeJSON(w, nonNil(f.Projects[pi].Members))
	case "delete":
		f.Projects = append(f.Projects[:pi:pi], f.Projects[pi+1:]...)
		w.WriteHeader(http.StatusOK)
	case "schedule":
		res, ok := f.Schedules[id]
		if !ok {
			res = model.ScheduleResult{Tasks: []model.ScheduleTask{}}
			for _, t := range f.Tasks {
				if t.ProjectID == id && t.Parent == nil && !t.IsDeleted() {
					res.Tasks = append(res.Tasks, model.ScheduleTask{Task: t, Subtasks: []model.SubtaskSummary{}})
				}
			}
			res.TotalDays = len(res.Tasks)
		}
		writeJSON(w, res)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *FakeServer) taskIndex(id int64) int {
	for i, t := range f.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeServer) logAction(taskID int64, action, details string) {
	f.nextID++
	f.Logs[taskID] = append(f.Logs[taskID], model.ActivityLog{
		ID: f.nextID, TaskID: taskID, UserID: 1, Action: action, Details: details,
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "malformed body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
