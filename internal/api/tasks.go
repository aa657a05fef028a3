package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/planner/internal/model"
)

// TasksByProject lists every task in a project, in server order.
func (c *Client) TasksByProject(ctx context.Context, projectID int64) ([]model.Task, error) {
	path := "/api/tasks/by-project?" + url.Values{"projectId": {strconv.FormatInt(projectID, 10)}}.Encode()
	var tasks []model.Task
	if err := c.Get(ctx, path, &tasks); err != nil {
		return nil, fmt.Errorf("listing tasks of project %d: %w", projectID, err)
	}
	return tasks, nil
}

// Task fetches a single task.
func (c *Client) Task(ctx context.Context, taskID int64) (*model.Task, error) {
	var t model.Task
	if err := c.Get(ctx, taskPath(taskID, ""), &t); err != nil {
		return nil, fmt.Errorf("getting task %d: %w", taskID, err)
	}
	return &t, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, t model.NewTask) error {
	if err := c.Post(ctx, "/api/tasks", t, nil); err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

// UpdateTask replaces every writable field of a task.
func (c *Client) UpdateTask(ctx context.Context, taskID int64, u model.TaskUpdate) error {
	if err := c.Put(ctx, taskPath(taskID, ""), u, nil); err != nil {
		return fmt.Errorf("updating task %d: %w", taskID, err)
	}
	return nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID int64) error {
	if err := c.Delete(ctx, taskPath(taskID, "")); err != nil {
		return fmt.Errorf("deleting task %d: %w", taskID, err)
	}
	return nil
}

// EffortLevels lists the effort levels the server accepts.
func (c *Client) EffortLevels(ctx context.Context) ([]string, error) {
	var levels []string
	if err := c.Get(ctx, "/api/tasks/effort-levels", &levels); err != nil {
		return nil, fmt.Errorf("listing effort levels: %w", err)
	}
	return levels, nil
}

// ActivityLogs lists the audit entries of a task, oldest first.
func (c *Client) ActivityLogs(ctx context.Context, taskID int64) ([]model.ActivityLog, error) {
	var logs []model.ActivityLog
	if err := c.Get(ctx, taskPath(taskID, "/activity-logs"), &logs); err != nil {
		return nil, fmt.Errorf("listing activity of task %d: %w", taskID, err)
	}
	return logs, nil
}

// Comments lists the comments on a task.
func (c *Client) Comments(ctx context.Context, taskID int64) ([]model.Comment, error) {
	var comments []model.Comment
	if err := c.Get(ctx, taskPath(taskID, "/comments"), &comments); err != nil {
		return nil, fmt.Errorf("listing comments of task %d: %w", taskID, err)
	}
	return comments, nil
}

// AddComment posts a comment on a task.
func (c *Client) AddComment(ctx context.Context, taskID int64, text string) error {
	body := map[string]string{"comment": text}
	if err := c.Post(ctx, taskPath(taskID, "/comments"), body, nil); err != nil {
		return fmt.Errorf("commenting on task %d: %w", taskID, err)
	}
	return nil
}

// DeleteComment deletes a comment by id.
func (c *Client) DeleteComment(ctx context.Context, commentID int64) error {
	if err := c.Delete(ctx, fmt.Sprintf("/api/tasks/comments/%d", commentID)); err != nil {
		return fmt.Errorf("deleting comment %d: %w", commentID, err)
	}
	return nil
}

// Tags lists the tags on a task.
func (c *Client) Tags(ctx context.Context, taskID int64) ([]string, error) {
	var tags []string
	if err := c.Get(ctx, taskPath(taskID, "/tags"), &tags); err != nil {
		return nil, fmt.Errorf("listing tags of task %d: %w", taskID, err)
	}
	return tags, nil
}

// AddTag attaches a tag to a task.
func (c *Client) AddTag(ctx context.Context, taskID int64, tag string) error {
	body := map[string]string{"tag": tag}
	if err := c.Post(ctx, taskPath(taskID, "/tags"), body, nil); err != nil {
		return fmt.Errorf("tagging task %d: %w", taskID, err)
	}
	return nil
}

// DeleteTag detaches a tag from a task.
func (c *Client) DeleteTag(ctx context.Context, taskID int64, tag string) error {
	path := taskPath(taskID, "/tags") + "?" + url.Values{"tag": {tag}}.Encode()
	if err := c.Delete(ctx, path); err != nil {
		return fmt.Errorf("untagging task %d: %w", taskID, err)
	}
	return nil
}

// Assignees lists the users assigned to a task.
func (c *Client) Assignees(ctx context.Context, taskID int64) ([]model.Assignee, error) {
	var assignees []model.Assignee
	if err := c.Get(ctx, taskPath(taskID, "/assignees"), &assignees); err != nil {
		return nil, fmt.Errorf("listing assignees of task %d: %w", taskID, err)
	}
	return assignees, nil
}

// Assign assigns a user to a task.
func (c *Client) Assign(ctx context.Context, taskID, userID int64) error {
	if err := c.Post(ctx, taskPath(taskID, fmt.Sprintf("/assign/%d", userID)), nil, nil); err != nil {
		return fmt.Errorf("assigning user %d to task %d: %w", userID, taskID, err)
	}
	return nil
}

// Unassign removes a user from a task.
func (c *Client) Unassign(ctx context.Context, taskID, userID int64) error {
	if err := c.Delete(ctx, taskPath(taskID, fmt.Sprintf("/assign/%d", userID))); err != nil {
		return fmt.Errorf("unassigning user %d from task %d: %w", userID, taskID, err)
	}
	return nil
}

func taskPath(taskID int64, suffix string) string {
	return fmt.Sprintf("/api/tasks/%d%s", taskID, suffix)
}
