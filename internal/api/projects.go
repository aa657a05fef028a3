package api

import (
	"context"
	"fmt"

	"github.com/nhle/planner/internal/model"
)

// MyProjects lists the projects the current user belongs to.
func (c *Client) MyProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := c.Get(ctx, "/api/projects/my-projects", &projects); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// Project fetches a single project with its member roster.
func (c *Client) Project(ctx context.Context, projectID int64) (*model.Project, error) {
	var p model.Project
	if err := c.Get(ctx, fmt.Sprintf("/api/projects/%d", projectID), &p); err != nil {
		return nil, fmt.Errorf("getting project %d: %w", projectID, err)
	}
	return &p, nil
}

// CreateProject creates a project owned by the current user.
func (c *Client) CreateProject(ctx context.Context, p model.NewProject) error {
	if err := c.Post(ctx, "/api/projects/create", p, nil); err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	return nil
}

// JoinProject adds the current user to the project identified by inviteCode.
func (c *Client) JoinProject(ctx context.Context, inviteCode string) error {
	body := map[string]string{"inviteCode": inviteCode}
	if err := c.Post(ctx, "/api/projects/join", body, nil); err != nil {
		return fmt.Errorf("joining project: %w", err)
	}
	return nil
}

// DeleteProject removes a project. The service exposes this as a POST.
func (c *Client) DeleteProject(ctx context.Context, projectID int64) error {
	if err := c.Post(ctx, fmt.Sprintf("/api/projects/%d/delete", projectID), nil, nil); err != nil {
		return fmt.Errorf("deleting project %d: %w", projectID, err)
	}
	return nil
}

// Members lists the members of a project.
func (c *Client) Members(ctx context.Context, projectID int64) ([]model.Member, error) {
	var members []model.Member
	if err := c.Get(ctx, fmt.Sprintf("/api/projects/%d/members", projectID), &members); err != nil {
		return nil, fmt.Errorf("listing members of project %d: %w", projectID, err)
	}
	return members, nil
}

// GenerateSchedule asks the server to compute a schedule for the project.
func (c *Client) GenerateSchedule(ctx context.Context, projectID int64) (*model.ScheduleResult, error) {
	var res model.ScheduleResult
	if err := c.Post(ctx, fmt.Sprintf("/api/projects/%d/schedule", projectID), nil, &res); err != nil {
		return nil, fmt.Errorf("generating schedule for project %d: %w", projectID, err)
	}
	return &res, nil
}
