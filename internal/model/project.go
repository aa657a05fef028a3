package model

// Member is a user belonging to a project.
type Member struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Project groups tasks and members. It is read-only from the client's
// perspective apart from create, join, and delete.
type Project struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	InviteCode       string   `json:"inviteCode"`
	ProjectStartDate *string  `json:"projectStartDate"`
	Members          []Member `json:"members"`
}

// MemberNames returns the names of all members in roster order.
func (p Project) MemberNames() []string {
	names := make([]string, 0, len(p.Members))
	for _, m := range p.Members {
		names = append(names, m.Name)
	}
	return names
}

// NewProject is the body of a create-project request.
type NewProject struct {
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	ProjectStartDate *string `json:"projectStartDate"`
}

// TaskDetailAggregate is everything shown in an open task overlay.
type TaskDetailAggregate struct {
	Task      *Task
	Logs      []ActivityLog // newest first
	Comments  []Comment     // oldest first, as returned
	Tags      []string
	Assignees []Assignee
	Members   []Member

	// AvailableMembers is Members minus the current Assignees.
	AvailableMembers []Member
}
