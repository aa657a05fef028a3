package validate

import (
	"strings"

	"github.com/nhle/planner/internal/model"
)

// Login is the sign-in form.
type Login struct {
	Email    string `json:"email" label:"Email" validate:"emailaddr"`
	Password string `json:"password" label:"Password" validate:"required"`
}

// Register is the sign-up form.
type Register struct {
	Name     string `json:"name" label:"Name" validate:"notblank"`
	Email    string `json:"email" label:"Email" validate:"emailaddr"`
	Password string `json:"password" label:"Password" validate:"required"`
}

// ForgotPassword requests a reset link.
type ForgotPassword struct {
	Email string `json:"email" label:"Email" validate:"emailaddr"`
}

// ResetPassword sets a new password from a reset link.
type ResetPassword struct {
	Token    string `json:"token" label:"Reset token" validate:"required"`
	Password string `json:"newPassword" label:"New password" validate:"required"`
	Confirm  string `json:"confirmPassword" label:"Confirm password" validate:"eqfield=Password"`
}

func (ResetPassword) validationMessage(field, tag string) string {
	if field == "Token" {
		return "Invalid or expired reset link."
	}
	return ""
}

// VerifyEmail confirms an account.
type VerifyEmail struct {
	Token string `json:"token" label:"Verification token" validate:"required"`
}

func (VerifyEmail) validationMessage(field, tag string) string {
	return "Invalid verification link."
}

// NewProject is the create-project form.
type NewProject struct {
	Name        string `json:"name" label:"Project name" validate:"notblank"`
	Description string `json:"description"`
}

// JoinProject is the join-by-invite-code form.
type JoinProject struct {
	InviteCode string `json:"inviteCode" label:"Invite code" validate:"notblank"`
}

// NewTask is the create-task form. Dates are calendar dates (YYYY-MM-DD).
type NewTask struct {
	Title       string `json:"title" label:"Title" validate:"notblank"`
	Description string `json:"description"`
	StartDate   string `json:"startDate" label:"Start date" validate:"calendardate"`
	EndDate     string `json:"endDate" label:"End date" validate:"calendardate"`
	EffortLevel string `json:"effortLevel" label:"Effort level" validate:"required"`
	ParentID    int64  `json:"parentId"`
}

func (NewTask) validationMessage(field, tag string) string {
	if field == "Title" || field == "EffortLevel" {
		return "Title and effort level are required"
	}
	return ""
}

// Validate checks the form and the date ordering.
func (f NewTask) Validate() error {
	if err := Struct(f); err != nil {
		return err
	}
	return DateRange(f.StartDate, f.EndDate)
}

// Payload converts a validated form into the create request body.
func (f NewTask) Payload(projectID int64) model.NewTask {
	t := model.NewTask{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		ProjectID:   projectID,
		EffortLevel: f.EffortLevel,
	}
	if f.StartDate != "" {
		t.StartDate = model.StringPtr(model.StartOfDay(f.StartDate))
	}
	if f.EndDate != "" {
		t.EndDate = model.StringPtr(model.EndOfDay(f.EndDate))
	}
	if f.ParentID != 0 {
		t.Parent = &model.ParentPayload{ID: f.ParentID}
	}
	return t
}

// DateRange fails when both dates are set and end precedes start.
func DateRange(start, end string) error {
	if start == "" || end == "" {
		return nil
	}
	s, err := model.ParseDate(start)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	e, err := model.ParseDate(end)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	if e.Before(s) {
		return &Error{Message: "End date cannot be before start date."}
	}
	return nil
}
