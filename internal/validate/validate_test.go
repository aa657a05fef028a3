package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	tests := []struct {
		name    string
		form    Login
		wantErr string
	}{
		{"valid", Login{Email: "ann@example.com", Password: "pw"}, ""},
		{"no at sign", Login{Email: "ann.example.com", Password: "pw"}, "Please enter a valid email address."},
		{"no dot in domain", Login{Email: "ann@example", Password: "pw"}, "Please enter a valid email address."},
		{"whitespace", Login{Email: "ann @example.com", Password: "pw"}, "Please enter a valid email address."},
		{"missing password", Login{Email: "ann@example.com"}, "Password is required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.form)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsError(err))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestResetPassword_Mismatch(t *testing.T) {
	err := Struct(ResetPassword{Token: "t", Password: "abc", Confirm: "abd"})
	require.Error(t, err)
	assert.Equal(t, "Passwords do not match.", err.Error())

	var vErr *Error
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "confirmPassword")

	assert.NoError(t, Struct(ResetPassword{Token: "t", Password: "abc", Confirm: "abc"}))
}

func TestResetPassword_MissingToken(t *testing.T) {
	err := Struct(ResetPassword{Password: "abc", Confirm: "abc"})
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired reset link.", err.Error())
}

func TestNewTask_RequiresTitleAndEffort(t *testing.T) {
	err := NewTask{Title: "   ", EffortLevel: "SMALL"}.Validate()
	require.Error(t, err)
	assert.Equal(t, "Title and effort level are required", err.Error())

	err = NewTask{Title: "Write docs"}.Validate()
	require.Error(t, err)
	assert.Equal(t, "Title and effort level are required", err.Error())
}

func TestNewTask_Dates(t *testing.T) {
	err := NewTask{Title: "A", EffortLevel: "S", StartDate: "2024-13-01"}.Validate()
	require.Error(t, err)
	assert.Equal(t, "Start date must be a date in YYYY-MM-DD format.", err.Error())

	err = NewTask{Title: "A", EffortLevel: "S", StartDate: "2024-03-05", EndDate: "2024-03-04"}.Validate()
	require.Error(t, err)
	assert.Equal(t, "End date cannot be before start date.", err.Error())

	assert.NoError(t, NewTask{Title: "A", EffortLevel: "S", StartDate: "2024-03-05", EndDate: "2024-03-05"}.Validate())
}

func TestNewTask_Payload(t *testing.T) {
	f := NewTask{
		Title:       "  Build API  ",
		Description: " desc ",
		StartDate:   "2024-03-05",
		EndDate:     "2024-03-09",
		EffortLevel: "MEDIUM",
		ParentID:    12,
	}
	p := f.Payload(3)

	assert.Equal(t, "Build API", p.Title)
	assert.Equal(t, "desc", p.Description)
	require.NotNil(t, p.StartDate)
	assert.Equal(t, "2024-03-05T00:00:00.000Z", *p.StartDate)
	require.NotNil(t, p.EndDate)
	assert.Equal(t, "2024-03-09T23:59:59.999Z", *p.EndDate)
	assert.Equal(t, int64(3), p.ProjectID)
	require.NotNil(t, p.Parent)
	assert.Equal(t, int64(12), p.Parent.ID)

	bare := NewTask{Title: "x", EffortLevel: "S"}.Payload(1)
	assert.Nil(t, bare.StartDate)
	assert.Nil(t, bare.EndDate)
	assert.Nil(t, bare.Parent)
}

func TestProjectForms(t *testing.T) {
	err := Struct(NewProject{Name: " "})
	require.Error(t, err)
	assert.Equal(t, "Project name is required.", err.Error())

	err = Struct(JoinProject{})
	require.Error(t, err)
	assert.Equal(t, "Invite code is required.", err.Error())
}
