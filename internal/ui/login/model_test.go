package login

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/api"
)

type fakeAuth struct {
	logins []api.LoginRequest
	err    error
}

func (f *fakeAuth) Login(_ context.Context, req api.LoginRequest) (string, error) {
	f.logins = append(f.logins, req)
	if f.err != nil {
		return "", f.err
	}
	return "issued-token", nil
}

func (f *fakeAuth) Register(context.Context, api.RegisterRequest) (string, error) {
	return "Check your inbox to verify your account.", f.err
}

func (f *fakeAuth) ForgotPassword(context.Context, string) (string, error) {
	return "Reset link sent.", f.err
}

func (f *fakeAuth) ResetPassword(context.Context, string, string) (string, error) {
	return "Password updated.", f.err
}

func (f *fakeAuth) VerifyEmail(context.Context, string) (string, error) {
	return "Email verified.", f.err
}

func TestSubmit_InvalidEmailNeverCallsServer(t *testing.T) {
	auth := &fakeAuth{}
	m := New(auth, 80, 24)
	m.fb.email = "ann.example.com"
	m.fb.password = "pw"

	m, _ = m.submit()
	assert.False(t, m.busy)
	assert.Equal(t, "Please enter a valid email address.", m.errMsg)
	assert.Empty(t, auth.logins)
}

func TestSubmit_LoginEmitsToken(t *testing.T) {
	auth := &fakeAuth{}
	m := New(auth, 80, 24)
	m.SetNotice("Your session has expired. Please sign in again.")
	m.fb.email = " ann@example.com "
	m.fb.password = "pw"

	m, cmd := m.submit()
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	m, cmd = m.Update(cmd())
	require.NotNil(t, cmd)
	assert.Equal(t, LoggedInMsg{Token: "issued-token"}, cmd())
	assert.Empty(t, m.notice)
	assert.Empty(t, m.fb.password, "password is not kept")
	require.Len(t, auth.logins, 1)
	assert.Equal(t, "ann@example.com", auth.logins[0].Email)
}

func TestSubmit_LoginFailureShowsServerMessage(t *testing.T) {
	auth := &fakeAuth{err: &api.APIError{StatusCode: 400, Message: "Invalid credentials"}}
	m := New(auth, 80, 24)
	m.fb.email = "ann@example.com"
	m.fb.password = "wrong"

	m, cmd := m.submit()
	m, _ = m.Update(cmd())
	assert.False(t, m.busy)
	assert.Equal(t, "Invalid credentials", m.errMsg)
	assert.Contains(t, m.View(), "Invalid credentials")
}

func TestRegister_MovesToVerify(t *testing.T) {
	m := New(&fakeAuth{}, 80, 24)
	m.Start(ModeRegister, "")
	m.fb.name = "Ann"
	m.fb.email = "ann@example.com"
	m.fb.password = "pw"

	m, cmd := m.submit()
	m, _ = m.Update(cmd())
	assert.Equal(t, ModeVerify, m.Mode())
	assert.Equal(t, "Check your inbox to verify your account.", m.notice)
}

func TestReset_PasswordMismatch(t *testing.T) {
	m := New(&fakeAuth{}, 80, 24)
	m.Start(ModeReset, "tok")
	m.fb.password = "abc"
	m.fb.confirm = "abd"

	m, cmd := m.submit()
	assert.NotNil(t, cmd, "form rebuilt")
	assert.False(t, m.busy)
	assert.Equal(t, "Passwords do not match.", m.errMsg)
}

func TestModeKeys(t *testing.T) {
	m := New(&fakeAuth{}, 80, 24)

	next, _, ok := m.modeKey("ctrl+r")
	assert.True(t, ok)
	assert.Equal(t, ModeRegister, next)

	_, _, ok = m.modeKey("esc")
	assert.False(t, ok, "esc on sign-in stays put")

	m.Start(ModeForgot, "")
	next, _, ok = m.modeKey("esc")
	assert.True(t, ok)
	assert.Equal(t, ModeLogin, next)
}
