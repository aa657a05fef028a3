package login

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/theme"
	"github.com/nhle/planner/internal/ui"
	"github.com/nhle/planner/internal/validate"
)

// LoggedInMsg carries a freshly issued bearer token to the parent.
type LoggedInMsg struct {
	Token string
}

// Authenticator is the unauthenticated part of the service API.
type Authenticator interface {
	Login(ctx context.Context, req api.LoginRequest) (string, error)
	Register(ctx context.Context, req api.RegisterRequest) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	VerifyEmail(ctx context.Context, token string) (string, error)
}

// Mode selects which auth form is shown.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
	ModeForgot
	ModeReset
	ModeVerify
)

func (m Mode) title() string {
	switch m {
	case ModeRegister:
		return "Create account"
	case ModeForgot:
		return "Forgot password"
	case ModeReset:
		return "Reset password"
	case ModeVerify:
		return "Verify email"
	default:
		return "Sign in"
	}
}

// fallback is shown when a request fails without a server message.
func (m Mode) fallback() string {
	switch m {
	case ModeRegister:
		return "Registration failed"
	case ModeForgot:
		return "Failed to send reset email"
	case ModeReset:
		return "Failed to reset password"
	case ModeVerify:
		return "Verification failed"
	default:
		return "Login failed"
	}
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name     string
	email    string
	password string
	confirm  string
	token    string
}

type resultMsg struct {
	mode    Mode
	token   string
	message string
	err     error
}

// Model is the Bubble Tea model for the sign-in and account flows.
type Model struct {
	auth   Authenticator
	mode   Mode
	form   *huh.Form
	fb     *formBindings
	busy   bool
	errMsg string
	notice string
	width  int
	height int
}

// New creates a login model starting on the sign-in form.
func New(auth Authenticator, width, height int) Model {
	m := Model{
		auth:   auth,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

// Init initializes the active form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Mode returns the active flow.
func (m Model) Mode() Mode { return m.mode }

// Start switches to mode and clears any previous message. A non-empty token
// prefills the reset/verify token field.
func (m *Model) Start(mode Mode, token string) tea.Cmd {
	m.mode = mode
	m.errMsg = ""
	m.busy = false
	m.fb.password = ""
	m.fb.confirm = ""
	m.fb.token = token
	m.form = m.buildForm()
	return m.form.Init()
}

// SetNotice shows msg above the form, e.g. after a session expired.
func (m *Model) SetNotice(msg string) {
	m.notice = msg
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		return m.handleResult(msg)

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		next, token, ok := m.modeKey(msg.String())
		if ok {
			cmd := m.Start(next, token)
			return m, cmd
		}
	}

	if m.form == nil || m.busy {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		return m.submit()
	}
	if m.form.State == huh.StateAborted {
		m.form = m.buildForm()
		return m, m.form.Init()
	}
	return m, cmd
}

// modeKey maps a shortcut to the flow it opens.
func (m Model) modeKey(k string) (Mode, string, bool) {
	switch k {
	case "ctrl+r":
		return ModeRegister, "", true
	case "ctrl+f":
		return ModeForgot, "", true
	case "ctrl+t":
		return ModeReset, m.fb.token, true
	case "ctrl+v":
		return ModeVerify, m.fb.token, true
	case "esc":
		if m.mode != ModeLogin {
			return ModeLogin, "", true
		}
	}
	return m.mode, "", false
}

func (m Model) submit() (Model, tea.Cmd) {
	fb := *m.fb
	auth := m.auth
	mode := m.mode

	var (
		form interface{}
		run  func(ctx context.Context) resultMsg
	)
	switch mode {
	case ModeLogin:
		form = validate.Login{Email: strings.TrimSpace(fb.email), Password: fb.password}
		run = func(ctx context.Context) resultMsg {
			tok, err := auth.Login(ctx, api.LoginRequest{Email: strings.TrimSpace(fb.email), Password: fb.password})
			return resultMsg{mode: mode, token: tok, err: err}
		}
	case ModeRegister:
		form = validate.Register{Name: fb.name, Email: strings.TrimSpace(fb.email), Password: fb.password}
		run = func(ctx context.Context) resultMsg {
			msg, err := auth.Register(ctx, api.RegisterRequest{
				Name:     strings.TrimSpace(fb.name),
				Email:    strings.TrimSpace(fb.email),
				Password: fb.password,
			})
			return resultMsg{mode: mode, message: msg, err: err}
		}
	case ModeForgot:
		form = validate.ForgotPassword{Email: strings.TrimSpace(fb.email)}
		run = func(ctx context.Context) resultMsg {
			msg, err := auth.ForgotPassword(ctx, strings.TrimSpace(fb.email))
			return resultMsg{mode: mode, message: msg, err: err}
		}
	case ModeReset:
		form = validate.ResetPassword{Token: strings.TrimSpace(fb.token), Password: fb.password, Confirm: fb.confirm}
		run = func(ctx context.Context) resultMsg {
			msg, err := auth.ResetPassword(ctx, strings.TrimSpace(fb.token), fb.password)
			return resultMsg{mode: mode, message: msg, err: err}
		}
	case ModeVerify:
		form = validate.VerifyEmail{Token: strings.TrimSpace(fb.token)}
		run = func(ctx context.Context) resultMsg {
			msg, err := auth.VerifyEmail(ctx, strings.TrimSpace(fb.token))
			return resultMsg{mode: mode, message: msg, err: err}
		}
	}

	if err := validate.Struct(form); err != nil {
		m.errMsg = err.Error()
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	m.busy = true
	m.errMsg = ""
	return m, func() tea.Msg {
		return run(context.Background())
	}
}

func (m Model) handleResult(msg resultMsg) (Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.errMsg = api.Message(msg.err, msg.mode.fallback())
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	if msg.mode == ModeLogin {
		tok := msg.token
		m.notice = ""
		m.fb.password = ""
		m.form = m.buildForm()
		return m, func() tea.Msg { return LoggedInMsg{Token: tok} }
	}

	notice := msg.message
	switch msg.mode {
	case ModeForgot:
		// the link arrives by email; stay on the form so it can be resent
		m.notice = notice
		m.form = m.buildForm()
		return m, m.form.Init()
	case ModeRegister:
		// next step is the verification link
		m.notice = notice
		cmd := m.Start(ModeVerify, "")
		return m, cmd
	default:
		m.notice = notice
		cmd := m.Start(ModeLogin, "")
		return m, cmd
	}
}

func (m Model) buildForm() *huh.Form {
	var fields []huh.Field
	switch m.mode {
	case ModeRegister:
		fields = append(fields,
			huh.NewInput().Title("Name").Value(&m.fb.name),
			huh.NewInput().Title("Email").Placeholder("you@example.com").Value(&m.fb.email),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&m.fb.password),
		)
	case ModeForgot:
		fields = append(fields,
			huh.NewInput().Title("Email").Placeholder("you@example.com").Value(&m.fb.email),
		)
	case ModeReset:
		fields = append(fields,
			huh.NewInput().Title("Reset token").Description("From the link in the reset email").Value(&m.fb.token),
			huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&m.fb.password),
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&m.fb.confirm),
		)
	case ModeVerify:
		fields = append(fields,
			huh.NewInput().Title("Verification token").Description("From the link in the verification email").Value(&m.fb.token),
		)
	default:
		fields = append(fields,
			huh.NewInput().Title("Email").Placeholder("you@example.com").Value(&m.fb.email),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&m.fb.password),
		)
	}

	return huh.NewForm(huh.NewGroup(fields...)).
		WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height))
}

// View renders the active form.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render(m.mode.title()))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(theme.NoticeStyle.Render(m.notice))
		b.WriteString("\n\n")
	}
	if m.errMsg != "" {
		b.WriteString(theme.ErrorStyle.Render(m.errMsg))
		b.WriteString("\n\n")
	}

	if m.busy {
		b.WriteString(theme.DimmedStyle.Render("Please wait..."))
	} else if m.form != nil {
		b.WriteString(m.form.View())
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render(
		"ctrl+r register | ctrl+f forgot password | ctrl+t reset | ctrl+v verify | esc sign in",
	))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
