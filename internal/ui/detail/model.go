package detail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/detail"
	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/theme"
	"github.com/nhle/planner/internal/ui"
	"github.com/nhle/planner/internal/validate"
)

// ClosedMsg is sent once the overlay has closed and the task collection
// has been re-synced.
type ClosedMsg struct {
	ProjectID int64
	Deleted   bool
}

type mode int

const (
	modeView mode = iota
	modePickField
	modeEditValue
	modeComment
	modeTag
	modeAssign
	modeUnassign
	modeParent
	modeRemove
	modeConfirmDelete
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	field    detail.Field
	value    string
	text     string
	memberID int64
	parentID int64
	remove   string
	confirm  bool
}

type loadedMsg struct {
	taskID int64
	err    error
}

type doneMsg struct {
	taskID int64
	notice string
	fail   string
	err    error
}

type levelsMsg struct {
	levels []string
	err    error
}

type candidatesMsg struct {
	tasks []model.Task
	err   error
}

// Model is the task detail overlay.
type Model struct {
	session  *detail.Session
	children []model.Task
	keys     *keys.KeyMap
	viewport viewport.Model

	mode       mode
	form       *huh.Form
	fb         *formBindings
	edit       *detail.Edit
	levels     []string
	candidates []model.Task

	busy   bool
	errMsg string
	notice string
	width  int
	height int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		keys:     keys,
		viewport: vp,
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// Open shows s and starts fetching its aggregate. children are the task's
// subtasks from the project collection.
func (m *Model) Open(s *detail.Session, children []model.Task) tea.Cmd {
	m.session = s
	m.children = children
	m.mode = modeView
	m.form = nil
	m.edit = nil
	m.candidates = nil
	m.errMsg = ""
	m.notice = ""
	m.busy = true
	m.viewport.SetContent("")
	m.viewport.GotoTop()

	id := s.TaskID()
	return func() tea.Msg {
		return loadedMsg{taskID: id, err: s.Open(context.Background())}
	}
}

// Close ends the session, which re-syncs the project tasks, then reports
// ClosedMsg.
func (m Model) Close() tea.Cmd {
	s := m.session
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		s.Close()
		return ClosedMsg{ProjectID: s.ProjectID()}
	}
}

// InForm reports whether a form currently owns the keyboard.
func (m Model) InForm() bool {
	return m.mode != modeView
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}

	switch msg := msg.(type) {
	case loadedMsg:
		if msg.taskID != m.session.TaskID() {
			return m, nil
		}
		m.busy = false
		if msg.err != nil {
			m.errMsg = api.Message(msg.err, "Failed to load task")
		}
		m.refresh()
		return m, nil

	case doneMsg:
		if msg.taskID != m.session.TaskID() {
			return m, nil
		}
		return m.handleDone(msg)

	case levelsMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = api.Message(msg.err, "Failed to load effort levels")
			m.cancelEdit()
			return m, nil
		}
		m.levels = msg.levels
		return m.openForm(modeEditValue)

	case candidatesMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = api.Message(msg.err, "Failed to load tasks")
			return m, nil
		}
		m.candidates = msg.tasks
		task, _ := m.session.Task()
		m.fb.parentID = task.ParentID()
		return m.openForm(modeParent)

	case tea.KeyMsg:
		if m.mode != modeView {
			if msg.String() == "esc" {
				m.cancelEdit()
				m.mode = modeView
				m.form = nil
				return m, nil
			}
			return m.updateForm(msg)
		}
		if m.busy && !key.Matches(msg, m.keys.Back) {
			return m, nil
		}
		return m.handleKey(msg)
	}

	if m.mode != modeView {
		return m.updateForm(msg)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	agg := m.session.Aggregate()
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Back):
		return m, m.Close()

	case key.Matches(msg, m.keys.Refresh):
		m.busy = true
		m.errMsg = ""
		s := m.session
		id := s.TaskID()
		return m, func() tea.Msg {
			return loadedMsg{taskID: id, err: s.Refresh(context.Background())}
		}
	}

	if agg.Task == nil {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Edit):
		m.fb.field = detail.FieldTitle
		return m.openForm(modePickField)

	case key.Matches(msg, m.keys.Comment):
		m.fb.text = ""
		return m.openForm(modeComment)

	case key.Matches(msg, m.keys.Tag):
		m.fb.text = ""
		return m.openForm(modeTag)

	case key.Matches(msg, m.keys.Assign):
		if len(agg.AvailableMembers) == 0 {
			m.notice = "Every member is already assigned"
			return m, nil
		}
		m.fb.memberID = agg.AvailableMembers[0].UserID
		return m.openForm(modeAssign)

	case key.Matches(msg, m.keys.Unassign):
		if len(agg.Assignees) == 0 {
			m.notice = "Nobody is assigned"
			return m, nil
		}
		m.fb.memberID = agg.Assignees[0].UserID
		return m.openForm(modeUnassign)

	case key.Matches(msg, m.keys.Parent):
		m.busy = true
		s := m.session
		return m, func() tea.Msg {
			tasks, err := s.LoadParentCandidates(context.Background())
			return candidatesMsg{tasks: tasks, err: err}
		}

	case key.Matches(msg, m.keys.Remove):
		if len(m.removeOptions(agg)) == 0 {
			m.notice = "Nothing to remove"
			return m, nil
		}
		m.fb.remove = ""
		return m.openForm(modeRemove)

	case key.Matches(msg, m.keys.Delete):
		m.fb.confirm = false
		return m.openForm(modeConfirmDelete)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) openForm(md mode) (Model, tea.Cmd) {
	m.mode = md
	m.form = m.buildForm(md)
	if m.form == nil {
		m.mode = modeView
		return m, nil
	}
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.busy {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateAborted:
		m.cancelEdit()
		m.mode = modeView
		m.form = nil
		return m, nil
	case huh.StateCompleted:
		return m.submit()
	}
	return m, cmd
}

func (m *Model) cancelEdit() {
	if m.edit != nil {
		m.edit.Cancel()
		m.edit = nil
	}
}

func (m Model) submit() (Model, tea.Cmd) {
	s := m.session
	fb := *m.fb
	ctx := context.Background()

	run := func(notice, fail string, fn func() error) (Model, tea.Cmd) {
		m.busy = true
		m.errMsg = ""
		id := s.TaskID()
		return m, func() tea.Msg {
			return doneMsg{taskID: id, notice: notice, fail: fail, err: fn()}
		}
	}

	switch m.mode {
	case modePickField:
		edit, err := s.BeginEdit(fb.field)
		if err != nil {
			m.mode = modeView
			m.errMsg = err.Error()
			return m, nil
		}
		m.edit = edit
		m.fb.value = edit.Pending()
		if fb.field == detail.FieldEffort && m.levels == nil {
			m.busy = true
			return m, func() tea.Msg {
				levels, err := s.EffortLevels(ctx)
				return levelsMsg{levels: levels, err: err}
			}
		}
		return m.openForm(modeEditValue)

	case modeEditValue:
		edit := m.edit
		edit.Set(fb.value)
		return run("Saved", "Failed to update task", func() error { return edit.Confirm(ctx) })

	case modeComment:
		return run("Comment added", "Failed to add comment", func() error { return s.AddComment(ctx, fb.text) })

	case modeTag:
		return run("Tag added", "Failed to add tag", func() error { return s.AddTag(ctx, fb.text) })

	case modeAssign:
		return run("Assigned", "Failed to assign member", func() error { return s.Assign(ctx, fb.memberID) })

	case modeUnassign:
		return run("Unassigned", "Failed to remove assignee", func() error { return s.Unassign(ctx, fb.memberID) })

	case modeParent:
		if fb.parentID == 0 {
			return run("Parent removed", "Failed to update task", func() error { return s.RemoveParent(ctx) })
		}
		return run("Parent set", "Failed to update task", func() error { return s.SetParent(ctx, fb.parentID) })

	case modeRemove:
		return m.submitRemove(run, fb.remove)

	case modeConfirmDelete:
		if !fb.confirm {
			m.mode = modeView
			m.form = nil
			return m, nil
		}
		m.busy = true
		id := s.TaskID()
		return m, func() tea.Msg {
			if err := s.DeleteTask(ctx); err != nil {
				return doneMsg{taskID: id, fail: "Failed to delete task", err: err}
			}
			return ClosedMsg{ProjectID: s.ProjectID(), Deleted: true}
		}
	}

	m.mode = modeView
	return m, nil
}

func (m Model) submitRemove(run func(string, string, func() error) (Model, tea.Cmd), choice string) (Model, tea.Cmd) {
	s := m.session
	ctx := context.Background()
	kind, arg, _ := strings.Cut(choice, ":")

	switch kind {
	case "comment":
		for _, c := range s.Aggregate().Comments {
			if fmt.Sprint(c.ID) == arg {
				return run("Comment deleted", "Failed to delete comment", func() error { return s.DeleteComment(ctx, c) })
			}
		}
	case "tag":
		return run("Tag removed", "Failed to remove tag", func() error { return s.DeleteTag(ctx, arg) })
	case "parent":
		return run("Parent removed", "Failed to update task", func() error { return s.RemoveParent(ctx) })
	}

	m.mode = modeView
	m.form = nil
	return m, nil
}

func (m Model) handleDone(msg doneMsg) (Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.errMsg = api.Message(msg.err, msg.fail)
		// a rejected edit value stays open for correction
		if m.mode == modeEditValue && m.edit != nil && !m.edit.Done() && validate.IsError(msg.err) {
			m.refresh()
			return m.openForm(modeEditValue)
		}
		if errors.Is(msg.err, detail.ErrParentNotCandidate) {
			m.errMsg = "Choose a parent from the list"
		}
	} else {
		m.notice = msg.notice
	}
	m.edit = nil
	m.mode = modeView
	m.form = nil
	m.refresh()
	return m, nil
}

func (m Model) buildForm(md mode) *huh.Form {
	agg := m.session.Aggregate()
	var field huh.Field

	switch md {
	case modePickField:
		field = huh.NewSelect[detail.Field]().
			Title("Edit which field?").
			Options(
				huh.NewOption("Title", detail.FieldTitle),
				huh.NewOption("Description", detail.FieldDescription),
				huh.NewOption("Status", detail.FieldStatus),
				huh.NewOption("Effort level", detail.FieldEffort),
				huh.NewOption("Start date", detail.FieldStartDate),
				huh.NewOption("End date", detail.FieldEndDate),
			).
			Value(&m.fb.field)

	case modeEditValue:
		field = m.valueField()

	case modeComment:
		field = huh.NewText().Title("Comment").Value(&m.fb.text)

	case modeTag:
		field = huh.NewInput().Title("Tag").Placeholder("e.g. backend").Value(&m.fb.text)

	case modeAssign:
		opts := make([]huh.Option[int64], len(agg.AvailableMembers))
		for i, mb := range agg.AvailableMembers {
			opts[i] = huh.NewOption(memberLabel(mb), mb.UserID)
		}
		field = huh.NewSelect[int64]().Title("Assign member").Options(opts...).Value(&m.fb.memberID)

	case modeUnassign:
		opts := make([]huh.Option[int64], len(agg.Assignees))
		for i, a := range agg.Assignees {
			opts[i] = huh.NewOption(a.Name, a.UserID)
		}
		field = huh.NewSelect[int64]().Title("Remove assignee").Options(opts...).Value(&m.fb.memberID)

	case modeParent:
		opts := []huh.Option[int64]{huh.NewOption("No parent", int64(0))}
		for _, t := range m.candidates {
			opts = append(opts, huh.NewOption(fmt.Sprintf("#%d %s", t.ID, t.Title), t.ID))
		}
		field = huh.NewSelect[int64]().Title("Parent task").Options(opts...).Value(&m.fb.parentID)

	case modeRemove:
		field = huh.NewSelect[string]().Title("Remove").Options(m.removeOptions(agg)...).Value(&m.fb.remove)

	case modeConfirmDelete:
		title := ""
		if agg.Task != nil {
			title = agg.Task.Title
		}
		field = huh.NewConfirm().
			Title(fmt.Sprintf("Delete task %q?", title)).
			Affirmative("Yes, delete").
			Negative("Cancel").
			Value(&m.fb.confirm)

	default:
		return nil
	}

	return huh.NewForm(huh.NewGroup(field)).
		WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height))
}

func (m Model) valueField() huh.Field {
	switch m.fb.field {
	case detail.FieldDescription:
		return huh.NewText().Title("Description").Value(&m.fb.value)

	case detail.FieldStatus:
		var opts []huh.Option[string]
		for _, st := range model.AllStatuses {
			if st == model.StatusDeleted {
				continue
			}
			opts = append(opts, huh.NewOption(st.Label(), string(st)))
		}
		return huh.NewSelect[string]().Title("Status").Options(opts...).Value(&m.fb.value)

	case detail.FieldEffort:
		opts := make([]huh.Option[string], len(m.levels))
		for i, l := range m.levels {
			opts[i] = huh.NewOption(l, l)
		}
		return huh.NewSelect[string]().Title("Effort level").Options(opts...).Value(&m.fb.value)

	case detail.FieldStartDate:
		return huh.NewInput().Title("Start date").Placeholder(model.DateLayout).Value(&m.fb.value)

	case detail.FieldEndDate:
		return huh.NewInput().Title("End date").Placeholder(model.DateLayout).Value(&m.fb.value)

	default:
		return huh.NewInput().Title("Title").Value(&m.fb.value)
	}
}

// removeOptions lists what x can remove: own comments, tags and the parent.
func (m Model) removeOptions(agg model.TaskDetailAggregate) []huh.Option[string] {
	var opts []huh.Option[string]
	for _, c := range agg.Comments {
		if m.session.CanDeleteComment(c) {
			opts = append(opts, huh.NewOption("Comment: "+ui.Truncate(c.Comment, 40), fmt.Sprintf("comment:%d", c.ID)))
		}
	}
	for _, t := range agg.Tags {
		opts = append(opts, huh.NewOption("Tag: "+t, "tag:"+t))
	}
	if agg.Task != nil && agg.Task.Parent != nil {
		opts = append(opts, huh.NewOption("Parent: "+parentLabel(agg.Task.Parent), "parent:"))
	}
	return opts
}

// View renders the detail view.
func (m Model) View() string {
	if m.session == nil {
		return ui.Centered(m.width, m.height, "No task selected")
	}
	if m.busy && m.session.Aggregate().Task == nil {
		return ui.Centered(m.width, m.height, "Loading task details...")
	}

	var parts []string
	if m.errMsg != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.errMsg))
	} else if m.notice != "" {
		parts = append(parts, theme.NoticeStyle.Render(m.notice))
	}

	if m.mode != modeView && m.form != nil {
		if m.edit != nil {
			parts = append(parts, theme.DimmedStyle.Render("Current: "+m.edit.Original()))
		}
		parts = append(parts, lipgloss.NewStyle().Padding(1, 2).Render(m.form.View()))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	if m.busy {
		parts = append(parts, theme.DimmedStyle.Render("Saving..."))
	}
	parts = append(parts, m.viewport.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// refresh re-renders the viewport from the session aggregate.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent())
}

func (m Model) renderContent() string {
	agg := m.session.Aggregate()
	if agg.Task == nil {
		return theme.DimmedStyle.Render("Task unavailable.")
	}
	task := agg.Task

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(12)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	headStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	row := func(k, v string) string {
		return metaStyle.Render(k) + valStyle.Render(v)
	}

	var sections []string
	sections = append(sections, headStyle.Render(task.Title))
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
		theme.StatusStyle(task.Status).Render(task.Status.Label()), "  ",
		theme.EffortStyle(task.EffortLevel).Render(task.EffortLevel)))
	sections = append(sections, "")

	sections = append(sections,
		row("Start", model.FormatDate(task.StartDate)),
		row("End", model.FormatDate(task.EndDate)),
		row("Estimate", estimate(*task)),
	)
	if task.Parent != nil {
		sections = append(sections, row("Parent", parentLabel(task.Parent)))
	}
	sections = append(sections, row("Assignees", assigneeNames(agg.Assignees)))
	if len(agg.Tags) > 0 {
		sections = append(sections, row("Tags", strings.Join(agg.Tags, ", ")))
	} else {
		sections = append(sections, row("Tags", "—"))
	}

	sep := ui.Separator(m.width)
	sections = append(sections, "", sep, "", headStyle.Render("Description"))
	if task.Description != "" {
		sections = append(sections, task.Description)
	} else {
		sections = append(sections, theme.HelpStyle.Render("No description"))
	}

	if len(m.children) > 0 {
		sections = append(sections, "", sep, "", headStyle.Render(fmt.Sprintf("Subtasks (%d)", len(m.children))))
		for _, c := range m.children {
			sections = append(sections, theme.StatusStyle(c.Status).Render(c.Status.Label())+" "+c.Title)
		}
	}

	sections = append(sections, "", sep, "", headStyle.Render(fmt.Sprintf("Comments (%d)", len(agg.Comments))))
	authorStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
	for _, c := range agg.Comments {
		author := c.UserName
		if author == "" {
			author = fmt.Sprintf("user %d", c.UserID)
		}
		if m.session.CanDeleteComment(c) {
			author += " (you)"
		}
		sections = append(sections,
			authorStyle.Render(author)+"  "+theme.DimmedStyle.Render(formatStamp(c.CreatedAt)),
			c.Comment,
			"")
	}

	sections = append(sections, sep, "", headStyle.Render("Activity"))
	if len(agg.Logs) == 0 {
		sections = append(sections, theme.HelpStyle.Render("No activity yet"))
	}
	for _, l := range agg.Logs {
		line := theme.DimmedStyle.Render(formatStamp(l.CreatedAt)) + "  " + l.Action
		if l.Details != "" {
			line += ": " + l.Details
		}
		sections = append(sections, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// KeyHints returns the status bar hints.
func (m Model) KeyHints() string {
	if m.mode != modeView {
		return "enter confirm | esc cancel"
	}
	return "e edit | c comment | t tag | a assign | u unassign | p parent | x remove | D delete | r refresh | esc close"
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.session != nil {
		m.refresh()
	}
}

func estimate(t model.Task) string {
	d := t.EstimateDays()
	if d <= 0 {
		return "—"
	}
	return fmt.Sprintf("%.1f days", d)
}

func parentLabel(p *model.TaskRef) string {
	if p.Title != "" {
		return p.Title
	}
	return fmt.Sprintf("#%d", p.ID)
}

func memberLabel(mb model.Member) string {
	if mb.Role == "" {
		return mb.Name
	}
	return fmt.Sprintf("%s (%s)", mb.Name, strings.ToLower(mb.Role))
}

func assigneeNames(as []model.Assignee) string {
	if len(as) == 0 {
		return "—"
	}
	names := make([]string, len(as))
	for i, a := range as {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

func formatStamp(ts string) string {
	return model.FormatDate(&ts)
}
