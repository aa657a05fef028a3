package workspace

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/theme"
	"github.com/nhle/planner/internal/ui"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{i.Task.Status.Label(), i.Task.EffortLevel}
	if i.Task.EndDate != nil {
		parts = append(parts, "due "+model.FormatDate(i.Task.EndDate))
	}
	return strings.Join(parts, " | ")
}

// TaskDelegate implements list.ItemDelegate for one-line task rows.
type TaskDelegate struct{}

// Height returns the number of lines each item takes.
func (d TaskDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d TaskDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d TaskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task row: status, effort, title, parent and dates.
func (d TaskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	t := ti.Task

	statusBadge := theme.StatusStyle(t.Status).Render(fmt.Sprintf("%-11s", t.Status.Label()))
	effort := theme.EffortStyle(t.EffortLevel).Render(fmt.Sprintf("%-8s", t.EffortLevel))

	parent := ""
	if t.Parent != nil {
		label := t.Parent.Title
		if label == "" {
			label = fmt.Sprintf("#%d", t.Parent.ID)
		}
		parent = theme.DimmedStyle.Render(" ↳ " + label)
	}

	dates := ""
	if t.StartDate != nil || t.EndDate != nil {
		dates = theme.DimmedStyle.Render(fmt.Sprintf("  %s → %s",
			model.FormatDate(t.StartDate), model.FormatDate(t.EndDate)))
	}

	title := ui.Truncate(t.Title, max(10, m.Width()-50))
	line := fmt.Sprintf("%s %s %s%s%s", statusBadge, effort, title, parent, dates)

	if t.Status == model.StatusDone {
		line = theme.DimmedStyle.Render(line)
	}
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// listView is the List tab: the non-deleted tasks in server order.
type listView struct {
	list list.Model
}

func newListView(width, height int) listView {
	l := list.New([]list.Item{}, TaskDelegate{}, width, height-2)
	l.SetShowTitle(false)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("task", "tasks")
	return listView{list: l}
}

func (v *listView) setTasks(tasks []model.Task) {
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = TaskItem{Task: t}
	}
	v.list.SetItems(items)
}

func (v listView) selected() *model.Task {
	item, ok := v.list.SelectedItem().(TaskItem)
	if !ok {
		return nil
	}
	t := item.Task
	return &t
}

func (v listView) update(msg tea.Msg) (listView, tea.Cmd) {
	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *listView) setSize(width, height int) {
	v.list.SetSize(width, max(1, height-6))
}

func (v listView) view(width, height int) string {
	if len(v.list.Items()) == 0 {
		return ui.Centered(width, height, "No tasks yet.\n\nPress n to add one.")
	}
	v.list.SetSize(width, height)
	return lipgloss.NewStyle().MaxHeight(height).Render(v.list.View())
}
