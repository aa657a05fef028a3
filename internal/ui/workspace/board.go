package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/projection"
	"github.com/nhle/planner/internal/reconcile"
	"github.com/nhle/planner/internal/theme"
	"github.com/nhle/planner/internal/ui"
)

type dropResultMsg struct {
	result reconcile.Result
	err    error
}

// boardView is the Board tab. A picked-up task is carried between columns
// with the keyboard and dropped with enter.
type boardView struct {
	tasks  []model.Task
	cols   []projection.Column
	col    int
	row    int
	drag   *reconcile.Drag
	target int

	// pending holds drops whose request is still in flight; the task is
	// drawn in its destination column until the result arrives.
	pending map[int64]model.Status
}

func newBoardView() boardView {
	return boardView{cols: projection.Board(nil)}
}

func (b *boardView) setTasks(tasks []model.Task) {
	b.tasks = tasks
	b.reproject()
}

func (b *boardView) reproject() {
	shown := b.tasks
	if len(b.pending) > 0 {
		shown = make([]model.Task, len(b.tasks))
		for i, t := range b.tasks {
			if st, ok := b.pending[t.ID]; ok {
				t.Status = st
			}
			shown[i] = t
		}
	}
	b.cols = projection.Board(shown)
	b.clamp()
}

func (b *boardView) clamp() {
	if b.col < 0 {
		b.col = 0
	}
	if b.col >= len(b.cols) {
		b.col = len(b.cols) - 1
	}
	n := len(b.cols[b.col].Tasks)
	if b.row >= n {
		b.row = n - 1
	}
	if b.row < 0 {
		b.row = 0
	}
}

func (b boardView) carrying() bool {
	return b.drag != nil
}

func (b boardView) selected() *model.Task {
	if b.col >= len(b.cols) || b.row >= len(b.cols[b.col].Tasks) {
		return nil
	}
	t := b.cols[b.col].Tasks[b.row]
	return &t
}

func (b *boardView) cancel() {
	if b.drag == nil {
		return
	}
	b.drag.Cancel()
	b.drag = nil
}

// finish clears the optimistic placement of a dropped task.
func (b *boardView) finish(taskID int64) {
	if _, ok := b.pending[taskID]; !ok {
		return
	}
	next := make(map[int64]model.Status, len(b.pending))
	for id, st := range b.pending {
		if id != taskID {
			next[id] = st
		}
	}
	b.pending = next
	b.reproject()
}

func (b *boardView) hold(taskID int64, st model.Status) {
	next := make(map[int64]model.Status, len(b.pending)+1)
	for id, s := range b.pending {
		next[id] = s
	}
	next[taskID] = st
	b.pending = next
	b.reproject()
}

func (m Model) handleBoardKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	b := &m.board
	switch {
	case key.Matches(msg, m.keys.Left):
		if b.col > 0 {
			b.col--
			b.clamp()
		}
	case key.Matches(msg, m.keys.Right):
		if b.col < len(b.cols)-1 {
			b.col++
			b.clamp()
		}
	case key.Matches(msg, m.keys.Up):
		if b.row > 0 {
			b.row--
		}
	case key.Matches(msg, m.keys.Down):
		if b.row < len(b.cols[b.col].Tasks)-1 {
			b.row++
		}
	case key.Matches(msg, m.keys.Select):
		return m, m.openTask(b.selected())
	case key.Matches(msg, m.keys.Grab):
		t := b.selected()
		if t == nil {
			return m, nil
		}
		if _, inFlight := b.pending[t.ID]; inFlight {
			m.notice = "That task is still being saved"
			return m, nil
		}
		m.notice = ""
		b.drag = m.deps.Reconciler.Begin(*t)
		b.target = b.col
	}
	return m, nil
}

func (m Model) handleDragKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	b := &m.board
	switch {
	case key.Matches(msg, m.keys.Left):
		if b.target > 0 {
			b.target--
		}
	case key.Matches(msg, m.keys.Right):
		if b.target < len(b.cols)-1 {
			b.target++
		}
	case key.Matches(msg, m.keys.Back):
		b.cancel()
	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Grab):
		d := b.drag
		b.drag = nil
		dest := b.cols[b.target].Status
		task := d.Task()
		if dest != task.Status {
			b.hold(task.ID, dest)
			b.col = b.target
		}
		return m, func() tea.Msg {
			res, err := d.Drop(context.Background(), &dest)
			return dropResultMsg{result: res, err: err}
		}
	}
	return m, nil
}

func (b boardView) view(width, height int) string {
	n := len(b.cols)
	colWidth := max(16, width/n-2)
	rows := max(1, height-4)

	var carried model.Task
	if b.drag != nil {
		carried = b.drag.Task()
	}

	rendered := make([]string, n)
	for i, c := range b.cols {
		var lines []string
		title := theme.StatusStyle(c.Status).Render(fmt.Sprintf("%s (%d)", c.Status.Label(), len(c.Tasks)))
		lines = append(lines, title, "")

		if b.drag != nil && i == b.target && carried.Status != c.Status {
			lines = append(lines, theme.CarriedStyle.Render(ui.Truncate("▸ "+carried.Title, colWidth-2)))
		}

		start := 0
		if i == b.col && b.row >= rows {
			start = b.row - rows + 1
		}
		for j := start; j < len(c.Tasks) && j-start < rows; j++ {
			t := c.Tasks[j]
			label := ui.Truncate(t.Title, colWidth-2)
			_, saving := b.pending[t.ID]
			switch {
			case b.drag != nil && t.ID == carried.ID:
				if i == b.target {
					label = theme.CarriedStyle.Render(label)
				} else {
					label = theme.DimmedStyle.Render(label)
				}
			case saving:
				label = theme.NoticeStyle.Render(label + " …")
			case b.drag == nil && i == b.col && j == b.row:
				label = theme.SelectedItemStyle.Render(label)
			default:
				label = theme.ListItemStyle.Render(label)
			}
			lines = append(lines, label)
		}
		if len(c.Tasks) == 0 {
			lines = append(lines, theme.DimmedStyle.Render("empty"))
		}

		style := theme.ColumnStyle
		switch {
		case b.drag != nil && i == b.target:
			style = theme.DragColumnStyle
		case b.drag == nil && i == b.col:
			style = theme.FocusedColumnStyle
		}
		rendered[i] = style.Width(colWidth).Height(height - 2).Render(strings.Join(lines, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
