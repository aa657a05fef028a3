package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/projection"
	"github.com/nhle/planner/internal/schedule"
	"github.com/nhle/planner/internal/theme"
	"github.com/nhle/planner/internal/ui"
)

const labelWidth = 28

type scheduleMsg struct {
	projectID int64
	result    model.ScheduleResult
	ok        bool
	restored  bool
	err       error
}

// scheduleView is the Schedule tab: the last generated schedule drawn as a
// day timeline.
type scheduleView struct {
	result     model.ScheduleResult
	has        bool
	generating bool
	errMsg     string
	viewport   viewport.Model
}

func newScheduleView(width, height int) scheduleView {
	return scheduleView{viewport: viewport.New(width, max(1, height-6))}
}

func (v *scheduleView) reset() {
	v.result = model.ScheduleResult{}
	v.has = false
	v.generating = false
	v.errMsg = ""
	v.viewport.SetContent("")
}

func (v *scheduleView) generate(s *schedule.Scheduler, projectID int64) tea.Cmd {
	if s.Generating(projectID) {
		return nil
	}
	v.generating = true
	v.errMsg = ""
	return func() tea.Msg {
		res, err := s.Generate(context.Background(), projectID)
		return scheduleMsg{projectID: projectID, result: res, ok: err == nil, err: err}
	}
}

func (v *scheduleView) apply(msg scheduleMsg) {
	if msg.restored {
		// a generate that finished first wins over the cached copy
		if msg.ok && !v.has {
			v.result = msg.result
			v.has = true
		}
		return
	}
	v.generating = false
	if msg.err != nil {
		v.errMsg = schedule.ErrMessage(msg.err)
		return
	}
	v.result = msg.result
	v.has = true
}

func (v *scheduleView) setSize(width, height int) {
	v.viewport.Width = width
	v.viewport.Height = max(1, height-6)
}

// render rebuilds the viewport content for width.
func (v *scheduleView) render(width int) {
	if !v.has {
		v.viewport.SetContent("")
		return
	}
	v.viewport.SetContent(renderTimeline(v.result, width))
}

func (v scheduleView) view(width, height int) string {
	var head []string
	switch {
	case v.generating:
		head = append(head, theme.NoticeStyle.Render("Generating schedule..."))
	case v.errMsg != "":
		head = append(head, theme.ErrorStyle.Render(v.errMsg))
	}

	if !v.has {
		msg := "No schedule generated yet.\n\nPress g to generate one."
		if len(head) > 0 {
			msg = strings.Join(head, "\n") + "\n\n" + msg
		}
		return ui.Centered(width, height, msg)
	}

	summary := theme.DimmedStyle.Render(fmt.Sprintf("%d tasks · %d days total · g to regenerate",
		len(v.result.Tasks), v.result.TotalDays))
	head = append(head, summary)

	v.viewport.Width = width
	v.viewport.Height = max(1, height-len(head))
	return lipgloss.JoinVertical(lipgloss.Left, append(head, v.viewport.View())...)
}

// renderTimeline draws one row per scheduled task with its subtasks
// underneath. Bars are scaled down when the span exceeds the width.
func renderTimeline(res model.ScheduleResult, width int) string {
	bars, origin := projection.Timeline(res)

	span := 0
	for _, b := range bars {
		if b.HasDates && b.Offset+b.Length > span {
			span = b.Offset + b.Length
		}
	}
	avail := max(10, width-labelWidth-4)
	scale := 1.0
	if span > avail {
		scale = float64(avail) / float64(span)
	}

	var lines []string
	if !origin.IsZero() {
		lines = append(lines, theme.DimmedStyle.Render(
			fmt.Sprintf("%-*s%s", labelWidth, "", origin.Format("Jan 02, 2006"))))
	}

	for _, b := range bars {
		label := fmt.Sprintf("%-*s", labelWidth, ui.Truncate(b.Task.Title, labelWidth-2))
		label = theme.StatusStyle(b.Task.Status).UnsetPadding().Render(label)

		var bar string
		if b.HasDates {
			off := int(float64(b.Offset) * scale)
			n := max(1, int(float64(b.Length)*scale))
			bar = strings.Repeat(" ", off) + theme.BarStyle.Render(strings.Repeat("█", n)) +
				theme.DimmedStyle.Render(fmt.Sprintf(" %dd", b.Length))
		} else {
			bar = theme.DimmedStyle.Render("unscheduled")
		}
		lines = append(lines, label+bar)

		for _, st := range b.Task.Subtasks {
			sub := fmt.Sprintf("  ↳ %s", ui.Truncate(st.Title, labelWidth-6))
			lines = append(lines, theme.DimmedStyle.Render(
				fmt.Sprintf("%-*s%s", labelWidth, sub, st.Status.Label())))
		}
	}

	if len(bars) == 0 {
		lines = append(lines, theme.DimmedStyle.Render("The schedule has no tasks."))
	}
	return strings.Join(lines, "\n")
}
