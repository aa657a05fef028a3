package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/theme"
)

// Layout manages the terminal frame: header, content area and status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top bar with the current location on the left
// and the signed-in user on the right.
func (l Layout) RenderHeader(title string, user string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	userRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(user)

	return l.fill(theme.HeaderStyle, titleRendered, userRendered)
}

// RenderStatusBar renders the bottom status bar. A non-empty notice replaces
// the keyboard hints.
func (l Layout) RenderStatusBar(hints string, notice string) string {
	if notice != "" {
		hints = notice
	}
	return l.fill(theme.StatusBarStyle, theme.StatusBarStyle.Render(hints), "")
}

func (l Layout) fill(style lipgloss.Style, left, right string) string {
	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	filler := style.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(style.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar. Content is padded to fill the
// space between them.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	if h := l.ContentHeight(); h > 0 {
		content = lipgloss.NewStyle().Height(h).MaxHeight(h).Render(content)
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}

// Centered renders msg in the middle of a width x height box.
func Centered(width, height int, msg string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(msg)
}

// Separator returns a horizontal rule no wider than 80 columns.
func Separator(width int) string {
	n := min(width-4, 80)
	if n < 0 {
		n = 0
	}
	return lipgloss.NewStyle().Foreground(theme.ColorSubtle).Render(strings.Repeat("─", n))
}

// FormWidth clamps width to a comfortable range for huh forms.
func FormWidth(width int) int {
	return max(40, min(width-4, 100))
}

// FormHeight clamps height to a usable minimum for huh forms.
func FormHeight(height int) int {
	return max(10, height-4)
}

// Truncate shortens s to at most n display cells, marking the cut with "…".
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) > n-1 {
		r = r[:n-1]
	}
	return string(r) + "…"
}
