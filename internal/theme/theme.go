package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// HelpKeyStyle renders the key column of the help overlay.
var HelpKeyStyle = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)

// SectionStyle renders group headings inside a panel.
var SectionStyle = lipgloss.NewStyle().Foreground(ColorMagenta).Bold(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// DimmedStyle renders secondary text.
var DimmedStyle = lipgloss.NewStyle().Foreground(ColorGray)

// ErrorStyle renders user-facing failure messages.
var ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)

// NoticeStyle renders transient success/info messages.
var NoticeStyle = lipgloss.NewStyle().Foreground(ColorYellow).Italic(true)

// TitleStyle renders view titles.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// ActiveTabStyle and TabStyle render the workspace tab strip.
var (
	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorBlue).
			Padding(0, 2)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Padding(0, 2)
)

// ColumnStyle frames a board column; FocusedColumnStyle the one under the cursor.
var (
	ColumnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	FocusedColumnStyle = ColumnStyle.
				BorderForeground(ColorBlue)

	// DragColumnStyle marks the column a picked-up task would be dropped into.
	DragColumnStyle = ColumnStyle.
			BorderForeground(ColorYellow)
)

// CarriedStyle marks the task currently picked up on the board.
var CarriedStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorYellow).
	Reverse(true)

// BarStyle fills a schedule timeline bar.
var BarStyle = lipgloss.NewStyle().Foreground(ColorBlue)

// StatusStyle returns a color-coded style for the given task status.
func StatusStyle(status model.Status) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case model.StatusNotStarted:
		return base.Foreground(ColorBlue)
	case model.StatusInProgress:
		return base.Foreground(ColorYellow)
	case model.StatusDone:
		return base.Foreground(ColorGreen)
	case model.StatusOnHold:
		return base.Foreground(ColorOrange)
	case model.StatusDeleted:
		return base.Foreground(ColorRed).Strikethrough(true)
	default:
		return base.Foreground(ColorGray)
	}
}

// EffortStyle returns a style for an effort level label. Levels are
// server-defined strings; the common ones get a color.
func EffortStyle(level string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch level {
	case "HIGH", "VERY_HIGH":
		return base.Foreground(ColorRed)
	case "MEDIUM":
		return base.Foreground(ColorOrange)
	case "LOW", "VERY_LOW":
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorMagenta)
	}
}
