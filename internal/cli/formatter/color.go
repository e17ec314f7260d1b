package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/ordersync/internal/scheduling"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen      = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow     = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleYellowBold = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	StyleRed        = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue       = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple     = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim        = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg         = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader     = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold       = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// SetColorEnabled switches the default renderer between the detected
// terminal profile and plain ASCII output.
func SetColorEnabled(enabled bool) {
	if !enabled {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

// StateStyle returns the style used for a scheduling state.
func StateStyle(t scheduling.Type) lipgloss.Style {
	switch t {
	case scheduling.SchedulingPoint:
		return StyleGreen
	case scheduling.SomewhatScheduled:
		return StyleYellow
	default:
		return StyleDim
	}
}

// StateIndicator returns a colored indicator such as "● POINT".
func StateIndicator(t scheduling.Type) string {
	switch t {
	case scheduling.SchedulingPoint:
		return StyleGreen.Render("● POINT")
	case scheduling.SomewhatScheduled:
		return StyleYellow.Render("◐ PARTIAL")
	default:
		return StyleDim.Render("○ NONE")
	}
}

// SyncKindStyle returns the style used for a synchronization kind.
func SyncKindStyle(k scheduling.SyncKind) lipgloss.Style {
	switch k {
	case scheduling.MustAdd, scheduling.MustAddGroup:
		return StyleGreen
	case scheduling.MustRemove:
		return StyleRed
	case scheduling.ReplaceHoursGroup:
		return StyleBlue
	default:
		return StyleYellow
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
