package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		titleRendered := StyleHeader.Render(strings.ToUpper(title))
		inner := titleRendered + "\n\n" + content
		return boxStyle.Render(inner)
	}

	return boxStyle.Render(content)
}

// HumanDate returns a date as "Jan 2, 2006", or "--" for a nil date.
func HumanDate(t *time.Time) string {
	if t == nil {
		return "--"
	}
	return t.Format("Jan 2, 2006")
}

// FormatHours renders a whole number of hours such as "40h".
func FormatHours(h int) string {
	if h <= 0 {
		return "0h"
	}
	return fmt.Sprintf("%dh", h)
}

// FormatPercent renders a ratio in [0,1] as a percentage with at most one
// decimal.
func FormatPercent(ratio float64) string {
	pct := ratio * 100
	if pct == float64(int(pct)) {
		return fmt.Sprintf("%d%%", int(pct))
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// KindBadge returns a short purple marker for group elements.
func KindBadge(group bool) string {
	if group {
		return StylePurple.Render("group")
	}
	return StyleDim.Render("leaf")
}
