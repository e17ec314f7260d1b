package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a tree display. Items are given in pre-order;
// Level 0 is the root.
type TreeItem struct {
	Title  string
	Level  int
	Marker string // styled prefix drawn before the title, optional
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree renders pre-ordered items as an indented tree using
// box-drawing connectors. Detail badges are right-aligned.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	contents := make([]string, len(items))
	maxWidth := 0
	// open[l] is true while the branch at level l has more siblings below.
	var open []bool

	for idx, item := range items {
		last := isLastSibling(items, idx)
		var prefix strings.Builder
		if item.Level > 0 {
			for l := 1; l < item.Level; l++ {
				if l < len(open) && open[l] {
					prefix.WriteString(treePipe)
				} else {
					prefix.WriteString(treeBlank)
				}
			}
			if last {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}
		for len(open) <= item.Level {
			open = append(open, false)
		}
		open[item.Level] = !last

		content := StyleDim.Render(prefix.String()) + item.Marker + item.Title
		contents[idx] = content
		if w := lipgloss.Width(content); w > maxWidth {
			maxWidth = w
		}
	}

	var b strings.Builder
	for idx, item := range items {
		b.WriteString(contents[idx])
		if item.Detail != "" {
			pad := maxWidth - lipgloss.Width(contents[idx])
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString("  ")
			b.WriteString(StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func isLastSibling(items []TreeItem, idx int) bool {
	level := items[idx].Level
	for _, next := range items[idx+1:] {
		if next.Level < level {
			return true
		}
		if next.Level == level {
			return false
		}
	}
	return true
}
