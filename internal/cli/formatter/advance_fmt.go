package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/service"
)

// FormatAdvanceTypes renders advance types as a table.
func FormatAdvanceTypes(types []*domain.AdvanceType) string {
	rows := make([][]string, 0, len(types))
	for _, t := range types {
		pct := Dim("no")
		if t.Percentage {
			pct = StyleGreen.Render("yes")
		}
		rows = append(rows, []string{
			Bold(t.UnitName),
			strconv.FormatFloat(t.DefaultMaxValue, 'f', -1, 64),
			pct,
		})
	}
	return RenderTable([]Column{
		{Title: "UNIT"},
		{Title: "DEFAULT MAX", Right: true},
		{Title: "PERCENTAGE"},
	}, rows)
}

// FormatProgress renders the advance percentage of every element as a tree
// of progress bars.
func FormatProgress(orderCode string, rows []service.ElementProgress) string {
	items := make([]TreeItem, 0, len(rows))
	for _, r := range rows {
		marker := ""
		if r.Finished {
			marker = StyleGreen.Render("✔ ")
		}
		items = append(items, TreeItem{
			Title:  elementTitle(r.Element),
			Level:  r.Depth,
			Marker: marker,
			Detail: RenderCompactBar(r.Percentage, 10) + " " + FormatPercent(r.Percentage),
		})
	}

	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("Progress %s", orderCode)))
	b.WriteString("\n\n")
	b.WriteString(RenderTree(items))
	return b.String()
}
