package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/scheduling"
	"github.com/alexanderramin/ordersync/internal/service"
)

// syncKindOrder fixes the order of the per-kind summary line.
var syncKindOrder = []scheduling.SyncKind{
	scheduling.MustAddGroup,
	scheduling.MustAdd,
	scheduling.ModifyGroup,
	scheduling.ReplaceHoursGroup,
	scheduling.MustRemove,
}

// FormatStates renders the scheduling state of every element as a tree.
func FormatStates(orderCode string, version domain.OrderVersion, states []service.ElementState) string {
	items := make([]TreeItem, 0, len(states))
	for _, s := range states {
		detail := string(s.State)
		if s.TaskSourceID != "" {
			detail += " · " + FormatHours(s.Hours)
		}
		items = append(items, TreeItem{
			Title:  elementTitle(s.Element),
			Level:  s.Depth,
			Marker: StateStyle(s.State).Render(stateGlyph(s.State) + " "),
			Detail: detail,
		})
	}

	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("%s @ %s", orderCode, version)))
	b.WriteString("\n\n")
	b.WriteString(RenderTree(items))
	return b.String()
}

func stateGlyph(t scheduling.Type) string {
	switch t {
	case scheduling.SchedulingPoint:
		return "●"
	case scheduling.SomewhatScheduled:
		return "◐"
	default:
		return "○"
	}
}

// FormatSyncPlan renders the commands of a synchronization, nested the way
// they are sent, followed by a per-kind summary.
func FormatSyncPlan(res *service.SyncResult) string {
	var b strings.Builder
	title := "Sync plan"
	if res.Applied {
		title = "Synchronized"
	}
	b.WriteString(Header(fmt.Sprintf("%s %s @ %s", title, res.Order.Code, res.Version)))
	b.WriteString("\n\n")

	if len(res.Syncs) == 0 {
		b.WriteString(Dim("Nothing to synchronize."))
		b.WriteString("\n")
		return b.String()
	}

	var write func(s scheduling.Synchronization, depth int)
	write = func(s scheduling.Synchronization, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(SyncKindStyle(s.Kind).Render(string(s.Kind)))
		b.WriteString(" ")
		b.WriteString(Bold(elementCode(res.Order, s.TaskSource.ElementID)))
		if hours := hoursOf(s.HoursGroups); len(s.HoursGroups) > 0 {
			b.WriteString(Dim(" " + FormatHours(hours)))
		}
		b.WriteString("\n")
		for _, c := range s.Children {
			write(c, depth+1)
		}
	}
	for _, s := range res.Syncs {
		write(s, 0)
	}

	b.WriteString("\n")
	b.WriteString(FormatSyncCounts(res.Counts))
	b.WriteString("\n")
	return b.String()
}

// FormatSyncCounts renders counts such as "MUST_ADD 3, MODIFY_GROUP 1",
// skipping kinds that did not occur.
func FormatSyncCounts(counts map[scheduling.SyncKind]int) string {
	var parts []string
	for _, k := range syncKindOrder {
		if n := counts[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", SyncKindStyle(k).Render(string(k)), n))
		}
	}
	if len(parts) == 0 {
		return Dim("no commands")
	}
	return strings.Join(parts, ", ")
}

// FormatTasks renders the tasks of one version as a table.
func FormatTasks(o *domain.Order, tasks []*domain.Task) string {
	codeByTask := make(map[string]string, len(tasks))
	for _, t := range tasks {
		codeByTask[t.ID] = elementCode(o, t.ElementID)
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		parent := "--"
		if t.ParentID != "" {
			parent = codeByTask[t.ParentID]
		}
		rows = append(rows, []string{
			Bold(codeByTask[t.ID]),
			t.Name,
			KindBadge(t.Group),
			FormatHours(t.WorkHours),
			parent,
		})
	}
	return RenderTable([]Column{
		{Title: "ELEMENT"},
		{Title: "NAME"},
		{Title: "KIND"},
		{Title: "HOURS", Right: true},
		{Title: "PARENT"},
	}, rows)
}

// FormatVersions renders the scenarios of an order, naming the scenario
// each one was forked from.
func FormatVersions(scenarios []*domain.Scenario) string {
	nameByID := make(map[string]string, len(scenarios))
	for _, s := range scenarios {
		nameByID[s.ID] = s.Name
	}
	rows := make([][]string, 0, len(scenarios))
	for _, s := range scenarios {
		from := Dim("--")
		if !s.IsBase() {
			from = nameByID[s.ParentID]
		}
		rows = append(rows, []string{
			Bold(string(s.Version)),
			from,
			s.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return RenderTable(Cols("VERSION", "FORKED FROM", "CREATED"), rows)
}

func elementCode(o *domain.Order, elementID string) string {
	if e, ok := o.ElementByID(elementID); ok {
		return e.Code
	}
	return TruncID(elementID)
}

func hoursOf(hgs []domain.HoursGroup) int {
	total := 0
	for _, hg := range hgs {
		total += hg.WorkingHours
	}
	return total
}
