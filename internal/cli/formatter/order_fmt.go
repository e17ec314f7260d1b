package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/repository"
)

// FormatOrderList renders order summaries as a table.
func FormatOrderList(orders []repository.OrderSummary) string {
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			Bold(o.Code),
			o.Name,
			strconv.Itoa(o.ElementCount),
			o.CreatedAt.Format("2006-01-02"),
		})
	}
	return RenderTable([]Column{
		{Title: "CODE"},
		{Title: "NAME"},
		{Title: "ELEMENTS", Right: true},
		{Title: "CREATED"},
	}, rows)
}

// FormatOrderTree renders the element tree of an order with hours and
// labels per element.
func FormatOrderTree(o *domain.Order) string {
	var items []TreeItem
	var walk func(id domain.NodeID, level int)
	walk = func(id domain.NodeID, level int) {
		e := o.MustElement(id)
		items = append(items, TreeItem{
			Title:  elementTitle(e),
			Level:  level,
			Detail: elementDetail(o, e),
		})
		for _, c := range e.Children {
			walk(c, level+1)
		}
	}
	walk(o.Root(), 0)

	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("Order %s", o.Code)))
	b.WriteString("\n")
	if o.Description != "" {
		b.WriteString(Dim(o.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(RenderTree(items))
	return b.String()
}

// FormatElement renders the bookkeeping of a single element.
func FormatElement(o *domain.Order, e *domain.OrderElement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s\n", Bold(e.Code), e.Name, KindBadge(!e.IsLeaf()))
	fmt.Fprintf(&b, "%s %s\n", Dim("Hours:"), FormatHours(o.WorkHours(e.Node)))
	fmt.Fprintf(&b, "%s %s\n", Dim("Start:"), HumanDate(o.StartConstraint(e.Node)))
	fmt.Fprintf(&b, "%s %s\n", Dim("Deadline:"), HumanDate(e.Deadline))
	if e.Template != "" {
		fmt.Fprintf(&b, "%s %s\n", Dim("Template:"), e.Template)
	}

	if len(e.HoursGroups) > 0 {
		rows := make([][]string, 0, len(e.HoursGroups))
		for _, hg := range e.HoursGroups {
			rows = append(rows, []string{hg.Code, hg.ResourceType, FormatHours(hg.WorkingHours)})
		}
		b.WriteString("\n")
		b.WriteString(RenderTable([]Column{{Title: "HOURS GROUP"}, {Title: "RESOURCE"}, {Title: "HOURS", Right: true}}, rows))
	}

	if len(e.Materials) > 0 {
		rows := make([][]string, 0, len(e.Materials))
		for _, m := range e.Materials {
			rows = append(rows, []string{
				m.MaterialCode,
				strconv.FormatFloat(m.Units, 'f', -1, 64),
				fmt.Sprintf("%.2f", m.TotalPrice()),
			})
		}
		b.WriteString("\n")
		b.WriteString(RenderTable([]Column{{Title: "MATERIAL"}, {Title: "UNITS", Right: true}, {Title: "PRICE", Right: true}}, rows))
		fmt.Fprintf(&b, "%s %.2f\n", Dim("Material total:"), o.TotalMaterialPrice(e.Node))
	}

	if labels := o.InheritedLabels(e.Node); len(e.Labels) > 0 || len(labels) > 0 {
		names := make([]string, 0, len(e.Labels)+len(labels))
		for _, l := range e.Labels {
			names = append(names, StylePurple.Render(l.Name))
		}
		for _, l := range labels {
			names = append(names, Dim(l.Name+" (inherited)"))
		}
		fmt.Fprintf(&b, "%s %s\n", Dim("Labels:"), strings.Join(names, ", "))
	}

	if len(e.QualityForms) > 0 {
		names := make([]string, len(e.QualityForms))
		for i, qf := range e.QualityForms {
			names[i] = qf.FormName
		}
		fmt.Fprintf(&b, "%s %s\n", Dim("Quality forms:"), strings.Join(names, ", "))
	}

	if len(e.Criteria) > 0 {
		names := make([]string, len(e.Criteria))
		for i, c := range e.Criteria {
			names[i] = criterionLabel(c)
		}
		fmt.Fprintf(&b, "%s %s\n", Dim("Criteria:"), strings.Join(names, ", "))
	}

	return b.String()
}

func elementTitle(e *domain.OrderElement) string {
	return Bold(e.Code) + "  " + e.Name
}

func elementDetail(o *domain.Order, e *domain.OrderElement) string {
	detail := FormatHours(o.WorkHours(e.Node))
	if len(e.Labels) > 0 {
		names := make([]string, len(e.Labels))
		for i, l := range e.Labels {
			names[i] = l.Name
		}
		detail += " · " + strings.Join(names, ",")
	}
	return detail
}

func criterionLabel(c *domain.CriterionRequirement) string {
	label := c.Criterion
	if !c.Direct {
		label = Dim(label + " (indirect)")
	}
	if !c.Valid {
		label += StyleRed.Render(" invalid")
	}
	return label
}
