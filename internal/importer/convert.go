package importer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/ordersync/internal/domain"
)

// Generated is the result of converting an import schema.
type Generated struct {
	Order *domain.Order
	// Scheduled lists the codes of elements to initialize as scheduling
	// points, in file order.
	Scheduled []string
}

// Convert transforms a validated ImportSchema into domain objects ready for persistence.
// Call ValidateImportSchema first; Convert assumes the schema is valid.
func Convert(schema *ImportSchema) (*Generated, error) {
	now := time.Now().UTC().Truncate(time.Second)

	o := domain.NewOrder(uuid.New().String(), schema.Order.Code, schema.Order.Name, now)
	o.Description = schema.Order.Description
	o.MustElement(o.Root()).Description = schema.Order.Description

	nodes := map[string]domain.NodeID{schema.Order.Code: o.Root()}
	gen := &Generated{Order: o}

	for _, ei := range schema.Elements {
		e := &domain.OrderElement{
			ID:          uuid.New().String(),
			Code:        ei.Code,
			Name:        ei.Name,
			Description: ei.Description,
			Kind:        domain.ElementKind(ei.Kind),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		for _, h := range ei.Hours {
			e.HoursGroups = append(e.HoursGroups, domain.HoursGroup{
				ID:           uuid.New().String(),
				Code:         h.Code,
				WorkingHours: h.Hours,
				ResourceType: h.ResourceType,
			})
		}
		var err error
		if e.InitDate, err = parseOptionalDate(ei.InitDate); err != nil {
			return nil, fmt.Errorf("element %q init_date: %w", ei.Code, err)
		}
		if e.Deadline, err = parseOptionalDate(ei.Deadline); err != nil {
			return nil, fmt.Errorf("element %q deadline: %w", ei.Code, err)
		}

		parent := o.Root()
		if ei.ParentCode != nil && *ei.ParentCode != "" {
			p, ok := nodes[*ei.ParentCode]
			if !ok {
				return nil, fmt.Errorf("element %q: parent %q not converted", ei.Code, *ei.ParentCode)
			}
			parent = p
		}
		node, err := o.Attach(parent, e)
		if err != nil {
			return nil, fmt.Errorf("attaching element %q: %w", ei.Code, err)
		}
		nodes[ei.Code] = node

		if ei.Template != "" {
			e.InitializeTemplate(ei.Template)
		}
		if err := applyBookkeeping(o, node, ei); err != nil {
			return nil, fmt.Errorf("element %q: %w", ei.Code, err)
		}
		if ei.Schedule {
			gen.Scheduled = append(gen.Scheduled, ei.Code)
		}
	}

	return gen, nil
}

func applyBookkeeping(o *domain.Order, node domain.NodeID, ei ElementImport) error {
	for _, l := range ei.Labels {
		if err := o.AddLabel(node, domain.Label{Code: l.Code, Type: l.Type, Name: l.Name}); err != nil {
			return err
		}
	}
	for _, m := range ei.Materials {
		o.AddMaterial(node, &domain.MaterialAssignment{
			ID:           uuid.New().String(),
			MaterialCode: m.Code,
			Units:        m.Units,
			UnitPrice:    m.UnitPrice,
		})
	}
	for _, name := range ei.QualityForms {
		if _, err := o.AddQualityForm(node, name); err != nil {
			return err
		}
	}
	newID := func() string { return uuid.New().String() }
	// Requirements of ancestors reach this element as indirect copies.
	o.InheritCriteria(node, newID)
	for _, c := range ei.Criteria {
		r := &domain.CriterionRequirement{ID: newID(), Criterion: c}
		if err := o.AddCriterionRequirement(node, r, newID); err != nil {
			return err
		}
	}
	return nil
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
