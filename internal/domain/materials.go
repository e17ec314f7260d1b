package domain

// MaterialAssignment records units of a material consumed by an element.
type MaterialAssignment struct {
	ID           string
	MaterialCode string
	Units        float64
	UnitPrice    float64
}

// TotalPrice is Units times UnitPrice.
func (m *MaterialAssignment) TotalPrice() float64 {
	return m.Units * m.UnitPrice
}

// AddMaterial attaches m to id.
func (o *Order) AddMaterial(id NodeID, m *MaterialAssignment) {
	e := o.MustElement(id)
	e.Materials = append(e.Materials, m)
}

// RemoveMaterial detaches the assignment with the given ID. It reports false
// when no such assignment exists on id.
func (o *Order) RemoveMaterial(id NodeID, assignmentID string) bool {
	e := o.MustElement(id)
	for i, each := range e.Materials {
		if each.ID == assignmentID {
			e.Materials = append(e.Materials[:i], e.Materials[i+1:]...)
			return true
		}
	}
	return false
}

// TotalMaterialUnits sums the units assigned directly to id.
func (o *Order) TotalMaterialUnits(id NodeID) float64 {
	var total float64
	for _, m := range o.MustElement(id).Materials {
		total += m.Units
	}
	return total
}

// TotalMaterialPrice sums the price of the materials assigned directly to id.
func (o *Order) TotalMaterialPrice(id NodeID) float64 {
	var total float64
	for _, m := range o.MustElement(id).Materials {
		total += m.TotalPrice()
	}
	return total
}
