package domain

import (
	"sort"
	"time"
)

// AdvanceType classifies a progress measurement.
type AdvanceType struct {
	ID              string
	UnitName        string
	DefaultMaxValue float64
	Percentage      bool
}

// SameAs reports whether both types denote the same stored type.
func (t *AdvanceType) SameAs(other *AdvanceType) bool {
	if t == nil || other == nil {
		return false
	}
	if t.ID != "" && other.ID != "" {
		return t.ID == other.ID
	}
	return t.UnitName == other.UnitName
}

// AdvanceMeasurement is one reading of an assignment.
type AdvanceMeasurement struct {
	Date  time.Time
	Value float64
}

// DirectAdvanceAssignment is a progress measurement owned by an element.
type DirectAdvanceAssignment struct {
	ID           string
	Type         *AdvanceType
	ReportGlobal bool
	MaxValue     float64
	Measurements []AdvanceMeasurement
}

// LastMeasurement returns the most recent measurement.
func (a *DirectAdvanceAssignment) LastMeasurement() (AdvanceMeasurement, bool) {
	if len(a.Measurements) == 0 {
		return AdvanceMeasurement{}, false
	}
	return a.Measurements[len(a.Measurements)-1], true
}

// Percentage is the last measurement relative to MaxValue, in [0, 1].
func (a *DirectAdvanceAssignment) Percentage() float64 {
	m, ok := a.LastMeasurement()
	if !ok || a.MaxValue <= 0 {
		return 0
	}
	pct := m.Value / a.MaxValue
	if pct > 1 {
		return 1
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// IndirectAdvanceAssignment mirrors, on an ancestor, a descendant's direct
// assignment of the same type.
type IndirectAdvanceAssignment struct {
	ID           string
	Type         *AdvanceType
	ReportGlobal bool
}

// AddAdvanceAssignment validates and attaches a direct assignment to id, then
// propagates the children-advance marker and the indirect mirrors upward.
func (o *Order) AddAdvanceAssignment(id NodeID, a *DirectAdvanceAssignment) error {
	e := o.MustElement(id)
	if err := o.checkNoOtherGlobalAdvance(e, a); err != nil {
		return err
	}
	if err := o.checkAncestorsNoSameAdvanceType(id, a); err != nil {
		return err
	}
	if err := o.checkChildrenNoSameAdvanceType(id, a); err != nil {
		return err
	}

	e.DirectAdvances = append(e.DirectAdvances, a)
	if parent, ok := o.Parent(id); ok {
		o.addChildrenAdvanceInParents(parent)
		o.addIndirectAdvance(parent, a.Type)
	}
	o.markAdvanceDirty(id)
	return nil
}

func (o *Order) checkNoOtherGlobalAdvance(e *OrderElement, a *DirectAdvanceAssignment) error {
	if !a.ReportGlobal {
		return nil
	}
	for _, each := range e.DirectAdvances {
		if each.ReportGlobal {
			return &DuplicateGlobalAdvanceError{ElementCode: e.Code}
		}
	}
	return nil
}

func (o *Order) checkAncestorsNoSameAdvanceType(id NodeID, a *DirectAdvanceAssignment) error {
	for cur := id; cur != NoNode; cur = o.MustElement(cur).Parent {
		if err := sameTypeIn(o.MustElement(cur), a); err != nil {
			return err
		}
	}
	return nil
}

func (o *Order) checkChildrenNoSameAdvanceType(id NodeID, a *DirectAdvanceAssignment) error {
	if err := sameTypeIn(o.MustElement(id), a); err != nil {
		return err
	}
	for _, c := range o.Children(id) {
		if err := o.checkChildrenNoSameAdvanceType(c, a); err != nil {
			return err
		}
	}
	return nil
}

func sameTypeIn(e *OrderElement, a *DirectAdvanceAssignment) error {
	for _, each := range e.DirectAdvances {
		if each.Type.SameAs(a.Type) {
			return &DuplicateAdvanceTypeError{ElementCode: e.Code, AdvanceType: a.Type.UnitName}
		}
	}
	return nil
}

// addChildrenAdvanceInParents marks ancestors, stopping at the first one
// already marked since markers compose transitively.
func (o *Order) addChildrenAdvanceInParents(parent NodeID) {
	for cur := parent; cur != NoNode; cur = o.MustElement(cur).Parent {
		e := o.MustElement(cur)
		if e.ChildrenAdvance {
			return
		}
		e.ChildrenAdvance = true
	}
}

func (o *Order) addIndirectAdvance(parent NodeID, t *AdvanceType) {
	for cur := parent; cur != NoNode; cur = o.MustElement(cur).Parent {
		e := o.MustElement(cur)
		if indirectOfType(e, t) == nil {
			e.IndirectAdvances = append(e.IndirectAdvances, &IndirectAdvanceAssignment{Type: t})
		}
	}
}

func indirectOfType(e *OrderElement, t *AdvanceType) *IndirectAdvanceAssignment {
	for _, each := range e.IndirectAdvances {
		if each.Type.SameAs(t) {
			return each
		}
	}
	return nil
}

// RemoveAdvanceAssignment detaches a from id. It reports false when a was
// not attached to id.
func (o *Order) RemoveAdvanceAssignment(id NodeID, a *DirectAdvanceAssignment) bool {
	e := o.MustElement(id)
	idx := -1
	for i, each := range e.DirectAdvances {
		if each == a || (a.ID != "" && each.ID == a.ID) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	removed := e.DirectAdvances[idx]
	e.DirectAdvances = append(e.DirectAdvances[:idx], e.DirectAdvances[idx+1:]...)

	if parent, ok := o.Parent(id); ok {
		o.removeIndirectAdvance(parent, removed.Type)
		o.removeChildrenAdvanceInParents(parent)
	}
	o.markAdvanceDirty(id)
	return true
}

func (o *Order) removeIndirectAdvance(parent NodeID, t *AdvanceType) {
	for cur := parent; cur != NoNode; cur = o.MustElement(cur).Parent {
		if o.descendantHasDirectOfType(cur, t) {
			return
		}
		e := o.MustElement(cur)
		kept := e.IndirectAdvances[:0]
		for _, each := range e.IndirectAdvances {
			if !each.Type.SameAs(t) {
				kept = append(kept, each)
			}
		}
		e.IndirectAdvances = kept
	}
}

func (o *Order) descendantHasDirectOfType(id NodeID, t *AdvanceType) bool {
	for _, d := range o.AllChildren(id) {
		for _, each := range o.MustElement(d).DirectAdvances {
			if each.Type.SameAs(t) {
				return true
			}
		}
	}
	return false
}

// directAdvanceTypesIn lists the distinct types of the direct assignments
// held by id and its descendants.
func (o *Order) directAdvanceTypesIn(id NodeID) []*AdvanceType {
	var types []*AdvanceType
	for _, n := range append([]NodeID{id}, o.AllChildren(id)...) {
		for _, a := range o.MustElement(n).DirectAdvances {
			seen := false
			for _, t := range types {
				if t.SameAs(a.Type) {
					seen = true
					break
				}
			}
			if !seen {
				types = append(types, a.Type)
			}
		}
	}
	return types
}

func (o *Order) removeChildrenAdvanceInParents(parent NodeID) {
	for cur := parent; cur != NoNode; cur = o.MustElement(cur).Parent {
		e := o.MustElement(cur)
		if !e.ChildrenAdvance || o.childrenHaveAdvances(cur) {
			return
		}
		e.ChildrenAdvance = false
	}
}

// childrenHaveAdvances scans the whole subtree below id.
func (o *Order) childrenHaveAdvances(id NodeID) bool {
	for _, d := range o.AllChildren(id) {
		e := o.MustElement(d)
		if len(e.DirectAdvances) > 0 || len(e.IndirectAdvances) > 0 {
			return true
		}
	}
	return false
}

// DirectAdvanceByType returns id's direct assignment of type t.
func (o *Order) DirectAdvanceByType(id NodeID, t *AdvanceType) *DirectAdvanceAssignment {
	if t == nil {
		return nil
	}
	for _, each := range o.MustElement(id).DirectAdvances {
		if each.Type.SameAs(t) {
			return each
		}
	}
	return nil
}

// ReportGlobalAdvance returns id's report-global direct assignment.
func (o *Order) ReportGlobalAdvance(id NodeID) *DirectAdvanceAssignment {
	for _, each := range o.MustElement(id).DirectAdvances {
		if each.ReportGlobal {
			return each
		}
	}
	return nil
}

// AllDirectAdvances returns the direct assignments of type t on id and its
// descendants.
func (o *Order) AllDirectAdvances(id NodeID, t *AdvanceType) []*DirectAdvanceAssignment {
	var result []*DirectAdvanceAssignment
	if a := o.DirectAdvanceByType(id, t); a != nil {
		result = append(result, a)
	}
	for _, d := range o.AllChildren(id) {
		if a := o.DirectAdvanceByType(d, t); a != nil {
			result = append(result, a)
		}
	}
	return result
}

// AddMeasurement records m on a (attached to id), keeping measurements
// sorted by date. A reading at a date already measured replaces it.
func (o *Order) AddMeasurement(id NodeID, a *DirectAdvanceAssignment, m AdvanceMeasurement) {
	defer o.markAdvanceDirty(id)
	for i := range a.Measurements {
		if a.Measurements[i].Date.Equal(m.Date) {
			a.Measurements[i].Value = m.Value
			return
		}
	}
	a.Measurements = append(a.Measurements, m)
	sort.SliceStable(a.Measurements, func(i, j int) bool {
		return a.Measurements[i].Date.Before(a.Measurements[j].Date)
	})
}

// AddSubcontractorAdvance attaches a direct assignment of the subcontractor
// type with max value 100, report-global unless id already spreads one.
func (o *Order) AddSubcontractorAdvance(id NodeID, assignmentID string, t *AdvanceType) (*DirectAdvanceAssignment, error) {
	a := &DirectAdvanceAssignment{
		ID:           assignmentID,
		Type:         t,
		ReportGlobal: o.ReportGlobalAdvance(id) == nil,
		MaxValue:     100,
	}
	if err := o.AddAdvanceAssignment(id, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AdvancePercentage returns the progress of id in [0, 1]. The value is
// cached until a mutation below or at id marks it dirty.
func (o *Order) AdvancePercentage(id NodeID) float64 {
	e := o.MustElement(id)
	if e.advanceDirty {
		e.advancePct = o.computeAdvancePercentage(id)
		e.advanceDirty = false
	}
	return e.advancePct
}

func (o *Order) computeAdvancePercentage(id NodeID) float64 {
	e := o.MustElement(id)
	if a := o.ReportGlobalAdvance(id); a != nil {
		return a.Percentage()
	}
	if e.IsLeaf() {
		if len(e.DirectAdvances) > 0 {
			return e.DirectAdvances[0].Percentage()
		}
		return 0
	}
	return o.childrenAdvancePercentage(id)
}

// childrenAdvancePercentage weights each child by its work hours, falling
// back to a plain average when no child has hours.
func (o *Order) childrenAdvancePercentage(id NodeID) float64 {
	children := o.Children(id)
	if len(children) == 0 {
		return 0
	}
	var weighted, plain float64
	totalHours := 0
	for _, c := range children {
		pct := o.AdvancePercentage(c)
		hours := o.WorkHours(c)
		weighted += pct * float64(hours)
		plain += pct
		totalHours += hours
	}
	if totalHours == 0 {
		return plain / float64(len(children))
	}
	return weighted / float64(totalHours)
}

// IsFinishedAdvance reports whether id reached 100% progress.
func (o *Order) IsFinishedAdvance(id NodeID) bool {
	return o.AdvancePercentage(id) >= 1
}

func (o *Order) markAdvanceDirty(id NodeID) {
	for cur := id; cur != NoNode; cur = o.MustElement(cur).Parent {
		o.MustElement(cur).advanceDirty = true
	}
}
