package domain

// CriterionRequirement demands a resource criterion for an element. Direct
// requirements are set by the user; indirect ones are copies inherited from
// the direct requirement with ID ParentID on an ancestor.
type CriterionRequirement struct {
	ID        string
	Criterion string
	Direct    bool
	Valid     bool
	ParentID  string
}

// CanAddCriterionRequirement reports whether criterion may be required
// directly on id: neither id nor an ancestor nor a descendant requires it
// directly.
func (o *Order) CanAddCriterionRequirement(id NodeID, criterion string) bool {
	if directCriterion(o.MustElement(id), criterion) != nil {
		return false
	}
	for _, a := range o.Ancestors(id) {
		if directCriterion(o.MustElement(a), criterion) != nil {
			return false
		}
	}
	for _, d := range o.AllChildren(id) {
		if directCriterion(o.MustElement(d), criterion) != nil {
			return false
		}
	}
	return true
}

// AddCriterionRequirement requires r.Criterion directly on id and propagates
// an indirect valid copy to every descendant.
func (o *Order) AddCriterionRequirement(id NodeID, r *CriterionRequirement, newID func() string) error {
	if !o.CanAddCriterionRequirement(id, r.Criterion) {
		return &ValidationError{Field: "criterion", Value: r.Criterion, Err: ErrCriterionInherited}
	}
	r.Direct = true
	r.Valid = true
	r.ParentID = ""
	e := o.MustElement(id)
	e.Criteria = append(e.Criteria, r)
	for _, d := range o.AllChildren(id) {
		de := o.MustElement(d)
		de.Criteria = append(de.Criteria, &CriterionRequirement{
			ID:        newID(),
			Criterion: r.Criterion,
			Valid:     true,
			ParentID:  r.ID,
		})
	}
	return nil
}

// RemoveCriterionRequirement removes the direct requirement with the given
// ID from id together with the indirect copies derived from it.
func (o *Order) RemoveCriterionRequirement(id NodeID, requirementID string) bool {
	e := o.MustElement(id)
	if !removeCriterion(e, func(r *CriterionRequirement) bool { return r.Direct && r.ID == requirementID }) {
		return false
	}
	for _, d := range o.AllChildren(id) {
		removeCriterion(o.MustElement(d), func(r *CriterionRequirement) bool { return r.ParentID == requirementID })
	}
	return true
}

// SetCriterionValid marks the indirect requirement derived from parentID on
// id, and the copies below it, as valid or not.
func (o *Order) SetCriterionValid(id NodeID, parentID string, valid bool) {
	nodes := append([]NodeID{id}, o.AllChildren(id)...)
	for _, n := range nodes {
		for _, r := range o.MustElement(n).Criteria {
			if !r.Direct && r.ParentID == parentID {
				r.Valid = valid
			}
		}
	}
}

// InheritCriteria gives a freshly attached element id the indirect copies of
// every direct requirement of its ancestors.
func (o *Order) InheritCriteria(id NodeID, newID func() string) {
	e := o.MustElement(id)
	for _, a := range o.Ancestors(id) {
		for _, r := range o.MustElement(a).Criteria {
			if r.Direct {
				e.Criteria = append(e.Criteria, &CriterionRequirement{
					ID:        newID(),
					Criterion: r.Criterion,
					Valid:     true,
					ParentID:  r.ID,
				})
			}
		}
	}
}

func directCriterion(e *OrderElement, criterion string) *CriterionRequirement {
	for _, r := range e.Criteria {
		if r.Direct && r.Criterion == criterion {
			return r
		}
	}
	return nil
}

func removeCriterion(e *OrderElement, match func(*CriterionRequirement) bool) bool {
	removed := false
	kept := e.Criteria[:0]
	for _, r := range e.Criteria {
		if match(r) {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	e.Criteria = kept
	return removed
}
