package domain

import "fmt"

// Label tags an element and, implicitly, its whole subtree.
type Label struct {
	Code string
	Type string
	Name string
}

// AddLabel attaches l to id. A label already carried by id or an ancestor is
// inherited and cannot be added again; descendants that carried it lose it.
func (o *Order) AddLabel(id NodeID, l Label) error {
	for cur := id; cur != NoNode; cur = o.MustElement(cur).Parent {
		if hasLabel(o.MustElement(cur), l) {
			return &ValidationError{Field: "label", Value: l.Code, Err: ErrLabelInherited}
		}
	}
	for _, d := range o.AllChildren(id) {
		o.dropLabel(d, l)
	}
	e := o.MustElement(id)
	e.Labels = append(e.Labels, l)
	return nil
}

// RemoveLabel detaches l from id. Inherited copies are untouched.
func (o *Order) RemoveLabel(id NodeID, l Label) {
	o.dropLabel(id, l)
}

func (o *Order) dropLabel(id NodeID, l Label) {
	e := o.MustElement(id)
	kept := e.Labels[:0]
	for _, each := range e.Labels {
		if each.Code != l.Code {
			kept = append(kept, each)
		}
	}
	e.Labels = kept
}

func hasLabel(e *OrderElement, l Label) bool {
	for _, each := range e.Labels {
		if each.Code == l.Code {
			return true
		}
	}
	return false
}

// InheritedLabels returns the labels of id's ancestors, nearest first.
func (o *Order) InheritedLabels(id NodeID) []Label {
	var result []Label
	for _, a := range o.Ancestors(id) {
		result = append(result, o.MustElement(a).Labels...)
	}
	return result
}

// CheckLabelsNotRepeatedInBranch verifies that no label appears twice along
// any root-to-leaf path of the subtree at id.
func (o *Order) CheckLabelsNotRepeatedInBranch(id NodeID) error {
	return o.checkLabelsInBranch(id, map[string]bool{})
}

func (o *Order) checkLabelsInBranch(id NodeID, seen map[string]bool) error {
	e := o.MustElement(id)
	withThese := make(map[string]bool, len(seen)+len(e.Labels))
	for k := range seen {
		withThese[k] = true
	}
	for _, l := range e.Labels {
		if withThese[l.Code] {
			return fmt.Errorf("label %q repeated in branch at %q: %w", l.Code, e.Code, ErrLabelInherited)
		}
		withThese[l.Code] = true
	}
	for _, c := range e.Children {
		if err := o.checkLabelsInBranch(c, withThese); err != nil {
			return err
		}
	}
	return nil
}
