package domain

import (
	"fmt"
	"time"
)

// Order is the aggregate root of a work-breakdown tree. It owns every element
// through an arena; parent links are arena slots, never pointers.
type Order struct {
	ID          string
	Code        string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	root     NodeID
	elements []*OrderElement
}

// NewOrder creates an order whose root group element shares the order's ID,
// code and name.
func NewOrder(id, code, name string, now time.Time) *Order {
	o := &Order{
		ID:        id,
		Code:      code,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		root:      NoNode,
	}
	o.root = o.put(&OrderElement{
		ID:        id,
		Code:      code,
		Name:      name,
		Kind:      KindGroup,
		Parent:    NoNode,
		CreatedAt: now,
		UpdatedAt: now,

		advanceDirty: true,
	})
	return o
}

func (o *Order) put(e *OrderElement) NodeID {
	id := NodeID(len(o.elements))
	e.Node = id
	o.elements = append(o.elements, e)
	return id
}

// Root returns the slot of the root group.
func (o *Order) Root() NodeID {
	return o.root
}

// Element returns the element stored at id, or nil when the slot is empty.
func (o *Order) Element(id NodeID) *OrderElement {
	if id < 0 || int(id) >= len(o.elements) {
		return nil
	}
	return o.elements[id]
}

// MustElement is Element for slots the caller knows to be live.
func (o *Order) MustElement(id NodeID) *OrderElement {
	e := o.Element(id)
	if e == nil {
		illegalState("no order element at node %d", id)
	}
	return e
}

// ElementByID finds an element by its persistent ID.
func (o *Order) ElementByID(id string) (*OrderElement, bool) {
	for _, e := range o.elements {
		if e != nil && e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// ElementByCode finds an element anywhere in the order by code.
func (o *Order) ElementByCode(code string) (*OrderElement, bool) {
	for _, e := range o.elements {
		if e != nil && e.Code == code {
			return e, true
		}
	}
	return nil, false
}

// Children returns the ordered child slots of id.
func (o *Order) Children(id NodeID) []NodeID {
	return o.MustElement(id).Children
}

// Parent returns the parent slot of id; ok is false for the root.
func (o *Order) Parent(id NodeID) (NodeID, bool) {
	p := o.MustElement(id).Parent
	return p, p != NoNode
}

// IsLeaf reports whether id has the leaf shape.
func (o *Order) IsLeaf(id NodeID) bool {
	return o.MustElement(id).IsLeaf()
}

// Ancestors returns the ancestors of id, nearest first.
func (o *Order) Ancestors(id NodeID) []NodeID {
	var result []NodeID
	for p, ok := o.Parent(id); ok; p, ok = o.Parent(p) {
		result = append(result, p)
	}
	return result
}

// AllChildren returns every descendant of id in pre-order.
func (o *Order) AllChildren(id NodeID) []NodeID {
	var result []NodeID
	for _, c := range o.Children(id) {
		result = append(result, c)
		result = append(result, o.AllChildren(c)...)
	}
	return result
}

// Elements returns all live elements in pre-order starting at the root.
func (o *Order) Elements() []*OrderElement {
	result := []*OrderElement{o.MustElement(o.root)}
	for _, id := range o.AllChildren(o.root) {
		result = append(result, o.MustElement(id))
	}
	return result
}

// HoursGroupsOf returns the effort of id: its own hours groups for a leaf,
// every descendant leaf's hours groups in tree order for a group.
func (o *Order) HoursGroupsOf(id NodeID) []HoursGroup {
	e := o.MustElement(id)
	if e.IsLeaf() {
		return append([]HoursGroup(nil), e.HoursGroups...)
	}
	var result []HoursGroup
	for _, c := range e.Children {
		result = append(result, o.HoursGroupsOf(c)...)
	}
	return result
}

// WorkHours sums HoursGroupsOf(id).
func (o *Order) WorkHours(id NodeID) int {
	total := 0
	for _, hg := range o.HoursGroupsOf(id) {
		total += hg.WorkingHours
	}
	return total
}

// Attach adds e as the last child of parent. The code must be well formed
// and unused inside the order.
func (o *Order) Attach(parent NodeID, e *OrderElement) (NodeID, error) {
	p := o.MustElement(parent)
	if p.IsLeaf() {
		return NoNode, fmt.Errorf("attaching %q under %q: %w", e.Code, p.Code, ErrNotGroup)
	}
	if err := o.checkCode(e.Code, ""); err != nil {
		return NoNode, err
	}
	if e.Kind == "" {
		e.Kind = KindLeaf
	}
	if e.Kind == KindLeaf && len(e.Children) > 0 {
		illegalState("leaf %q cannot carry children", e.Code)
	}
	e.Parent = parent
	e.Children = nil
	id := o.put(e)
	p.Children = append(p.Children, id)
	o.markAdvanceDirty(id)
	return id, nil
}

// Restore appends an already persisted element under the element whose
// persistent ID is parentID. Callers restore parents before children and
// siblings in order.
func (o *Order) Restore(parentID string, e *OrderElement) (NodeID, error) {
	p, ok := o.ElementByID(parentID)
	if !ok {
		return NoNode, fmt.Errorf("restoring %q: parent %s not loaded", e.Code, parentID)
	}
	e.Parent = p.Node
	e.Children = nil
	e.advanceDirty = true
	id := o.put(e)
	p.Children = append(p.Children, id)
	return id, nil
}

// RestoreRoot replaces the root element with a persisted one. Must be called
// before any Restore.
func (o *Order) RestoreRoot(e *OrderElement) {
	if len(o.elements) > 1 {
		illegalState("root of order %q restored after its children", o.Code)
	}
	o.elements = nil
	e.Parent = NoNode
	e.Children = nil
	e.Kind = KindGroup
	e.advanceDirty = true
	o.root = o.put(e)
}

// RemoveElement detaches id and its subtree from the order.
func (o *Order) RemoveElement(id NodeID) error {
	if id == o.root {
		return fmt.Errorf("removing %q: %w", o.Code, ErrRootElement)
	}
	e := o.MustElement(id)
	parent := o.MustElement(e.Parent)
	removedTypes := o.directAdvanceTypesIn(id)
	for _, d := range o.AllChildren(id) {
		o.elements[d] = nil
	}
	o.elements[id] = nil
	kept := parent.Children[:0]
	for _, c := range parent.Children {
		if c != id {
			kept = append(kept, c)
		}
	}
	parent.Children = kept

	// The subtree's direct assignments no longer feed the ancestors.
	for _, t := range removedTypes {
		o.removeIndirectAdvance(parent.Node, t)
	}
	o.removeChildrenAdvanceInParents(parent.Node)
	o.markAdvanceDirty(parent.Node)
	return nil
}

// ConvertToGroup turns leaf id into a group. Its hours groups move to a new
// child leaf identified by childID and coded "<code>-1".
func (o *Order) ConvertToGroup(id NodeID, childID string) (NodeID, error) {
	e := o.MustElement(id)
	if !e.IsLeaf() {
		return NoNode, fmt.Errorf("converting %q: %w", e.Code, ErrNotLeaf)
	}
	if err := o.checkCode(e.Code+"-1", ""); err != nil {
		return NoNode, err
	}
	child := &OrderElement{
		ID:          childID,
		Code:        e.Code + "-1",
		Name:        e.Name,
		Kind:        KindLeaf,
		HoursGroups: e.HoursGroups,
		CreatedAt:   e.UpdatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	e.Kind = KindGroup
	e.HoursGroups = nil
	return o.Attach(id, child)
}

// AddHoursGroup appends an effort bucket to leaf id.
func (o *Order) AddHoursGroup(id NodeID, hg HoursGroup) error {
	e := o.MustElement(id)
	if !e.IsLeaf() {
		return fmt.Errorf("adding hours group to %q: %w", e.Code, ErrNotLeaf)
	}
	e.HoursGroups = append(e.HoursGroups, hg)
	o.markAdvanceDirty(id)
	return nil
}

// StartConstraint returns the first InitDate found on id or its ancestors.
func (o *Order) StartConstraint(id NodeID) *time.Time {
	for cur := id; cur != NoNode; cur = o.MustElement(cur).Parent {
		if d := o.MustElement(cur).InitDate; d != nil {
			return d
		}
	}
	return nil
}

// ContainsElement reports whether a direct child of id has the given code.
func (o *Order) ContainsElement(id NodeID, code string) bool {
	_, ok := o.ChildByCode(id, code)
	return ok
}

// ChildByCode returns the direct child of id with the given code.
func (o *Order) ChildByCode(id NodeID, code string) (*OrderElement, bool) {
	for _, c := range o.Children(id) {
		if e := o.MustElement(c); e.Code == code {
			return e, true
		}
	}
	return nil, false
}

// MoveCodeToExternalCode moves the code of id and its subtree to
// ExternalCode, clearing Code.
func (o *Order) MoveCodeToExternalCode(id NodeID) {
	e := o.MustElement(id)
	e.ExternalCode = e.Code
	e.Code = ""
	for _, c := range e.Children {
		o.MoveCodeToExternalCode(c)
	}
}

// checkCode validates code for an element other than the one with ID except.
func (o *Order) checkCode(code, except string) error {
	if !IsFormatCodeValid(code) {
		return &ValidationError{Field: "code", Value: code, Err: ErrInvalidCode}
	}
	if other, ok := o.ElementByCode(code); ok && other.ID != except {
		return &ValidationError{Field: "code", Value: code, Err: ErrDuplicateCode}
	}
	return nil
}
