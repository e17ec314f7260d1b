package domain

import (
	"strings"
	"time"
)

// NodeID is the arena slot of an element inside its Order. It is only stable
// for the lifetime of a loaded aggregate; ID is the persistent identity.
type NodeID int

// NoNode marks the absence of a parent (the order root).
const NoNode NodeID = -1

// HoursGroup is an effort bucket of a leaf element.
type HoursGroup struct {
	ID           string
	Code         string
	WorkingHours int
	ResourceType string
}

// OrderElement is a node of the work-breakdown tree. Exactly one of the leaf
// and group shapes applies; leaves never have children.
type OrderElement struct {
	ID           string
	Node         NodeID
	Code         string
	ExternalCode string
	Name         string
	Description  string
	Kind         ElementKind
	InitDate     *time.Time
	Deadline     *time.Time

	Parent   NodeID
	Children []NodeID

	HoursGroups []HoursGroup // leaves only

	DirectAdvances   []*DirectAdvanceAssignment
	IndirectAdvances []*IndirectAdvanceAssignment // groups only
	ChildrenAdvance  bool                         // some descendant carries an advance

	Materials    []*MaterialAssignment
	Labels       []Label
	QualityForms []TaskQualityForm
	Criteria     []*CriterionRequirement

	Template string

	// Persisted is false until the element has been stored once. New
	// elements are the only ones whose scheduling type and template may be
	// initialized.
	Persisted bool

	CreatedAt time.Time
	UpdatedAt time.Time

	advancePct   float64
	advanceDirty bool
}

// IsLeaf reports whether the element has the leaf shape.
func (e *OrderElement) IsLeaf() bool {
	return e.Kind == KindLeaf
}

// IsNew reports whether the element was never persisted.
func (e *OrderElement) IsNew() bool {
	return !e.Persisted
}

// InitializeTemplate records the template the element was created from.
// It may be called once and only on new elements.
func (e *OrderElement) InitializeTemplate(name string) {
	if !e.IsNew() {
		illegalState("template of persisted element %q cannot be initialized", e.Code)
	}
	if e.Template != "" {
		illegalState("template of element %q already initialized", e.Code)
	}
	e.Template = name
}

// IsFormatCodeValid reports whether code is usable as an element code:
// non-empty and without underscores.
func IsFormatCodeValid(code string) bool {
	return code != "" && !strings.Contains(code, "_")
}

// WorkHours sums the working hours of the element's own hours groups.
func (e *OrderElement) WorkHours() int {
	total := 0
	for _, hg := range e.HoursGroups {
		total += hg.WorkingHours
	}
	return total
}
