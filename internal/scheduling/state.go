package scheduling

// Type is the scheduling classification of an order element.
type Type string

const (
	// NotScheduled elements have no task in the plan, nor do their
	// descendants.
	NotScheduled Type = "NOT_SCHEDULED"
	// SchedulingPoint elements are bound to exactly one leaf task.
	SchedulingPoint Type = "SCHEDULING_POINT"
	// SomewhatScheduled elements are groups with at least one scheduled
	// descendant. Never stored, always derived.
	SomewhatScheduled Type = "SOMEWHAT_SCHEDULED"
)

// ValidStoredTypes are the types a snapshot may persist.
var ValidStoredTypes = map[string]bool{
	string(NotScheduled):    true,
	string(SchedulingPoint): true,
}

// IsScheduled reports whether t is SchedulingPoint or SomewhatScheduled.
func (t Type) IsScheduled() bool {
	return t == SchedulingPoint || t == SomewhatScheduled
}

// State is the derived scheduling state of one element. It is built
// bottom-up from the states of the element's children.
type State struct {
	elementID string
	typ       Type
	children  []*State
}

func newState(elementID string, stored Type, isLeaf bool, children []*State) *State {
	s := &State{elementID: elementID, children: children}
	switch {
	case stored == SchedulingPoint:
		s.typ = SchedulingPoint
	case isLeaf:
		s.typ = NotScheduled
	case anyScheduled(children):
		s.typ = SomewhatScheduled
	default:
		s.typ = NotScheduled
	}
	return s
}

func anyScheduled(states []*State) bool {
	for _, c := range states {
		if c.typ.IsScheduled() {
			return true
		}
	}
	return false
}

func (s *State) Type() Type                { return s.typ }
func (s *State) ElementID() string         { return s.elementID }
func (s *State) Children() []*State        { return s.children }
func (s *State) IsSchedulingPoint() bool   { return s.typ == SchedulingPoint }
func (s *State) IsSomewhatScheduled() bool { return s.typ == SomewhatScheduled }
func (s *State) IsNotScheduled() bool      { return s.typ == NotScheduled }
