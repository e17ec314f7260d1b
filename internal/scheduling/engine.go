// Package scheduling reconciles an order tree with the task sources bound to
// it, per version.
package scheduling

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/alexanderramin/ordersync/internal/domain"
)

// Engine tracks the scheduling data of one loaded order. It is not safe for
// concurrent use.
type Engine struct {
	order   *domain.Order
	store   *Store
	current map[domain.NodeID]*Data
	states  map[domain.NodeID]*State
	newID   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides how task source IDs are minted.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine creates an engine over order and the snapshots in store.
func NewEngine(order *domain.Order, store *Store, opts ...Option) *Engine {
	e := &Engine{
		order:   order,
		store:   store,
		current: make(map[domain.NodeID]*Data),
		states:  make(map[domain.NodeID]*State),
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Order() *domain.Order { return e.order }
func (e *Engine) Store() *Store        { return e.store }

// UseSchedulingDataFor selects version for node and its subtree. Missing
// snapshots are created aliasing the snapshot selected so far.
func (e *Engine) UseSchedulingDataFor(node domain.NodeID, version domain.OrderVersion) {
	for _, n := range e.subtree(node) {
		var alias *VersionData
		if d, ok := e.current[n]; ok {
			alias = d.target
		}
		vd := e.store.Materialize(version, e.elementID(n), alias)
		e.current[n] = newData(vd)
	}
	e.invalidateSubtree(node)
}

// CurrentData returns the working scheduling data of node. Elements
// attached after a version was selected inherit their parent's version.
// It panics if no version was selected.
func (e *Engine) CurrentData(node domain.NodeID) *Data {
	if d, ok := e.current[node]; ok {
		return d
	}
	parent, ok := e.order.Parent(node)
	if !ok {
		domain.IllegalState("scheduling data of %s used before selecting a version", e.elementID(node))
	}
	version := e.CurrentData(parent).Version()
	d := newData(e.store.Materialize(version, e.elementID(node), nil))
	e.current[node] = d
	return d
}

// StateOf returns the derived state of node, computing the states of its
// children first.
func (e *Engine) StateOf(node domain.NodeID) *State {
	if s, ok := e.states[node]; ok {
		return s
	}
	children := e.order.Children(node)
	childStates := make([]*State, len(children))
	for i, c := range children {
		childStates[i] = e.StateOf(c)
	}
	s := newState(e.elementID(node), e.CurrentData(node).typ, e.order.IsLeaf(node), childStates)
	e.states[node] = s
	return s
}

// InvalidateState drops the cached state of node and its ancestors.
func (e *Engine) InvalidateState(node domain.NodeID) {
	delete(e.states, node)
	for _, a := range e.order.Ancestors(node) {
		delete(e.states, a)
	}
}

func (e *Engine) invalidateSubtree(node domain.NodeID) {
	for _, n := range e.order.AllChildren(node) {
		delete(e.states, n)
	}
	e.InvalidateState(node)
}

// ResetStates drops every cached state.
func (e *Engine) ResetStates() {
	e.states = make(map[domain.NodeID]*State)
}

// InitializeType sets the type of a new element once. A SchedulingPoint
// covers the descendants like Schedule does, and is refused below another
// scheduling point.
func (e *Engine) InitializeType(node domain.NodeID, t Type) error {
	el := e.order.MustElement(node)
	if !el.IsNew() {
		domain.IllegalState("type of persisted element %q cannot be initialized", el.Code)
	}
	d := e.CurrentData(node)
	if d.typeInitialized {
		domain.IllegalState("type of element %q already initialized", el.Code)
	}
	if t == SchedulingPoint {
		if err := e.checkNoScheduledAncestor(node); err != nil {
			return err
		}
		for _, c := range e.order.AllChildren(node) {
			e.CurrentData(c).setType(NotScheduled)
		}
	}
	d.setType(t)
	d.typeInitialized = true
	e.invalidateSubtree(node)
	return nil
}

// Schedule makes node a scheduling point. Its descendants become covered by
// it and are reset to NotScheduled.
func (e *Engine) Schedule(node domain.NodeID) error {
	if err := e.checkNoScheduledAncestor(node); err != nil {
		return err
	}
	e.CurrentData(node).setType(SchedulingPoint)
	for _, d := range e.order.AllChildren(node) {
		e.CurrentData(d).setType(NotScheduled)
	}
	e.invalidateSubtree(node)
	return nil
}

func (e *Engine) checkNoScheduledAncestor(node domain.NodeID) error {
	for _, a := range e.order.Ancestors(node) {
		if e.CurrentData(a).typ == SchedulingPoint {
			return fmt.Errorf("scheduling %q: %w (%q)",
				e.order.MustElement(node).Code, domain.ErrAncestorScheduled, e.order.MustElement(a).Code)
		}
	}
	return nil
}

// Unschedule stops node from being a scheduling point.
func (e *Engine) Unschedule(node domain.NodeID) {
	e.CurrentData(node).setType(NotScheduled)
	e.InvalidateState(node)
}

// WriteSchedulingDataChanges commits the working data of node's subtree into
// the snapshots it targets.
func (e *Engine) WriteSchedulingDataChanges(node domain.NodeID) {
	for _, n := range e.subtree(node) {
		e.CurrentData(n).write()
	}
}

// PointTo retargets the working data of node's subtree to version, keeping
// the working values. Task sources stay shared until a write diverges them.
func (e *Engine) PointTo(node domain.NodeID, version domain.OrderVersion) {
	for _, n := range e.subtree(node) {
		d := e.CurrentData(n)
		d.pointsTo(e.store.Materialize(version, e.elementID(n), d.target))
	}
}

// WriteSchedulingDataChangesTo commits the working data of node's subtree
// into version.
func (e *Engine) WriteSchedulingDataChangesTo(node domain.NodeID, version domain.OrderVersion) {
	e.PointTo(node, version)
	e.WriteSchedulingDataChanges(node)
}

// HasSchedulingDataBeingModified reports whether any working data in
// node's subtree has uncommitted changes.
func (e *Engine) HasSchedulingDataBeingModified(node domain.NodeID) bool {
	for _, n := range e.subtree(node) {
		if e.CurrentData(n).HasPendingChanges() {
			return true
		}
	}
	return false
}

// TaskSource returns the task source currently bound to node, if any.
func (e *Engine) TaskSource(node domain.NodeID) *TaskSource {
	return e.CurrentData(node).taskSource
}

// TaskSourcesFromBottomToTop lists the task sources of node's subtree,
// descendants before ancestors.
func (e *Engine) TaskSourcesFromBottomToTop(node domain.NodeID) []*TaskSource {
	var result []*TaskSource
	for _, n := range e.postOrder(node) {
		if ts := e.CurrentData(n).taskSource; ts != nil {
			result = append(result, ts)
		}
	}
	return result
}

// AllScenariosTaskSourcesFromBottomToTop lists the durable task sources of
// every version in node's subtree, descendants before ancestors. Shared task
// sources appear once.
func (e *Engine) AllScenariosTaskSourcesFromBottomToTop(node domain.NodeID) []*TaskSource {
	var result []*TaskSource
	seen := make(map[*TaskSource]bool)
	versions := e.store.Versions()
	for _, n := range e.postOrder(node) {
		id := e.elementID(n)
		for _, v := range versions {
			vd, ok := e.store.Get(v, id)
			if !ok || vd.TaskSource == nil || seen[vd.TaskSource] {
				continue
			}
			seen[vd.TaskSource] = true
			result = append(result, vd.TaskSource)
		}
	}
	return result
}

// SchedulingDatasFromBottomToTop lists the working data of node's subtree,
// descendants before ancestors.
func (e *Engine) SchedulingDatasFromBottomToTop(node domain.NodeID) []*Data {
	var result []*Data
	for _, n := range e.postOrder(node) {
		result = append(result, e.CurrentData(n))
	}
	return result
}

// IsFinishedSchedulingPointTask reports whether the task covering node is
// finished. The scheduling point above node decides if there is one;
// otherwise every scheduling point below must be finished and the order
// root decides.
func (e *Engine) IsFinishedSchedulingPointTask(node domain.NodeID) bool {
	for cur := node; cur != domain.NoNode; cur = e.order.MustElement(cur).Parent {
		if e.StateOf(cur).IsSchedulingPoint() && e.TaskSource(cur) != nil {
			return e.order.IsFinishedAdvance(cur)
		}
	}
	for _, d := range e.order.AllChildren(node) {
		if e.StateOf(d).IsSchedulingPoint() && e.TaskSource(d) != nil && !e.order.IsFinishedAdvance(d) {
			return false
		}
	}
	return e.order.IsFinishedAdvance(e.order.Root())
}

func (e *Engine) elementID(n domain.NodeID) string {
	return e.order.MustElement(n).ID
}

// subtree lists node and its descendants in pre-order.
func (e *Engine) subtree(node domain.NodeID) []domain.NodeID {
	return append([]domain.NodeID{node}, e.order.AllChildren(node)...)
}

func (e *Engine) postOrder(node domain.NodeID) []domain.NodeID {
	var result []domain.NodeID
	for _, c := range e.order.Children(node) {
		result = append(result, e.postOrder(c)...)
	}
	return append(result, node)
}
