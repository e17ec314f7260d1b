package scheduling

import "github.com/alexanderramin/ordersync/internal/domain"

// CalculateSynchronizationsNeeded computes the ordered commands that bring
// the task sources of node's subtree in line with the tree. Removals come
// bottom-to-top; group commands nest their members' commands. Computing the
// list records creations and removals on the working data, so the list must
// be applied before the data is written.
func (e *Engine) CalculateSynchronizationsNeeded(node domain.NodeID) []Synchronization {
	return e.synchronizations(node, false)
}

// synchronizations with refresh set also reports unchanged bindings, as
// needed by a group command listing its full membership.
func (e *Engine) synchronizations(node domain.NodeID, refresh bool) []Synchronization {
	switch e.StateOf(node).Type() {
	case SchedulingPoint:
		return e.forSchedulingPoint(node, refresh)
	case SomewhatScheduled:
		return e.forSuperelement(node, refresh)
	default:
		return e.removeTaskSources(node)
	}
}

func (e *Engine) forSchedulingPoint(node domain.NodeID, refresh bool) []Synchronization {
	var result []Synchronization
	for _, c := range e.order.Children(node) {
		result = append(result, e.removeTaskSources(c)...)
	}
	data := e.CurrentData(node)
	if data.taskSource != nil && data.taskSource.Group {
		result = append(result, e.taskSourceRemoval(node))
	}

	hgs := e.order.HoursGroupsOf(node)
	if data.taskSource == nil {
		ts := &TaskSource{
			ID:          e.newID(),
			ElementID:   e.elementID(node),
			Version:     data.Version(),
			HoursGroups: hgs,
		}
		data.requestedCreationOf(ts)
		e.InvalidateState(node)
		return append(result, Synchronization{Kind: MustAdd, TaskSource: ts, HoursGroups: hgs})
	}

	ts := data.taskSource
	if !sameHours(ts.HoursGroups, hgs) {
		ts = data.replaceHours(hgs, e.store.isShared(data.Version(), ts), e.newID)
	} else if !refresh {
		return result
	}
	return append(result, Synchronization{Kind: ReplaceHoursGroup, TaskSource: ts, HoursGroups: hgs})
}

func (e *Engine) forSuperelement(node domain.NodeID, refresh bool) []Synchronization {
	var result []Synchronization
	var scheduled []domain.NodeID
	for _, c := range e.order.Children(node) {
		if e.StateOf(c).IsNotScheduled() {
			result = append(result, e.removeTaskSources(c)...)
		} else {
			scheduled = append(scheduled, c)
		}
	}
	data := e.CurrentData(node)
	if data.taskSource != nil && !data.taskSource.Group {
		result = append(result, e.taskSourceRemoval(node))
	}

	if data.taskSource == nil {
		var members []Synchronization
		for _, c := range scheduled {
			members = append(members, e.synchronizations(c, true)...)
		}
		ts := &TaskSource{
			ID:        e.newID(),
			ElementID: e.elementID(node),
			Version:   data.Version(),
			Group:     true,
		}
		data.requestedCreationOf(ts)
		e.InvalidateState(node)
		return append(result, Synchronization{Kind: MustAddGroup, TaskSource: ts, Children: members})
	}

	perChild := make([][]Synchronization, len(scheduled))
	changed := len(result) > 0
	for i, c := range scheduled {
		perChild[i] = e.synchronizations(c, false)
		changed = changed || len(perChild[i]) > 0
	}
	if !changed && !refresh {
		return result
	}
	var members []Synchronization
	for i, c := range scheduled {
		if !e.hasOwnCommand(perChild[i], c) {
			perChild[i] = append(perChild[i], e.synchronizations(c, true)...)
		}
		members = append(members, perChild[i]...)
	}
	return append(result, Synchronization{Kind: ModifyGroup, TaskSource: data.taskSource, Children: members})
}

// hasOwnCommand reports whether syncs binds node itself rather than only
// removing stray task sources below it.
func (e *Engine) hasOwnCommand(syncs []Synchronization, node domain.NodeID) bool {
	id := e.elementID(node)
	for _, s := range syncs {
		if s.Kind != MustRemove && s.TaskSource.ElementID == id {
			return true
		}
	}
	return false
}

// removeTaskSources removes every task source of node's subtree, children
// before their parent.
func (e *Engine) removeTaskSources(node domain.NodeID) []Synchronization {
	var result []Synchronization
	for _, c := range e.order.Children(node) {
		result = append(result, e.removeTaskSources(c)...)
	}
	if e.CurrentData(node).taskSource != nil {
		result = append(result, e.taskSourceRemoval(node))
	}
	return result
}

func (e *Engine) taskSourceRemoval(node domain.NodeID) Synchronization {
	data := e.CurrentData(node)
	s := Synchronization{Kind: MustRemove, TaskSource: data.taskSource}
	data.taskSourceRemovalRequested()
	e.InvalidateState(node)
	return s
}

// CalculateRemovalOf lists the removals of every task source bound in
// node's subtree for the selected version, children before their parent.
// Callers run it for each version before detaching node from the tree.
func (e *Engine) CalculateRemovalOf(node domain.NodeID) []Synchronization {
	return e.removeTaskSources(node)
}
