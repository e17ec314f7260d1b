package scheduling

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/ordersync/internal/domain"
)

// TaskSource binds one element to its task for one version: a leaf task
// carrying hours groups, or a group task aggregating child task sources.
type TaskSource struct {
	ID          string
	ElementID   string
	Version     domain.OrderVersion // version that created it
	Group       bool
	HoursGroups []domain.HoursGroup
}

// WorkHours sums the hours groups of a leaf task source.
func (ts *TaskSource) WorkHours() int {
	total := 0
	for _, hg := range ts.HoursGroups {
		total += hg.WorkingHours
	}
	return total
}

func (ts *TaskSource) clone(id string, version domain.OrderVersion) *TaskSource {
	return &TaskSource{
		ID:          id,
		ElementID:   ts.ElementID,
		Version:     version,
		Group:       ts.Group,
		HoursGroups: append([]domain.HoursGroup(nil), ts.HoursGroups...),
	}
}

func sameHours(a, b []domain.HoursGroup) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SyncKind is the structural operation a Synchronization asks for.
type SyncKind string

const (
	MustAdd           SyncKind = "MUST_ADD"
	MustRemove        SyncKind = "MUST_REMOVE"
	ModifyGroup       SyncKind = "MODIFY_GROUP"
	MustAddGroup      SyncKind = "MUST_ADD_GROUP"
	ReplaceHoursGroup SyncKind = "REPLACE_HOURS_GROUP"
)

// Synchronization is one command for the scheduling subsystem. Group
// commands nest the commands of their members in Children.
type Synchronization struct {
	Kind        SyncKind
	TaskSource  *TaskSource
	Children    []Synchronization
	HoursGroups []domain.HoursGroup
}

func (s Synchronization) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s", s.Kind, s.TaskSource.ElementID)
	if len(s.Children) > 0 {
		parts := make([]string, len(s.Children))
		for i, c := range s.Children {
			parts[i] = c.String()
		}
		fmt.Fprintf(&b, ", [%s]", strings.Join(parts, ", "))
	}
	b.WriteString(")")
	return b.String()
}

// Walk visits s and its nested commands depth-first, parents first.
func (s Synchronization) Walk(fn func(Synchronization)) {
	fn(s)
	for _, c := range s.Children {
		c.Walk(fn)
	}
}

// CountByKind tallies syncs and their nested commands by kind.
func CountByKind(syncs []Synchronization) map[SyncKind]int {
	counts := make(map[SyncKind]int)
	for _, s := range syncs {
		s.Walk(func(each Synchronization) { counts[each.Kind]++ })
	}
	return counts
}
