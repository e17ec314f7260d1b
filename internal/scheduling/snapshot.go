package scheduling

import (
	"sort"

	"github.com/alexanderramin/ordersync/internal/domain"
)

// VersionData is the durable scheduling snapshot of one element for one
// version.
type VersionData struct {
	Version    domain.OrderVersion
	ElementID  string
	Type       Type
	TaskSource *TaskSource
}

// Data is the working copy of an element's scheduling data over the
// snapshot it targets. Changes stay pending until write.
type Data struct {
	target          *VersionData
	typ             Type
	typeInitialized bool
	taskSource      *TaskSource
	owned           bool // taskSource was created or cloned by this working copy
	pending         bool
}

func newData(target *VersionData) *Data {
	return &Data{
		target:     target,
		typ:        target.Type,
		taskSource: target.TaskSource,
	}
}

func (d *Data) Version() domain.OrderVersion { return d.target.Version }
func (d *Data) ElementID() string            { return d.target.ElementID }
func (d *Data) Type() Type                   { return d.typ }
func (d *Data) TaskSource() *TaskSource      { return d.taskSource }

// HasPendingChanges reports whether the working values differ from the
// target snapshot.
func (d *Data) HasPendingChanges() bool {
	return d.pending || d.typ != d.target.Type || d.taskSource != d.target.TaskSource
}

func (d *Data) setType(t Type) {
	if d.typ != t {
		d.typ = t
		d.pending = true
	}
}

func (d *Data) requestedCreationOf(ts *TaskSource) {
	if d.taskSource != nil {
		domain.IllegalState("element %s already has task source %s", d.ElementID(), d.taskSource.ID)
	}
	d.taskSource = ts
	d.owned = true
	d.pending = true
}

func (d *Data) taskSourceRemovalRequested() {
	if d.taskSource == nil {
		domain.IllegalState("element %s has no task source to remove", d.ElementID())
	}
	d.taskSource = nil
	d.owned = false
	d.pending = true
}

// replaceHours installs hgs on the bound leaf task source. A task source not
// owned by this working copy is cloned first; the clone keeps the ID only
// when its creating version is the target and no other version shares it.
func (d *Data) replaceHours(hgs []domain.HoursGroup, shared bool, newID func() string) *TaskSource {
	ts := d.taskSource
	if !d.owned {
		if ts.Version == d.Version() && !shared {
			ts = ts.clone(ts.ID, ts.Version)
		} else {
			ts = ts.clone(newID(), d.Version())
		}
		d.taskSource = ts
		d.owned = true
	}
	ts.HoursGroups = append([]domain.HoursGroup(nil), hgs...)
	d.pending = true
	return ts
}

// pointsTo retargets the working copy to another version's snapshot,
// keeping the working values.
func (d *Data) pointsTo(target *VersionData) {
	if d.owned && d.taskSource != nil {
		d.taskSource.Version = target.Version
	}
	d.target = target
	d.pending = true
}

func (d *Data) write() {
	d.target.Type = d.typ
	d.target.TaskSource = d.taskSource
	d.owned = false
	d.pending = false
}

// Store keeps the durable snapshots of every version, keyed by element ID.
type Store struct {
	versions map[domain.OrderVersion]map[string]*VersionData
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{versions: make(map[domain.OrderVersion]map[string]*VersionData)}
}

// Seed installs a snapshot loaded from durable storage.
func (s *Store) Seed(vd *VersionData) {
	s.snapshots(vd.Version)[vd.ElementID] = vd
}

func (s *Store) snapshots(version domain.OrderVersion) map[string]*VersionData {
	m, ok := s.versions[version]
	if !ok {
		m = make(map[string]*VersionData)
		s.versions[version] = m
	}
	return m
}

// Get returns the snapshot of elementID for version.
func (s *Store) Get(version domain.OrderVersion, elementID string) (*VersionData, bool) {
	vd, ok := s.versions[version][elementID]
	return vd, ok
}

// Materialize returns the snapshot of elementID for version, creating it
// when absent. A created snapshot aliases the type and task source of
// alias, which is only read at creation time.
func (s *Store) Materialize(version domain.OrderVersion, elementID string, alias *VersionData) *VersionData {
	if vd, ok := s.Get(version, elementID); ok {
		return vd
	}
	vd := &VersionData{Version: version, ElementID: elementID, Type: NotScheduled}
	if alias != nil {
		vd.Type = alias.Type
		vd.TaskSource = alias.TaskSource
	}
	s.snapshots(version)[elementID] = vd
	return vd
}

// Fork materializes every snapshot of from under to, aliasing task sources.
// Snapshots already present under to are kept. It returns the number of
// snapshots created.
func (s *Store) Fork(from, to domain.OrderVersion) int {
	created := 0
	for id, vd := range s.versions[from] {
		if _, ok := s.Get(to, id); ok {
			continue
		}
		s.Materialize(to, id, vd)
		created++
	}
	return created
}

// Versions returns the known versions in lexical order.
func (s *Store) Versions() []domain.OrderVersion {
	result := make([]domain.OrderVersion, 0, len(s.versions))
	for v := range s.versions {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Snapshots returns the snapshots of version sorted by element ID.
func (s *Store) Snapshots(version domain.OrderVersion) []*VersionData {
	m := s.versions[version]
	result := make([]*VersionData, 0, len(m))
	for _, vd := range m {
		result = append(result, vd)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ElementID < result[j].ElementID })
	return result
}

// isShared reports whether a version other than version references ts.
func (s *Store) isShared(version domain.OrderVersion, ts *TaskSource) bool {
	for v, m := range s.versions {
		if v == version {
			continue
		}
		for _, vd := range m {
			if vd.TaskSource == ts {
				return true
			}
		}
	}
	return false
}
