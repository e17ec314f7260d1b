package scheduling

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/ordersync/internal/domain"
)

const (
	base   domain.OrderVersion = "base"
	whatIf domain.OrderVersion = "what-if"
)

type fixture struct {
	order  *domain.Order
	ids    map[string]domain.NodeID
	engine *Engine
	store  *Store
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ts-%d", n)
	}
}

func testLeaf(code string, hours int) *domain.OrderElement {
	return &domain.OrderElement{
		ID:   "id-" + code,
		Code: code,
		Name: code,
		Kind: domain.KindLeaf,
		HoursGroups: []domain.HoursGroup{
			{ID: "hg-" + code, Code: code + "-hg", WorkingHours: hours},
		},
	}
}

func testGroup(code string) *domain.OrderElement {
	return &domain.OrderElement{ID: "id-" + code, Code: code, Name: code, Kind: domain.KindGroup}
}

// newFixture builds ORD -> {G -> {A(10), B(30)}, C(20)} with base selected.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	o := domain.NewOrder("id-ORD", "ORD", "Order", testNowUTC())
	f := &fixture{order: o, ids: map[string]domain.NodeID{"ORD": o.Root()}}
	f.attach(t, "ORD", testGroup("G"))
	f.attach(t, "G", testLeaf("A", 10))
	f.attach(t, "G", testLeaf("B", 30))
	f.attach(t, "ORD", testLeaf("C", 20))
	f.store = NewStore()
	f.engine = NewEngine(o, f.store, WithIDGenerator(seqIDs()))
	f.engine.UseSchedulingDataFor(o.Root(), base)
	return f
}

func (f *fixture) attach(t *testing.T, parent string, e *domain.OrderElement) domain.NodeID {
	t.Helper()
	id, err := f.order.Attach(f.ids[parent], e)
	require.NoError(t, err)
	f.ids[e.Code] = id
	return id
}

func (f *fixture) schedule(t *testing.T, codes ...string) {
	t.Helper()
	for _, c := range codes {
		require.NoError(t, f.engine.Schedule(f.ids[c]))
	}
}

// sync plans the whole order and commits the result.
func (f *fixture) sync() []Synchronization {
	root := f.order.Root()
	syncs := f.engine.CalculateSynchronizationsNeeded(root)
	f.engine.WriteSchedulingDataChanges(root)
	f.engine.ResetStates()
	return syncs
}

func (f *fixture) ts(code string) *TaskSource {
	return f.engine.TaskSource(f.ids[code])
}

// kinds renders syncs as "KIND(element)" strings, nesting included.
func kinds(syncs []Synchronization) []string {
	var result []string
	for _, s := range syncs {
		result = append(result, s.String())
	}
	return result
}

func flatten(syncs []Synchronization) []Synchronization {
	var result []Synchronization
	for _, s := range syncs {
		s.Walk(func(each Synchronization) { result = append(result, each) })
	}
	return result
}

func testNowUTC() time.Time {
	return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
}

func assertIllegalState(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		_, ok := r.(*domain.IllegalStateError)
		assert.True(t, ok, "expected *domain.IllegalStateError, got %v", r)
	}()
	fn()
}
