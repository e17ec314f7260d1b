package formatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/ordersync/internal/domain"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// sampleOrder builds SHIP -> {G -> {A(10), B(30)}, C(20)}.
func sampleOrder(t *testing.T) (*domain.Order, map[string]domain.NodeID) {
	t.Helper()
	o := domain.NewOrder("ship-id", "SHIP", "Ship", testNow)
	ids := map[string]domain.NodeID{"SHIP": o.Root()}
	attach := func(parent domain.NodeID, code, name string, kind domain.ElementKind, hours int) domain.NodeID {
		e := &domain.OrderElement{ID: code + "-id", Code: code, Name: name, Kind: kind}
		if kind == domain.KindLeaf {
			e.HoursGroups = []domain.HoursGroup{{ID: code + "-hg", Code: code + "-1", WorkingHours: hours, ResourceType: "WORKER"}}
		}
		id, err := o.Attach(parent, e)
		require.NoError(t, err)
		return id
	}
	ids["G"] = attach(o.Root(), "G", "Group", domain.KindGroup, 0)
	ids["A"] = attach(ids["G"], "A", "Leaf A", domain.KindLeaf, 10)
	ids["B"] = attach(ids["G"], "B", "Leaf B", domain.KindLeaf, 30)
	ids["C"] = attach(o.Root(), "C", "Leaf C", domain.KindLeaf, 20)
	return o, ids
}
