package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	unitsType   = &AdvanceType{ID: "t-units", UnitName: "units", DefaultMaxValue: 100}
	percentType = &AdvanceType{ID: "t-pct", UnitName: "percent", DefaultMaxValue: 100, Percentage: true}
)

func direct(id string, t *AdvanceType, global bool) *DirectAdvanceAssignment {
	return &DirectAdvanceAssignment{ID: id, Type: t, ReportGlobal: global, MaxValue: 100}
}

func TestAddAdvanceAssignment_PropagatesUpward(t *testing.T) {
	o, ids := sampleOrder(t)

	require.NoError(t, o.AddAdvanceAssignment(ids["A"], direct("a1", unitsType, true)))

	for _, code := range []string{"G", "ORD"} {
		e := o.MustElement(ids[code])
		assert.True(t, e.ChildrenAdvance, code)
		require.Len(t, e.IndirectAdvances, 1, code)
		assert.True(t, e.IndirectAdvances[0].Type.SameAs(unitsType))
	}
	assert.False(t, o.MustElement(ids["A"]).ChildrenAdvance)
	assert.Empty(t, o.MustElement(ids["C"]).IndirectAdvances)
}

func TestAddAdvanceAssignment_DuplicateGlobal(t *testing.T) {
	o, ids := sampleOrder(t)
	require.NoError(t, o.AddAdvanceAssignment(ids["C"], direct("c1", unitsType, true)))

	err := o.AddAdvanceAssignment(ids["C"], direct("c2", percentType, true))
	var dg *DuplicateGlobalAdvanceError
	require.ErrorAs(t, err, &dg)
	assert.Equal(t, "C", dg.ElementCode)
	assert.ErrorIs(t, err, ErrDuplicateGlobalAdvance)

	require.NoError(t, o.AddAdvanceAssignment(ids["C"], direct("c3", percentType, false)))
}

func TestAddAdvanceAssignment_DuplicateTypeAlongBranch(t *testing.T) {
	cases := []struct {
		name  string
		first string
		then  string
	}{
		{"same element", "A", "A"},
		{"ancestor holds it", "G", "A"},
		{"root holds it", "ORD", "B"},
		{"descendant holds it", "A", "G"},
		{"deep descendant holds it", "B", "ORD"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o, ids := sampleOrder(t)
			require.NoError(t, o.AddAdvanceAssignment(ids[tc.first], direct("x1", unitsType, false)))

			err := o.AddAdvanceAssignment(ids[tc.then], direct("x2", unitsType, false))
			var dt *DuplicateAdvanceTypeError
			require.ErrorAs(t, err, &dt)
			assert.Equal(t, tc.first, dt.ElementCode)
			assert.ErrorIs(t, err, ErrDuplicateAdvanceType)
		})
	}
}

func TestAddAdvanceAssignment_SiblingsMayShareType(t *testing.T) {
	o, ids := sampleOrder(t)
	require.NoError(t, o.AddAdvanceAssignment(ids["A"], direct("a1", unitsType, false)))
	require.NoError(t, o.AddAdvanceAssignment(ids["B"], direct("b1", unitsType, false)))
	require.NoError(t, o.AddAdvanceAssignment(ids["C"], direct("c1", unitsType, false)))

	assert.Len(t, o.MustElement(ids["G"]).IndirectAdvances, 1)
	assert.Len(t, o.MustElement(o.Root()).IndirectAdvances, 1)
	assert.Len(t, o.AllDirectAdvances(o.Root(), unitsType), 3)
}

func TestRemoveAdvanceAssignment_InverseOfAdd(t *testing.T) {
	o, ids := sampleOrder(t)
	a1 := direct("a1", unitsType, false)
	b1 := direct("b1", unitsType, false)
	require.NoError(t, o.AddAdvanceAssignment(ids["A"], a1))
	require.NoError(t, o.AddAdvanceAssignment(ids["B"], b1))

	require.True(t, o.RemoveAdvanceAssignment(ids["A"], a1))
	g := o.MustElement(ids["G"])
	assert.True(t, g.ChildrenAdvance, "B still carries the type")
	assert.Len(t, g.IndirectAdvances, 1)

	require.True(t, o.RemoveAdvanceAssignment(ids["B"], b1))
	for _, code := range []string{"G", "ORD"} {
		e := o.MustElement(ids[code])
		assert.False(t, e.ChildrenAdvance, code)
		assert.Empty(t, e.IndirectAdvances, code)
	}

	assert.False(t, o.RemoveAdvanceAssignment(ids["B"], b1))
}

func TestRemoveAdvanceAssignment_KeepsMarkerWhileOtherBranchHasAdvance(t *testing.T) {
	o, ids := sampleOrder(t)
	a1 := direct("a1", unitsType, false)
	require.NoError(t, o.AddAdvanceAssignment(ids["A"], a1))
	require.NoError(t, o.AddAdvanceAssignment(ids["C"], direct("c1", percentType, false)))

	require.True(t, o.RemoveAdvanceAssignment(ids["A"], a1))
	assert.False(t, o.MustElement(ids["G"]).ChildrenAdvance)
	root := o.MustElement(o.Root())
	assert.True(t, root.ChildrenAdvance)
	require.Len(t, root.IndirectAdvances, 1)
	assert.True(t, root.IndirectAdvances[0].Type.SameAs(percentType))
}

func TestRemoveElement_UndoesAdvancePropagation(t *testing.T) {
	o, ids := sampleOrder(t)
	require.NoError(t, o.AddAdvanceAssignment(ids["A"], direct("a1", unitsType, true)))

	require.NoError(t, o.RemoveElement(ids["A"]))
	for _, code := range []string{"G", "ORD"} {
		e := o.MustElement(ids[code])
		assert.False(t, e.ChildrenAdvance, code)
		assert.Empty(t, e.IndirectAdvances, code)
	}
}

func TestRemoveElement_KeepsAdvancesOfRemainingBranches(t *testing.T) {
	o, ids := sampleOrder(t)
	require.NoError(t, o.AddAdvanceAssignment(ids["A"], direct("a1", unitsType, false)))
	require.NoError(t, o.AddAdvanceAssignment(ids["B"], direct("b1", percentType, false)))
	require.NoError(t, o.AddAdvanceAssignment(ids["C"], direct("c1", unitsType, false)))

	require.NoError(t, o.RemoveElement(ids["A"]))
	g := o.MustElement(ids["G"])
	assert.True(t, g.ChildrenAdvance, "B still carries an advance")
	require.Len(t, g.IndirectAdvances, 1)
	assert.True(t, g.IndirectAdvances[0].Type.SameAs(percentType))

	root := o.MustElement(o.Root())
	assert.True(t, root.ChildrenAdvance)
	assert.Len(t, root.IndirectAdvances, 2, "units still comes from C")

	require.NoError(t, o.RemoveElement(ids["G"]))
	require.Len(t, root.IndirectAdvances, 1)
	assert.True(t, root.IndirectAdvances[0].Type.SameAs(unitsType))
	assert.True(t, root.ChildrenAdvance)
}

func TestAdvancePercentage(t *testing.T) {
	o, ids := sampleOrder(t)
	a1 := direct("a1", unitsType, false)
	b1 := direct("b1", unitsType, false)
	require.NoError(t, o.AddAdvanceAssignment(ids["A"], a1))
	require.NoError(t, o.AddAdvanceAssignment(ids["B"], b1))

	assert.InDelta(t, 0.0, o.AdvancePercentage(ids["G"]), 1e-9)

	o.AddMeasurement(ids["A"], a1, AdvanceMeasurement{Date: testNow, Value: 50})
	o.AddMeasurement(ids["B"], b1, AdvanceMeasurement{Date: testNow, Value: 100})

	assert.InDelta(t, 0.5, o.AdvancePercentage(ids["A"]), 1e-9)
	assert.InDelta(t, 1.0, o.AdvancePercentage(ids["B"]), 1e-9)
	// (0.5*10 + 1.0*30) / 40
	assert.InDelta(t, 0.875, o.AdvancePercentage(ids["G"]), 1e-9)
	assert.True(t, o.IsFinishedAdvance(ids["B"]))
	assert.False(t, o.IsFinishedAdvance(ids["G"]))
}

func TestAdvancePercentage_CacheInvalidatedByMeasurement(t *testing.T) {
	o, ids := sampleOrder(t)
	a1 := direct("a1", unitsType, false)
	require.NoError(t, o.AddAdvanceAssignment(ids["A"], a1))
	o.AddMeasurement(ids["A"], a1, AdvanceMeasurement{Date: testNow, Value: 20})
	before := o.AdvancePercentage(o.Root())

	o.AddMeasurement(ids["A"], a1, AdvanceMeasurement{Date: testNow.AddDate(0, 0, 1), Value: 100})
	assert.Greater(t, o.AdvancePercentage(o.Root()), before)
}

func TestAdvancePercentage_GlobalAssignmentWins(t *testing.T) {
	o, ids := sampleOrder(t)
	g1 := direct("g1", percentType, true)
	require.NoError(t, o.AddAdvanceAssignment(ids["G"], g1))
	o.AddMeasurement(ids["G"], g1, AdvanceMeasurement{Date: testNow, Value: 30})

	assert.InDelta(t, 0.3, o.AdvancePercentage(ids["G"]), 1e-9)
}

func TestAddMeasurement_KeepsDateOrder(t *testing.T) {
	o, ids := sampleOrder(t)
	a1 := direct("a1", unitsType, false)
	require.NoError(t, o.AddAdvanceAssignment(ids["A"], a1))

	o.AddMeasurement(ids["A"], a1, AdvanceMeasurement{Date: testNow.AddDate(0, 0, 2), Value: 80})
	o.AddMeasurement(ids["A"], a1, AdvanceMeasurement{Date: testNow, Value: 10})

	last, ok := a1.LastMeasurement()
	require.True(t, ok)
	assert.InDelta(t, 80, last.Value, 1e-9)
}

func TestAddMeasurement_SameDateReplaces(t *testing.T) {
	o, ids := sampleOrder(t)
	a1 := direct("a1", unitsType, false)
	require.NoError(t, o.AddAdvanceAssignment(ids["A"], a1))

	o.AddMeasurement(ids["A"], a1, AdvanceMeasurement{Date: testNow, Value: 10})
	before := o.AdvancePercentage(ids["A"])
	o.AddMeasurement(ids["A"], a1, AdvanceMeasurement{Date: testNow, Value: 40})

	require.Len(t, a1.Measurements, 1)
	assert.InDelta(t, 40, a1.Measurements[0].Value, 1e-9)
	assert.Greater(t, o.AdvancePercentage(ids["A"]), before)
}

func TestAddSubcontractorAdvance(t *testing.T) {
	o, ids := sampleOrder(t)
	sub := &AdvanceType{ID: "t-sub", UnitName: SubcontractorAdvanceType, DefaultMaxValue: 100, Percentage: true}

	a, err := o.AddSubcontractorAdvance(ids["C"], "s1", sub)
	require.NoError(t, err)
	assert.True(t, a.ReportGlobal)
	assert.InDelta(t, 100, a.MaxValue, 1e-9)

	_, err = o.AddSubcontractorAdvance(ids["C"], "s2", sub)
	assert.ErrorIs(t, err, ErrDuplicateAdvanceType)
}

// Property: after any sequence of successful additions, no type appears
// twice along a root-to-leaf path and every ancestor of an assigned element
// carries the marker and the mirrored indirect assignment.
func TestAdvanceAssignment_UniquenessProperty(t *testing.T) {
	types := []*AdvanceType{unitsType, percentType, {ID: "t-h", UnitName: "hours"}}
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		o, ids := sampleOrder(t)
		nodes := []NodeID{ids["ORD"], ids["G"], ids["A"], ids["B"], ids["C"]}
		for step := 0; step < 8; step++ {
			n := nodes[rng.Intn(len(nodes))]
			ty := types[rng.Intn(len(types))]
			_ = o.AddAdvanceAssignment(n, direct("x", ty, rng.Intn(2) == 0))
		}

		for _, n := range nodes {
			path := append([]NodeID{n}, o.Ancestors(n)...)
			seen := map[string]bool{}
			globals := 0
			for _, each := range o.MustElement(n).DirectAdvances {
				if each.ReportGlobal {
					globals++
				}
			}
			assert.LessOrEqual(t, globals, 1)
			for _, p := range path {
				for _, each := range o.MustElement(p).DirectAdvances {
					assert.False(t, seen[each.Type.ID], "iter %d: type %s repeated on branch", iter, each.Type.ID)
					seen[each.Type.ID] = true
				}
			}
			if len(o.MustElement(n).DirectAdvances) > 0 {
				for _, anc := range o.Ancestors(n) {
					ae := o.MustElement(anc)
					assert.True(t, ae.ChildrenAdvance)
					for _, each := range o.MustElement(n).DirectAdvances {
						assert.NotNil(t, indirectOfType(ae, each.Type))
					}
				}
			}
		}
	}
}
