package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/repository"
)

func TestFormatOrderList(t *testing.T) {
	got := stripANSI(FormatOrderList([]repository.OrderSummary{
		{ID: "1", Code: "SHIP", Name: "Ship", ElementCount: 5, CreatedAt: testNow},
		{ID: "2", Code: "BARGE", Name: "Barge", ElementCount: 12, CreatedAt: testNow},
	}))

	assert.Contains(t, got, "CODE")
	assert.Contains(t, got, "ELEMENTS")
	assert.Contains(t, got, "SHIP")
	assert.Contains(t, got, "BARGE")
	assert.Contains(t, got, "2026-03-02")
}

func TestFormatOrderTree(t *testing.T) {
	o, ids := sampleOrder(t)
	require.NoError(t, o.AddLabel(ids["G"], domain.Label{Code: "L1", Type: "material", Name: "STEEL"}))

	got := stripANSI(FormatOrderTree(o))

	assert.Contains(t, got, "ORDER SHIP")
	assert.Contains(t, got, "├─ G  Group")
	assert.Contains(t, got, "│  └─ B  Leaf B")
	assert.Contains(t, got, "└─ C  Leaf C")
	assert.Contains(t, got, "[ 60h ]")
	assert.Contains(t, got, "[ 40h · STEEL ]")
}

func TestFormatElement(t *testing.T) {
	o, ids := sampleOrder(t)
	require.NoError(t, o.AddLabel(ids["G"], domain.Label{Code: "L1", Name: "STEEL"}))
	o.AddMaterial(ids["A"], &domain.MaterialAssignment{ID: "m1", MaterialCode: "PLATE", Units: 12, UnitPrice: 30})
	_, err := o.AddQualityForm(ids["A"], "visual")
	require.NoError(t, err)

	got := stripANSI(FormatElement(o, o.MustElement(ids["A"])))

	assert.Contains(t, got, "A  Leaf A  leaf")
	assert.Contains(t, got, "Hours: 10h")
	assert.Contains(t, got, "Deadline: --")
	assert.Contains(t, got, "A-1")
	assert.Contains(t, got, "WORKER")
	assert.Contains(t, got, "PLATE")
	assert.Contains(t, got, "Material total: 360.00")
	assert.Contains(t, got, "STEEL (inherited)")
	assert.Contains(t, got, "Quality forms: visual")
}
