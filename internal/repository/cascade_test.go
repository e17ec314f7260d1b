package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/ordersync/internal/domain"
	"github.com/alexanderramin/ordersync/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func countElementRows(t *testing.T, db *sql.DB, table, elementID string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE element_id = ?`, elementID).Scan(&n))
	return n
}

// TestCascadeDelete_OrderToSchedulingState verifies that deleting an order
// removes its elements, versions, task sources, snapshots and tasks.
func TestCascadeDelete_OrderToSchedulingState(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	s, _ := scheduledSample(t, db)
	require.NoError(t, NewSQLiteScenarioRepo(db).Create(ctx, &domain.Scenario{
		ID: "sc-base", OrderID: s.Order.ID, Name: string(domain.BaseVersion), CreatedAt: time.Now(),
	}))

	tables := []string{"order_elements", "hours_groups", "scenarios", "task_sources", "task_source_hours", "scheduling_data", "tasks"}
	for _, table := range tables {
		require.NotZero(t, countRows(t, db, table), "%s seeded", table)
	}

	require.NoError(t, NewSQLiteOrderRepo(db).Delete(ctx, s.Order.ID))

	for _, table := range tables {
		assert.Zero(t, countRows(t, db, table), "%s should be cascade-deleted with the order", table)
	}
}

// TestCascadeDelete_ElementToBookkeeping verifies that removing a subtree
// drops the collections and advances of every element in it.
func TestCascadeDelete_ElementToBookkeeping(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewSQLiteOrderRepo(db)

	at := testutil.NewTestAdvanceType(testutil.UniqueCode("units"))
	require.NoError(t, NewSQLiteAdvanceTypeRepo(db).Create(ctx, at))

	s := testutil.NewSampleOrder()
	a := s.Nodes["A"]
	s.Order.AddMaterial(a, &domain.MaterialAssignment{ID: "mat-1", MaterialCode: "PLATE", Units: 2, UnitPrice: 5})
	require.NoError(t, s.Order.AddLabel(a, domain.Label{Code: "L1", Name: "STEEL"}))
	_, err := s.Order.AddQualityForm(a, "visual")
	require.NoError(t, err)
	assign := &domain.DirectAdvanceAssignment{ID: "adv-1", Type: at, MaxValue: 10}
	require.NoError(t, s.Order.AddAdvanceAssignment(a, assign))
	s.Order.AddMeasurement(a, assign, domain.AdvanceMeasurement{Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), Value: 4})
	require.NoError(t, repo.Save(ctx, s.Order))

	aID := s.Element("A").ID
	tables := []string{"material_assignments", "element_labels", "quality_forms", "advance_assignments"}
	for _, table := range tables {
		require.Equal(t, 1, countElementRows(t, db, table, aID), "%s seeded", table)
	}
	require.Equal(t, 1, countRows(t, db, "advance_measurements"))

	require.NoError(t, s.Order.RemoveElement(s.Nodes["G"]))
	require.NoError(t, repo.Save(ctx, s.Order))

	for _, table := range tables {
		assert.Zero(t, countElementRows(t, db, table, aID), "%s should be cascade-deleted with the subtree", table)
	}
	assert.Zero(t, countRows(t, db, "advance_measurements"))
	assert.Equal(t, 1, countRows(t, db, "advance_types"), "advance types outlive their assignments")
}

// TestForeignKey_ElementRequiresOrder verifies elements cannot be orphaned.
func TestForeignKey_ElementRequiresOrder(t *testing.T) {
	db := testutil.NewTestDB(t)

	_, err := db.Exec(`INSERT INTO order_elements (id, order_id, code, name, kind, position, created_at, updated_at)
		VALUES ('e1', 'missing-order', 'X', 'X', 'leaf', 0, '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')`)
	assert.Error(t, err, "an element must belong to an existing order")
}
