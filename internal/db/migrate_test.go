package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

const ts = "2026-01-01T00:00:00Z"

func insertOrder(t *testing.T, db *sql.DB, id, code string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO orders (id, code, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, code, code, ts, ts)
	require.NoError(t, err)
}

func insertElement(t *testing.T, db *sql.DB, id, orderID string, parentID any, code, kind string) error {
	t.Helper()
	_, err := db.Exec(`INSERT INTO order_elements (id, order_id, parent_id, code, name, kind, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, id, orderID, parentID, code, code, kind, ts, ts)
	return err
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)

	// Run migrations a second time; it must be idempotent.
	err := Migrate(db)
	require.NoError(t, err)

	// Third time for good measure.
	err = Migrate(db)
	require.NoError(t, err)
}

func TestMigrate_CreatesAllTables(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"orders", "order_elements", "hours_groups", "element_labels",
		"material_assignments", "quality_forms", "criterion_requirements",
		"advance_types", "advance_assignments", "advance_measurements",
		"scenarios", "task_sources", "task_source_hours", "scheduling_data", "tasks",
	}
	for _, table := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_CreatesIndexes(t *testing.T) {
	db := openTestDB(t)

	expected := []string{
		"idx_order_elements_order",
		"idx_order_elements_parent",
		"idx_order_elements_code",
		"idx_hours_groups_element",
		"idx_advance_assignments_element",
		"idx_scheduling_data_order",
		"idx_tasks_task_source",
	}
	for _, idx := range expected {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name=?`, idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
	}
}

func TestMigrate_ForeignKeysEnabled(t *testing.T) {
	db := openTestDB(t)

	var fk int
	err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk)
	require.NoError(t, err)
	assert.Equal(t, 1, fk, "foreign keys should be enabled")
}

func TestMigrate_WALModeRequested(t *testing.T) {
	// In-memory SQLite uses "memory" journal mode; WAL only applies to file DBs.
	db := openTestDB(t)

	var mode string
	err := db.QueryRow(`PRAGMA journal_mode`).Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "memory", mode)
}

func TestMigrate_ElementKindCheckConstraint(t *testing.T) {
	db := openTestDB(t)
	insertOrder(t, db, "o1", "ORD")

	require.NoError(t, insertElement(t, db, "o1", "o1", nil, "ORD", "group"))
	assert.Error(t, insertElement(t, db, "e1", "o1", "o1", "E1", "folder"))
}

func TestMigrate_ElementCodeUniquePerOrder(t *testing.T) {
	db := openTestDB(t)
	insertOrder(t, db, "o1", "ORD1")
	insertOrder(t, db, "o2", "ORD2")
	require.NoError(t, insertElement(t, db, "r1", "o1", nil, "ROOT", "group"))
	require.NoError(t, insertElement(t, db, "r2", "o2", nil, "ROOT", "group"))

	require.NoError(t, insertElement(t, db, "a1", "o1", "r1", "A", "leaf"))
	assert.Error(t, insertElement(t, db, "a2", "o1", "r1", "A", "leaf"), "code reused inside one order")
	assert.NoError(t, insertElement(t, db, "a3", "o2", "r2", "A", "leaf"), "code reused across orders")

	// Elements whose code moved to external_code may share the empty code.
	require.NoError(t, insertElement(t, db, "x1", "o1", "r1", "", "leaf"))
	assert.NoError(t, insertElement(t, db, "x2", "o1", "r1", "", "leaf"))
}

func TestMigrate_ElementCascadeDelete(t *testing.T) {
	db := openTestDB(t)
	insertOrder(t, db, "o1", "ORD")
	require.NoError(t, insertElement(t, db, "r", "o1", nil, "ORD", "group"))
	require.NoError(t, insertElement(t, db, "g", "o1", "r", "G", "group"))
	require.NoError(t, insertElement(t, db, "a", "o1", "g", "A", "leaf"))
	_, err := db.Exec(`INSERT INTO hours_groups (id, element_id, working_hours) VALUES ('h', 'a', 8)`)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM order_elements WHERE id = 'g'`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM order_elements`).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM hours_groups`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestMigrate_SchedulingTypeCheckConstraint(t *testing.T) {
	db := openTestDB(t)
	insertOrder(t, db, "o1", "ORD")
	require.NoError(t, insertElement(t, db, "r", "o1", nil, "ORD", "group"))

	_, err := db.Exec(`INSERT INTO scheduling_data (order_id, element_id, version, scheduling_type) VALUES ('o1', 'r', 'base', 'SCHEDULING_POINT')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO scheduling_data (order_id, element_id, version, scheduling_type) VALUES ('o1', 'r', 'alt', 'SOMEWHAT_SCHEDULED')`)
	assert.Error(t, err, "derived state is never stored")
}

func TestMigrate_HoursGroupsNonNegative(t *testing.T) {
	db := openTestDB(t)
	insertOrder(t, db, "o1", "ORD")
	require.NoError(t, insertElement(t, db, "r", "o1", nil, "ORD", "group"))
	require.NoError(t, insertElement(t, db, "a", "o1", "r", "A", "leaf"))

	_, err := db.Exec(`INSERT INTO hours_groups (id, element_id, working_hours) VALUES ('h', 'a', -1)`)
	assert.Error(t, err)
}

func TestMigrate_TemplateColumnDefault(t *testing.T) {
	db := openTestDB(t)
	insertOrder(t, db, "o1", "ORD")
	require.NoError(t, insertElement(t, db, "r", "o1", nil, "ORD", "group"))

	var tpl string
	require.NoError(t, db.QueryRow(`SELECT template FROM order_elements WHERE id = 'r'`).Scan(&tpl))
	assert.Equal(t, "", tpl)
}

func TestMigrate_BackfillsBaseScenario(t *testing.T) {
	db := openTestDB(t)
	insertOrder(t, db, "o1", "ORD")

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	var name string
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*), MAX(name) FROM scenarios WHERE order_id = 'o1'`).Scan(&n, &name))
	assert.Equal(t, 1, n)
	assert.Equal(t, "base", name)
}
