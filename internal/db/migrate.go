package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillBaseScenarios(db); err != nil {
		return fmt.Errorf("backfilling base scenarios: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id          TEXT PRIMARY KEY,
		code        TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS order_elements (
		id               TEXT PRIMARY KEY,
		order_id         TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		parent_id        TEXT REFERENCES order_elements(id) ON DELETE CASCADE,
		position         INTEGER NOT NULL DEFAULT 0,
		code             TEXT NOT NULL DEFAULT '',
		external_code    TEXT NOT NULL DEFAULT '',
		name             TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		kind             TEXT NOT NULL CHECK(kind IN ('leaf','group')),
		init_date        TEXT,
		deadline         TEXT,
		children_advance INTEGER NOT NULL DEFAULT 0,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_order_elements_order ON order_elements(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_order_elements_parent ON order_elements(parent_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_order_elements_code ON order_elements(order_id, code) WHERE code != ''`,

	`CREATE TABLE IF NOT EXISTS hours_groups (
		id            TEXT PRIMARY KEY,
		element_id    TEXT NOT NULL REFERENCES order_elements(id) ON DELETE CASCADE,
		position      INTEGER NOT NULL DEFAULT 0,
		code          TEXT NOT NULL DEFAULT '',
		working_hours INTEGER NOT NULL DEFAULT 0 CHECK(working_hours >= 0),
		resource_type TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_hours_groups_element ON hours_groups(element_id)`,

	`CREATE TABLE IF NOT EXISTS element_labels (
		element_id TEXT NOT NULL REFERENCES order_elements(id) ON DELETE CASCADE,
		code       TEXT NOT NULL,
		type       TEXT NOT NULL DEFAULT '',
		name       TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (element_id, code)
	)`,

	`CREATE TABLE IF NOT EXISTS material_assignments (
		id            TEXT PRIMARY KEY,
		element_id    TEXT NOT NULL REFERENCES order_elements(id) ON DELETE CASCADE,
		material_code TEXT NOT NULL,
		units         REAL NOT NULL DEFAULT 0,
		unit_price    REAL NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS quality_forms (
		element_id TEXT NOT NULL REFERENCES order_elements(id) ON DELETE CASCADE,
		form_name  TEXT NOT NULL,
		PRIMARY KEY (element_id, form_name)
	)`,

	`CREATE TABLE IF NOT EXISTS criterion_requirements (
		id         TEXT PRIMARY KEY,
		element_id TEXT NOT NULL REFERENCES order_elements(id) ON DELETE CASCADE,
		criterion  TEXT NOT NULL,
		direct     INTEGER NOT NULL DEFAULT 1,
		valid      INTEGER NOT NULL DEFAULT 1,
		parent_id  TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS advance_types (
		id                TEXT PRIMARY KEY,
		unit_name         TEXT NOT NULL UNIQUE,
		default_max_value REAL NOT NULL DEFAULT 100 CHECK(default_max_value > 0),
		percentage        INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS advance_assignments (
		id            TEXT PRIMARY KEY,
		element_id    TEXT NOT NULL REFERENCES order_elements(id) ON DELETE CASCADE,
		type_id       TEXT NOT NULL REFERENCES advance_types(id),
		indirect      INTEGER NOT NULL DEFAULT 0,
		report_global INTEGER NOT NULL DEFAULT 0,
		max_value     REAL NOT NULL DEFAULT 100
	)`,

	`CREATE INDEX IF NOT EXISTS idx_advance_assignments_element ON advance_assignments(element_id)`,

	`CREATE TABLE IF NOT EXISTS advance_measurements (
		assignment_id TEXT NOT NULL REFERENCES advance_assignments(id) ON DELETE CASCADE,
		date          TEXT NOT NULL,
		value         REAL NOT NULL,
		PRIMARY KEY (assignment_id, date)
	)`,

	`CREATE TABLE IF NOT EXISTS scenarios (
		id         TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		parent_id  TEXT REFERENCES scenarios(id) ON DELETE SET NULL,
		created_at TEXT NOT NULL,
		UNIQUE (order_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS task_sources (
		id         TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		element_id TEXT NOT NULL,
		version    TEXT NOT NULL,
		is_group   INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS task_source_hours (
		task_source_id TEXT NOT NULL REFERENCES task_sources(id) ON DELETE CASCADE,
		position       INTEGER NOT NULL,
		hours_group_id TEXT NOT NULL,
		code           TEXT NOT NULL DEFAULT '',
		working_hours  INTEGER NOT NULL DEFAULT 0,
		resource_type  TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (task_source_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS scheduling_data (
		order_id        TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		element_id      TEXT NOT NULL REFERENCES order_elements(id) ON DELETE CASCADE,
		version         TEXT NOT NULL,
		scheduling_type TEXT NOT NULL DEFAULT 'NOT_SCHEDULED'
		                CHECK(scheduling_type IN ('NOT_SCHEDULED','SCHEDULING_POINT')),
		task_source_id  TEXT REFERENCES task_sources(id),
		PRIMARY KEY (element_id, version)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_scheduling_data_order ON scheduling_data(order_id, version)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id             TEXT PRIMARY KEY,
		order_id       TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		version        TEXT NOT NULL,
		element_id     TEXT NOT NULL,
		task_source_id TEXT NOT NULL,
		parent_task_id TEXT REFERENCES tasks(id) ON DELETE SET NULL,
		is_group       INTEGER NOT NULL DEFAULT 0,
		name           TEXT NOT NULL DEFAULT '',
		work_hours     INTEGER NOT NULL DEFAULT 0,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL,
		UNIQUE (order_id, version, element_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_tasks_task_source ON tasks(task_source_id)`,

	// Templates were recorded after the first release.
	`ALTER TABLE order_elements ADD COLUMN template TEXT NOT NULL DEFAULT ''`,
}

// migrateBackfillBaseScenarios gives every order without scenarios its base
// scenario. Idempotent: orders that already have one are skipped.
func migrateBackfillBaseScenarios(db *sql.DB) error {
	ctx := context.Background()

	var missing int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders o
		WHERE NOT EXISTS (SELECT 1 FROM scenarios s WHERE s.order_id = o.id)`).Scan(&missing)
	if err != nil {
		return fmt.Errorf("counting orders without scenarios: %w", err)
	}
	if missing == 0 {
		return nil
	}

	_, err = db.ExecContext(ctx, `INSERT INTO scenarios (id, order_id, name, parent_id, created_at)
		SELECT 'base-' || o.id, o.id, 'base', NULL, o.created_at
		FROM orders o
		WHERE NOT EXISTS (SELECT 1 FROM scenarios s WHERE s.order_id = o.id)`)
	if err != nil {
		return fmt.Errorf("inserting base scenarios: %w", err)
	}
	return nil
}
