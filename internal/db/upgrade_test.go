package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrate_UpgradePath_LegacyToCurrentSchema simulates upgrading a
// database created before templates and scenarios were recorded. Verifies
// that existing rows survive, the template column is added with its default
// and every order gets a base scenario.
func TestMigrate_UpgradePath_LegacyToCurrentSchema(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)

	legacyStatements := []string{
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
	}
	for i, stmt := range legacyStatements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "legacy statement %d failed", i)
	}

	_, err = db.Exec(`INSERT INTO orders (id, code, name, created_at, updated_at)
		VALUES ('o1', 'SHIP-1', 'Legacy Ship', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO order_elements (id, order_id, code, name, kind, created_at, updated_at)
		VALUES ('o1', 'o1', 'SHIP-1', 'Legacy Ship', 'group', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO order_elements (id, order_id, parent_id, code, name, kind, created_at, updated_at)
		VALUES ('e1', 'o1', 'o1', 'HULL', 'Hull', 'leaf', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`)
	require.NoError(t, err)

	err = Migrate(db)
	require.NoError(t, err, "migration on legacy schema should succeed")

	var name, tpl string
	err = db.QueryRow(`SELECT name, template FROM order_elements WHERE id = 'e1'`).Scan(&name, &tpl)
	require.NoError(t, err)
	assert.Equal(t, "Hull", name, "element should survive migration")
	assert.Equal(t, "", tpl, "legacy element should get default empty template")

	var scenarioID, scenarioName string
	err = db.QueryRow(`SELECT id, name FROM scenarios WHERE order_id = 'o1'`).Scan(&scenarioID, &scenarioName)
	require.NoError(t, err)
	assert.Equal(t, "base-o1", scenarioID)
	assert.Equal(t, "base", scenarioName)

	err = Migrate(db)
	require.NoError(t, err, "re-running Migrate on already-migrated DB should succeed")

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM scenarios`).Scan(&n))
	assert.Equal(t, 1, n)
}
