package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN_CarriesConnectionPragmas(t *testing.T) {
	assert.Equal(t,
		"/tmp/o.db?_pragma=busy_timeout%285000%29&_pragma=foreign_keys%281%29",
		dsn("/tmp/o.db"))
}

func TestOpenDB_FilePragmasOnEveryConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "orders.db")
	database, err := OpenDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	ctx := context.Background()
	c1, err := database.Conn(ctx)
	require.NoError(t, err)
	defer c1.Close()
	c2, err := database.Conn(ctx)
	require.NoError(t, err)
	defer c2.Close()

	for name, c := range map[string]*sql.Conn{"first": c1, "second": c2} {
		var fk, timeout int
		var mode string
		require.NoError(t, c.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
		require.NoError(t, c.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&timeout))
		require.NoError(t, c.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode))
		assert.Equal(t, 1, fk, "%s connection", name)
		assert.Equal(t, busyTimeoutMS, timeout, "%s connection", name)
		assert.Equal(t, "wal", mode, "%s connection", name)
	}
}
