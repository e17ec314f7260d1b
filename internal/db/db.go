package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// busyTimeoutMS bounds how long a writer waits for another connection's
// write transaction before failing with SQLITE_BUSY.
const busyTimeoutMS = 5000

// connPragmas run on every new pool connection. Cascades from orders down to
// tasks and scheduling snapshots depend on foreign_keys being on everywhere.
var connPragmas = []string{
	fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS),
	"foreign_keys(1)",
}

// OpenDB opens the order database at path, creating its directory, and runs
// migrations. ":memory:" gives a private in-memory database pinned to one
// connection.
func OpenDB(path string) (*sql.DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == memoryPath {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func dsn(path string) string {
	q := url.Values{"_pragma": connPragmas}
	return path + "?" + q.Encode()
}
