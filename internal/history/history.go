// Package history keeps a SQLite ledger of runs and archived documents so
// that re-encountered daily notes are skipped instead of appended twice.
package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	topics      TEXT NOT NULL DEFAULT '[]',
	archived    INTEGER NOT NULL DEFAULT 0,
	diagnostics TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS documents (
	date         TEXT PRIMARY KEY,
	path         TEXT NOT NULL,
	checksum     TEXT NOT NULL DEFAULT '',
	run_id       INTEGER NOT NULL REFERENCES runs(id),
	processed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_run ON documents(run_id);
`

// Ledger defines the run-history operations. Consumers should depend on this
// interface rather than the concrete *DB type to facilitate testing.
type Ledger interface {
	RecordRun(run RunRow, docs []DocumentRow) (int64, error)
	ProcessedDates() (map[string]struct{}, error)
	ListRuns(limit int) ([]RunRow, error)
	LatestRun() (*RunRow, error)
	Close() error
}

// Verify *DB satisfies Ledger at compile time.
var _ Ledger = (*DB)(nil)

// DB wraps a sql.DB with ledger-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
