package history

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/matome/internal/models"
)

// RunRow represents one completed run.
type RunRow struct {
	ID          int64               `json:"id"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
	Topics      []string            `json:"topics"`
	Archived    int                 `json:"archived"`
	Diagnostics []models.Diagnostic `json:"diagnostics"`
}

// DocumentRow represents one archived document.
type DocumentRow struct {
	Date        string    `json:"date"`
	Path        string    `json:"path"`
	Checksum    string    `json:"checksum"`
	ProcessedAt time.Time `json:"processed_at"`
}

// RecordRun inserts a run and its archived documents in one transaction and
// returns the run id.
func (db *DB) RecordRun(run RunRow, docs []DocumentRow) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	topicsJSON, _ := json.Marshal(run.Topics)
	diagsJSON, _ := json.Marshal(run.Diagnostics)

	res, err := tx.Exec(`
		INSERT INTO runs (started_at, finished_at, topics, archived, diagnostics)
		VALUES (?, ?, ?, ?, ?)
	`, run.StartedAt, run.FinishedAt, string(topicsJSON), len(docs), string(diagsJSON))
	if err != nil {
		return 0, fmt.Errorf("history: insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: run id: %w", err)
	}

	if len(docs) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO documents (date, path, checksum, run_id, processed_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(date) DO UPDATE SET
				path         = excluded.path,
				checksum     = excluded.checksum,
				run_id       = excluded.run_id,
				processed_at = excluded.processed_at
		`)
		if err != nil {
			return 0, fmt.Errorf("history: prepare document insert: %w", err)
		}
		defer stmt.Close()
		for _, d := range docs {
			if _, err := stmt.Exec(d.Date, d.Path, d.Checksum, id, d.ProcessedAt); err != nil {
				return 0, fmt.Errorf("history: insert document %s: %w", d.Date, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history: commit: %w", err)
	}
	return id, nil
}

// ProcessedDates returns every archived document date.
func (db *DB) ProcessedDates() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT date FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("history: processed dates: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out[d] = struct{}{}
	}
	return out, rows.Err()
}

// ListRuns returns up to limit runs, most recent first.
func (db *DB) ListRuns(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, topics, archived, diagnostics
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent run, or nil when no run was recorded.
func (db *DB) LatestRun() (*RunRow, error) {
	row := db.conn.QueryRow(`
		SELECT id, started_at, finished_at, topics, archived, diagnostics
		FROM runs ORDER BY id DESC LIMIT 1
	`)
	r, err := scanRun(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: latest run: %w", err)
	}
	return &r, nil
}

func scanRun(scan func(...any) error) (RunRow, error) {
	var r RunRow
	var topicsJSON, diagsJSON string
	if err := scan(&r.ID, &r.StartedAt, &r.FinishedAt, &topicsJSON, &r.Archived, &diagsJSON); err != nil {
		return r, err
	}
	_ = json.Unmarshal([]byte(topicsJSON), &r.Topics)
	_ = json.Unmarshal([]byte(diagsJSON), &r.Diagnostics)
	return r, nil
}

// Checksum returns the hex-encoded SHA-256 digest of data.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
