// Package history journals successful status mutations to a local
// SQLite database.
//
// The journal is strictly best-effort: it records what this machine has
// written to the remote document, for `statusctl history`. Failures to
// open or write the journal are reported as warnings and never affect
// the outcome of the primary write.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Entry is one journaled mutation.
type Entry struct {
	ID         int64
	RecordedAt time.Time
	Actor      string
	Action     string
	Subject    string
	Message    string
	Revision   string
}

// DB wraps the journal database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the journal at the given path. The caller must
// Close() when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}

	// Single short-lived writer per invocation; no pool needed.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, path: path}

	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the journal connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}
	db.conn = nil
	return nil
}

// initSchema creates the entries table if needed. Idempotent.
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at TEXT NOT NULL,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		subject TEXT NOT NULL,
		message TEXT NOT NULL,
		revision TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_recorded_at ON entries(recorded_at);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return nil
}

// Record appends an entry to the journal. RecordedAt defaults to now.
func (db *DB) Record(e Entry) error {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(
		`INSERT INTO entries (recorded_at, actor, action, subject, message, revision)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.RecordedAt.Format(time.RFC3339), e.Actor, e.Action, e.Subject, e.Message, e.Revision,
	)
	if err != nil {
		return fmt.Errorf("failed to record journal entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (db *DB) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(
		`SELECT id, recorded_at, actor, action, subject, message, revision
		 FROM entries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var recorded string
		if err := rows.Scan(&e.ID, &recorded, &e.Actor, &e.Action, &e.Subject, &e.Message, &e.Revision); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339, recorded); err == nil {
			e.RecordedAt = ts
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal: %w", err)
	}
	return entries, nil
}
