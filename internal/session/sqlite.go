package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id            TEXT PRIMARY KEY,
    version       INTEGER NOT NULL DEFAULT 1,
    name          TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL,
    message_count INTEGER DEFAULT 0,
    messages      TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
`

// SQLiteBackend stores one row per session in a SQLite database.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) a SQLite database at dbPath and ensures the schema exists.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Save(s *ChatSession) error {
	msgJSON, err := json.Marshal(s.Messages)
	if err != nil {
		return &StorageError{Op: "save", Path: s.ID, Err: fmt.Errorf("marshal messages: %w", err)}
	}

	version := s.Version
	if version == 0 {
		version = SchemaVersion
	}
	_, err = b.db.Exec(`
		INSERT OR REPLACE INTO sessions
			(id, version, name, created_at, updated_at, message_count, messages)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, version, s.Name, s.CreatedAt, s.UpdatedAt, len(s.Messages), string(msgJSON),
	)
	if err != nil {
		return &StorageError{Op: "save", Path: s.ID, Err: err}
	}
	return nil
}

// LoadAll returns every row, newest first. Rows whose messages do not decode
// are skipped and reported.
func (b *SQLiteBackend) LoadAll() ([]*ChatSession, []error, error) {
	rows, err := b.db.Query(`
		SELECT id, version, name, created_at, updated_at, messages
		FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var (
		sessions []*ChatSession
		skipped  []error
	)
	for rows.Next() {
		var sess ChatSession
		var msgJSON string
		if err := rows.Scan(&sess.ID, &sess.Version, &sess.Name, &sess.CreatedAt, &sess.UpdatedAt, &msgJSON); err != nil {
			skipped = append(skipped, &StorageError{Op: "load", Path: sess.ID, Err: err})
			continue
		}
		if err := json.Unmarshal([]byte(msgJSON), &sess.Messages); err != nil {
			skipped = append(skipped, &StorageError{Op: "load", Path: sess.ID, Err: fmt.Errorf("unmarshal messages: %w", err)})
			continue
		}
		if err := checkVersion(&sess); err != nil {
			skipped = append(skipped, &StorageError{Op: "load", Path: sess.ID, Err: err})
			continue
		}
		if sess.Messages == nil {
			sess.Messages = []ChatMessage{}
		}
		sessions = append(sessions, &sess)
	}
	return sessions, skipped, rows.Err()
}

func (b *SQLiteBackend) Delete(id string) error {
	if _, err := b.db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return &StorageError{Op: "delete", Path: id, Err: err}
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
