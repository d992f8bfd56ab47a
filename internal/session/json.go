package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// JSONBackend stores each session as <dir>/<id>.json.
type JSONBackend struct {
	dir string
}

// NewJSONBackend returns a backend rooted at dir. The directory is created
// on the first write.
func NewJSONBackend(dir string) *JSONBackend {
	return &JSONBackend{dir: dir}
}

// Dir returns the directory sessions are stored in.
func (b *JSONBackend) Dir() string { return b.dir }

func (b *JSONBackend) path(id string) string {
	return filepath.Join(b.dir, id+".json")
}

// LoadAll reads every *.json file in the directory. A missing directory
// yields no sessions.
func (b *JSONBackend) LoadAll() ([]*ChatSession, []error, error) {
	entries, err := os.ReadDir(b.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, &StorageError{Op: "load", Path: b.dir, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var (
		sessions []*ChatSession
		skipped  []error
	)
	for _, name := range names {
		path := filepath.Join(b.dir, name)
		sess, err := readSessionFile(path)
		if err != nil {
			skipped = append(skipped, &StorageError{Op: "load", Path: path, Err: err})
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions, skipped, nil
}

func readSessionFile(path string) (*ChatSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sess ChatSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if err := checkVersion(&sess); err != nil {
		return nil, err
	}
	// Save and Delete address the file as <id>.json, so the two must agree.
	if sess.ID+".json" != filepath.Base(path) {
		return nil, fmt.Errorf("%w: id %q", ErrIDMismatch, sess.ID)
	}
	if sess.Messages == nil {
		sess.Messages = []ChatMessage{}
	}
	return &sess, nil
}

// Save writes the session to a temp file in the same directory and renames
// it over <id>.json.
func (b *JSONBackend) Save(s *ChatSession) error {
	path := b.path(s.ID)
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return &StorageError{Op: "save", Path: b.dir, Err: fmt.Errorf("create session dir: %w", err)}
	}

	rec := *s
	if rec.Version == 0 {
		rec.Version = SchemaVersion
	}
	data, err := json.MarshalIndent(&rec, "", "  ")
	if err != nil {
		return &StorageError{Op: "save", Path: path, Err: fmt.Errorf("marshal session: %w", err)}
	}

	tmp, err := os.CreateTemp(b.dir, s.ID+".*.tmp")
	if err != nil {
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &StorageError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Delete removes <id>.json. A file that is already gone is not an error.
func (b *JSONBackend) Delete(id string) error {
	path := b.path(id)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &StorageError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

// Close is a no-op for the file backend.
func (b *JSONBackend) Close() error { return nil }
