// Package session persists named chat transcripts and tracks which one is
// active. A Store keeps every session in memory and writes each mutation
// through a Backend (one JSON file per session, or a SQLite table).
package session

import (
	"errors"
	"fmt"
	"time"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// SchemaVersion is written into every persisted session.
const SchemaVersion = 1

// ChatMessage is one turn of a conversation. Timestamp is epoch milliseconds
// and is stamped by the store when the message is appended.
type ChatMessage struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Model     string `json:"model,omitempty"`
}

// ContextMessage is a ChatMessage stripped down to what a model needs.
type ContextMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatSession is a named, ordered conversation transcript.
type ChatSession struct {
	Version   int           `json:"version"`
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt int64         `json:"createdAt"`
	UpdatedAt int64         `json:"updatedAt"`
}

// Created returns CreatedAt as a time.Time.
func (s ChatSession) Created() time.Time { return time.UnixMilli(s.CreatedAt) }

// Updated returns UpdatedAt as a time.Time.
func (s ChatSession) Updated() time.Time { return time.UnixMilli(s.UpdatedAt) }

func (s *ChatSession) clone() ChatSession {
	c := *s
	c.Messages = append([]ChatMessage(nil), s.Messages...)
	return c
}

// ErrUnsupportedVersion is reported for persisted sessions written by a newer
// schema than this build understands.
var ErrUnsupportedVersion = errors.New("unsupported session schema version")

// ErrMissingID is reported for persisted sessions without an id.
var ErrMissingID = errors.New("session has no id")

// ErrIDMismatch is reported for a session file whose id does not name the
// file it was read from.
var ErrIDMismatch = errors.New("session id does not match file name")

// StorageError describes a failed backend operation on one persisted unit.
type StorageError struct {
	Op   string // load, save, delete
	Path string // file path or session id
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// checkVersion normalizes a decoded session's version. Records written
// before versioning existed carry no version and are read as version 1.
func checkVersion(s *ChatSession) error {
	if s.Version == 0 {
		s.Version = SchemaVersion
	}
	if s.Version > SchemaVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	if s.ID == "" {
		return ErrMissingID
	}
	return nil
}
