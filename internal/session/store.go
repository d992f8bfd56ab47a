package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/apexion-ai/mcpcli/internal/logging"
)

// DefaultRecentMessages is the window used when a non-positive count is given.
const DefaultRecentMessages = 10

// Backend persists sessions, one durable unit per id.
type Backend interface {
	// LoadAll returns every decodable session. Units that fail to decode are
	// skipped and reported in skipped; err is reserved for failures that
	// make the whole backend unreadable.
	LoadAll() (sessions []*ChatSession, skipped []error, err error)
	Save(s *ChatSession) error
	Delete(id string) error
	Close() error
}

// Store is the in-memory owner of all chat sessions. Every mutation is
// written through the backend before the call returns; a failed write is
// logged and the in-memory state stays authoritative.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	logger   *zap.Logger
	now      func() time.Time
	sessions map[string]*ChatSession
	activeID string
}

// NewStore loads every session from backend and returns a store with no
// active session.
func NewStore(backend Backend, logger *zap.Logger) (*Store, error) {
	s := &Store{
		backend:  backend,
		logger:   logging.OrNop(logger),
		now:      time.Now,
		sessions: make(map[string]*ChatSession),
	}

	loaded, skipped, err := backend.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	for _, e := range skipped {
		s.logger.Warn("skipping unreadable session", zap.Error(e))
	}
	for _, sess := range loaded {
		if _, dup := s.sessions[sess.ID]; dup {
			s.logger.Warn("duplicate session id", zap.String("id", sess.ID))
			continue
		}
		s.sessions[sess.ID] = sess
	}
	s.logger.Debug("sessions loaded", zap.Int("count", len(s.sessions)))
	return s, nil
}

// CreateSession creates an empty session named name, makes it active and
// persists it. The returned id is unique within the store.
func (s *Store) CreateSession(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UnixMilli()
	id := s.uniqueID(now)
	sess := &ChatSession{
		Version:   SchemaVersion,
		ID:        id,
		Name:      name,
		Messages:  []ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[id] = sess
	s.activeID = id
	s.persist(sess)
	return id
}

// uniqueID derives an id from ms, bumping it until no session holds it.
func (s *Store) uniqueID(ms int64) string {
	for {
		id := fmt.Sprintf("session_%d", ms)
		if _, taken := s.sessions[id]; !taken {
			return id
		}
		ms++
	}
}

// SetActiveSession makes id the active session. It reports false and leaves
// the current active session untouched when id is unknown.
func (s *Store) SetActiveSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	s.activeID = id
	return true
}

// ActiveSessionID returns the active session id, if any.
func (s *Store) ActiveSessionID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID, s.activeID != ""
}

// ListSessions returns copies of all sessions, most recently updated first.
func (s *Store) ListSessions() []ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChatSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt != out[j].UpdatedAt {
			return out[i].UpdatedAt > out[j].UpdatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Session returns a copy of the session with the given id.
func (s *Store) Session(id string) (ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ChatSession{}, false
	}
	return sess.clone(), true
}

// AddMessage stamps msg with the current time and appends it to the active
// session. It reports false when no session is active.
func (s *Store) AddMessage(msg ChatMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[s.activeID]
	if !ok {
		return false
	}

	now := s.now().UnixMilli()
	msg.Timestamp = now
	sess.Messages = append(sess.Messages, msg)
	if now > sess.UpdatedAt {
		sess.UpdatedAt = now
	}
	s.persist(sess)
	return true
}

// RecentMessages returns the last count messages of the active session.
func (s *Store) RecentMessages(count int) []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ChatMessage(nil), s.recent(count)...)
}

// ContextForModel returns the last count messages of the active session as
// role/content pairs, in conversation order.
func (s *Store) ContextForModel(count int) []ContextMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.recent(count)
	out := make([]ContextMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ContextMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

func (s *Store) recent(count int) []ChatMessage {
	if count <= 0 {
		count = DefaultRecentMessages
	}
	sess, ok := s.sessions[s.activeID]
	if !ok {
		return nil
	}
	msgs := sess.Messages
	if len(msgs) > count {
		msgs = msgs[len(msgs)-count:]
	}
	return msgs
}

// DeleteSession removes id from memory and storage. Deleting the active
// session clears the active pointer. Unknown ids report false.
func (s *Store) DeleteSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	if s.activeID == id {
		s.activeID = ""
	}
	if err := s.backend.Delete(id); err != nil {
		s.logger.Warn("failed to remove persisted session", zap.String("id", id), zap.Error(err))
	}
	return true
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) persist(sess *ChatSession) {
	if err := s.backend.Save(sess); err != nil {
		s.logger.Warn("failed to persist session", zap.String("id", sess.ID), zap.Error(err))
	}
}
