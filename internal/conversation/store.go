// Package conversation keeps per-session chat history for the lifetime
// of a websocket connection.
package conversation

import (
	"sync"

	"github.com/avatarly/avatar-relay/internal/domain"
)

// Store defines per-session conversation history access
type Store interface {
	// GetOrCreate returns the turn sequence for a session, seeding it
	// with the system instruction on first use.
	GetOrCreate(sessionID string) []domain.Turn

	// Append adds a turn to an existing session's history. Appends
	// for sessions never created or already removed are dropped.
	Append(sessionID string, role domain.Role, content string)

	// Remove discards all history for a session.
	Remove(sessionID string)
}

// MemoryStore is an in-process Store keyed by session token. Sessions
// never share state, so a single RWMutex around the map is enough.
type MemoryStore struct {
	systemPrompt string
	mu           sync.RWMutex
	sessions     map[string][]domain.Turn
}

// NewMemoryStore creates a store that seeds every new session with the
// given system instruction.
func NewMemoryStore(systemPrompt string) *MemoryStore {
	return &MemoryStore{
		systemPrompt: systemPrompt,
		sessions:     make(map[string][]domain.Turn),
	}
}

// GetOrCreate returns a copy of the session's turns, creating the
// session with its system turn if absent.
func (s *MemoryStore) GetOrCreate(sessionID string) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, ok := s.sessions[sessionID]
	if !ok {
		turns = []domain.Turn{{Role: domain.RoleSystem, Content: s.systemPrompt}}
		s.sessions[sessionID] = turns
	}

	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}

// Append adds a turn to an existing session. Only GetOrCreate seeds
// sessions: an append racing a Remove must not resurrect the entry, so
// appends for unknown sessions are dropped.
func (s *MemoryStore) Append(sessionID string, role domain.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	s.sessions[sessionID] = append(turns, domain.Turn{Role: role, Content: content})
}

// Remove drops the session's history
func (s *MemoryStore) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
