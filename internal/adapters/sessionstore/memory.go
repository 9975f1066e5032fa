// Package sessionstore provides session log adapters.
// All backends implement ports.SessionStore: an append-only conversation log
// keyed by session id, created implicitly on first append. The backend is a
// pluggable strategy - a file-based SQLite table, a Badger key-value store,
// or an in-memory map for tests and development.
package sessionstore

import (
	"context"
	"sync"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
)

// MemoryStore keeps session logs in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]entities.Turn
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]entities.Turn)}
}

// History returns the session's turns in insertion order; an unknown id
// yields an empty slice.
func (s *MemoryStore) History(ctx context.Context, sessionID string) ([]entities.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	out := make([]entities.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Append adds one turn to the session.
func (s *MemoryStore) Append(ctx context.Context, sessionID string, turn entities.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = append(s.sessions[sessionID], turn)
	return nil
}
