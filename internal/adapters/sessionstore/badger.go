package sessionstore

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/timshannon/badgerhold/v4"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
)

// turnRecord is the stored form of one conversation turn.
type turnRecord struct {
	SessionID string `badgerhold:"index"`
	Seq       int
	Turn      entities.Turn
}

// BadgerStore persists session logs in a Badger key-value database via
// badgerhold. Appends to one session are serialised with a store-level mutex
// so per-session sequence numbers stay monotonic.
type BadgerStore struct {
	store *badgerhold.Store

	mu   sync.Mutex
	seqs map[string]int
}

// NewBadgerStore opens (creating if needed) a Badger database at dir.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session store directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("opening badger session store: %w", err)
	}
	return &BadgerStore{store: store, seqs: make(map[string]int)}, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.store.Close()
}

// History returns the session's turns ordered by sequence number.
func (s *BadgerStore) History(ctx context.Context, sessionID string) ([]entities.Turn, error) {
	var records []turnRecord
	err := s.store.Find(&records, badgerhold.Where("SessionID").Eq(sessionID).Index("SessionID").SortBy("Seq"))
	if err != nil {
		return nil, fmt.Errorf("querying session history: %w", err)
	}

	turns := make([]entities.Turn, len(records))
	for i, rec := range records {
		turns[i] = rec.Turn
	}
	return turns, nil
}

// Append adds one turn with the next per-session sequence number.
func (s *BadgerStore) Append(ctx context.Context, sessionID string, turn entities.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, err := s.nextSeq(sessionID)
	if err != nil {
		return err
	}

	rec := turnRecord{SessionID: sessionID, Seq: seq, Turn: turn}
	if err := s.store.Insert(badgerhold.NextSequence(), &rec); err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	s.seqs[sessionID] = seq + 1
	return nil
}

// nextSeq returns the next sequence number for the session, consulting the
// store the first time a session is seen after startup.
func (s *BadgerStore) nextSeq(sessionID string) (int, error) {
	if seq, ok := s.seqs[sessionID]; ok {
		return seq, nil
	}
	count, err := s.store.Count(&turnRecord{}, badgerhold.Where("SessionID").Eq(sessionID).Index("SessionID"))
	if err != nil {
		return 0, fmt.Errorf("counting session turns: %w", err)
	}
	return int(count), nil
}
