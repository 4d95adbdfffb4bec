package audit

import (
	"context"
	"sync"

	id "healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
)

// InMemoryStore keeps the audit trail in process memory. IDs are derived from
// the entry timestamp but bumped past the previous ID when the clock has not
// advanced, so they stay strictly increasing even under back-to-back appends.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.LogID]Entry
	lastID  id.LogID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.LogID]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) (id.LogID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logID := id.LogID(entry.Timestamp.UnixNano())
	if logID <= s.lastID {
		logID = s.lastID + 1
	}
	s.lastID = logID

	entry.ID = logID
	s.entries[logID] = entry
	return logID, nil
}

func (s *InMemoryStore) Get(_ context.Context, logID id.LogID) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[logID]
	if !ok {
		return Entry{}, sentinel.ErrNotFound
	}
	return entry, nil
}
