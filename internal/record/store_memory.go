package record

import (
	"context"
	"sync"

	id "healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
)

// InMemory keeps records in process memory.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.RecordID]*Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.RecordID]*Record)}
}

func (s *InMemory) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return sentinel.ErrConflict
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, recordID id.RecordID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *InMemory) SetPermission(_ context.Context, recordID id.RecordID, grantee id.UserID, perm Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.Access[grantee] = perm
	return nil
}

func (s *InMemory) RemovePermission(_ context.Context, recordID id.RecordID, grantee id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recordID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(rec.Access, grantee)
	return nil
}

// InMemoryIndex is the in-process sharing index. Entries keep grant order.
type InMemoryIndex struct {
	mu      sync.RWMutex
	entries map[id.UserID][]id.RecordID
}

func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{entries: make(map[id.UserID][]id.RecordID)}
}

func (s *InMemoryIndex) Add(_ context.Context, grantee id.UserID, recordID id.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.entries[grantee] {
		if existing == recordID {
			return nil
		}
	}
	s.entries[grantee] = append(s.entries[grantee], recordID)
	return nil
}

func (s *InMemoryIndex) Remove(_ context.Context, grantee id.UserID, recordID id.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.entries[grantee]
	for i, existing := range entry {
		if existing == recordID {
			s.entries[grantee] = append(entry[:i], entry[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *InMemoryIndex) List(_ context.Context, grantee id.UserID) ([]id.RecordID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.RecordID{}, s.entries[grantee]...), nil
}
