package identity

import (
	"context"
	"strings"
	"sync"

	id "healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
)

// InMemory keeps profiles and the name index in process memory. One mutex
// guards both maps so a rename swaps the index and the profile atomically.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*UserProfile
	names    map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		profiles: make(map[id.UserID]*UserProfile),
		names:    make(map[string]id.UserID),
	}
}

// nameKey folds display names so uniqueness is case-insensitive.
func nameKey(name string) string { return strings.ToLower(name) }

func (s *InMemory) Create(_ context.Context, profile *UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.ID]; ok {
		return sentinel.ErrConflict
	}
	if profile.Name != "" {
		if holder, ok := s.names[nameKey(profile.Name)]; ok && holder != profile.ID {
			return sentinel.ErrAlreadyUsed
		}
		s.names[nameKey(profile.Name)] = profile.ID
	}
	s.profiles[profile.ID] = profile.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return profile.Clone(), nil
}

func (s *InMemory) FindByName(_ context.Context, name string) (*UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.names[nameKey(name)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return profile.Clone(), nil
}

func (s *InMemory) Rename(_ context.Context, userID id.UserID, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if holder, taken := s.names[nameKey(newName)]; taken && holder != userID {
		return sentinel.ErrAlreadyUsed
	}
	if profile.Name != "" {
		delete(s.names, nameKey(profile.Name))
	}
	s.names[nameKey(newName)] = userID
	profile.Name = newName
	return nil
}

func (s *InMemory) Execute(_ context.Context, userID id.UserID,
	validate func(*UserProfile) error,
	mutate func(*UserProfile)) (*UserProfile, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(profile); err != nil {
			return nil, err
		}
	}
	mutate(profile)
	return profile.Clone(), nil
}

func (s *InMemory) AppendRecordID(_ context.Context, userID id.UserID, recordID id.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	profile.Records = append(profile.Records, recordID)
	return nil
}

func (s *InMemory) AppendAuditPointer(_ context.Context, actor id.UserID, logID id.LogID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[actor]
	if !ok {
		return sentinel.ErrNotFound
	}
	profile.AuditLog = append(profile.AuditLog, logID)
	return nil
}
