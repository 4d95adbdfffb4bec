package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
)

type ProfileStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *ProfileStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestProfileStoreSuite(t *testing.T) {
	suite.Run(t, new(ProfileStoreSuite))
}

func (s *ProfileStoreSuite) newProfile(userID id.UserID) *UserProfile {
	return &UserProfile{
		ID:        userID,
		CreatedAt: time.Now(),
		Roles:     DefaultRoles(),
		Tier:      id.TierBasic,
	}
}

func (s *ProfileStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds profile by ID", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newProfile("alice")))

		found, err := s.store.FindByID(s.ctx, "alice")
		s.Require().NoError(err)
		s.Equal(id.UserID("alice"), found.ID)
		s.Equal(DefaultRoles(), found.Roles)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, "nobody")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate profile", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newProfile("bob")))
		err := s.store.Create(s.ctx, s.newProfile("bob"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("clones on read", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newProfile("carol")))

		found, err := s.store.FindByID(s.ctx, "carol")
		s.Require().NoError(err)
		found.Roles = append(found.Roles, id.RoleAdmin)

		again, err := s.store.FindByID(s.ctx, "carol")
		s.Require().NoError(err)
		s.False(again.HasRole(id.RoleAdmin), "caller mutation must not leak into the store")
	})
}

func (s *ProfileStoreSuite) TestRename() {
	s.Run("claims a free name and finds by it", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newProfile("alice")))
		s.Require().NoError(s.store.Rename(s.ctx, "alice", "Alice L"))

		found, err := s.store.FindByName(s.ctx, "alice l")
		s.Require().NoError(err)
		s.Equal(id.UserID("alice"), found.ID)
	})

	s.Run("rejects a taken name case-insensitively", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newProfile("bob")))
		s.Require().NoError(s.store.Create(s.ctx, s.newProfile("carol")))
		s.Require().NoError(s.store.Rename(s.ctx, "bob", "Shared Name"))

		err := s.store.Rename(s.ctx, "carol", "SHARED NAME")
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("renaming to the held name succeeds", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newProfile("dave")))
		s.Require().NoError(s.store.Rename(s.ctx, "dave", "Dave"))
		s.Require().NoError(s.store.Rename(s.ctx, "dave", "Dave"))
	})

	s.Run("releases the previous name", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newProfile("erin")))
		s.Require().NoError(s.store.Create(s.ctx, s.newProfile("frank")))
		s.Require().NoError(s.store.Rename(s.ctx, "erin", "First"))
		s.Require().NoError(s.store.Rename(s.ctx, "erin", "Second"))

		s.Require().NoError(s.store.Rename(s.ctx, "frank", "First"))
	})

	s.Run("returns ErrNotFound for unknown profile", func() {
		err := s.store.Rename(s.ctx, "nobody", "Ghost")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ProfileStoreSuite) TestAppends() {
	s.Run("appends record IDs in order", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newProfile("alice")))
		s.Require().NoError(s.store.AppendRecordID(s.ctx, "alice", "rec-1"))
		s.Require().NoError(s.store.AppendRecordID(s.ctx, "alice", "rec-2"))

		found, err := s.store.FindByID(s.ctx, "alice")
		s.Require().NoError(err)
		s.Equal([]id.RecordID{"rec-1", "rec-2"}, found.Records)
	})

	s.Run("appends audit pointers in order", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newProfile("bob")))
		s.Require().NoError(s.store.AppendAuditPointer(s.ctx, "bob", 1))
		s.Require().NoError(s.store.AppendAuditPointer(s.ctx, "bob", 2))

		found, err := s.store.FindByID(s.ctx, "bob")
		s.Require().NoError(err)
		s.Equal([]id.LogID{1, 2}, found.AuditLog)
	})

	s.Run("append to unknown profile returns ErrNotFound", func() {
		s.Require().ErrorIs(s.store.AppendRecordID(s.ctx, "nobody", "rec"), sentinel.ErrNotFound)
		s.Require().ErrorIs(s.store.AppendAuditPointer(s.ctx, "nobody", 1), sentinel.ErrNotFound)
	})
}

func (s *ProfileStoreSuite) TestExecute() {
	s.Run("validate failure leaves profile untouched", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newProfile("alice")))

		_, err := s.store.Execute(s.ctx, "alice",
			func(p *UserProfile) error { return sentinel.ErrInvalidState },
			func(p *UserProfile) { p.Tier = id.TierVerified },
		)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)

		found, err := s.store.FindByID(s.ctx, "alice")
		s.Require().NoError(err)
		s.Equal(id.TierBasic, found.Tier)
	})

	s.Run("mutation is persisted and returned", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newProfile("bob")))

		updated, err := s.store.Execute(s.ctx, "bob", nil, func(p *UserProfile) {
			p.Tier = id.TierVerified
		})
		s.Require().NoError(err)
		s.Equal(id.TierVerified, updated.Tier)

		found, err := s.store.FindByID(s.ctx, "bob")
		s.Require().NoError(err)
		s.Equal(id.TierVerified, found.Tier)
	})
}
