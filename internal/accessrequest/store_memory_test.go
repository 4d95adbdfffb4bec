package accessrequest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
	"healthchain/pkg/platform/sentinel"
)

type AccessRequestStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
}

func TestAccessRequestStoreSuite(t *testing.T) {
	suite.Run(t, new(AccessRequestStoreSuite))
}

func (s *AccessRequestStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *AccessRequestStoreSuite) newRequest(owner, requester id.UserID) *AccessRequest {
	return &AccessRequest{
		ID:          id.NewAccessRequestID(),
		RecordID:    id.RecordID("rec-1"),
		RecordName:  "scan.pdf",
		Requester:   requester,
		Owner:       owner,
		Status:      StatusPending,
		RequestedAt: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *AccessRequestStoreSuite) TestCreateAndFind() {
	s.Run("round-trips a request", func() {
		req := s.newRequest("alice", "bob")
		s.Require().NoError(s.store.Create(s.ctx, req))

		found, err := s.store.FindByID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(req, found)
	})

	s.Run("returns a copy, not store state", func() {
		req := s.newRequest("alice", "bob")
		s.Require().NoError(s.store.Create(s.ctx, req))

		found, err := s.store.FindByID(s.ctx, req.ID)
		s.Require().NoError(err)
		found.Status = StatusApproved

		again, err := s.store.FindByID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(StatusPending, again.Status)
	})

	s.Run("duplicate id conflicts", func() {
		req := s.newRequest("alice", "bob")
		s.Require().NoError(s.store.Create(s.ctx, req))
		s.ErrorIs(s.store.Create(s.ctx, req), sentinel.ErrConflict)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.FindByID(s.ctx, id.NewAccessRequestID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AccessRequestStoreSuite) TestExecute() {
	s.Run("validate failure leaves the request untouched", func() {
		req := s.newRequest("alice", "bob")
		s.Require().NoError(s.store.Create(s.ctx, req))

		_, err := s.store.Execute(s.ctx, req.ID,
			func(r *AccessRequest) error {
				return dErrors.New(dErrors.CodeConflict, "request already resolved")
			},
			func(r *AccessRequest) { r.Status = StatusApproved },
		)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		found, err := s.store.FindByID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(StatusPending, found.Status)
	})

	s.Run("mutation persists", func() {
		req := s.newRequest("alice", "bob")
		s.Require().NoError(s.store.Create(s.ctx, req))

		resolved := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
		updated, err := s.store.Execute(s.ctx, req.ID, nil, func(r *AccessRequest) {
			r.Status = StatusDenied
			r.ResolvedAt = &resolved
		})
		s.Require().NoError(err)
		s.Equal(StatusDenied, updated.Status)

		found, err := s.store.FindByID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(StatusDenied, found.Status)
		s.Require().NotNil(found.ResolvedAt)
		s.Equal(resolved, *found.ResolvedAt)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.Execute(s.ctx, id.NewAccessRequestID(), nil, func(r *AccessRequest) {})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AccessRequestStoreSuite) TestListings() {
	first := s.newRequest("alice", "bob")
	second := s.newRequest("alice", "carol")
	other := s.newRequest("dave", "bob")
	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.Create(s.ctx, second))
	s.Require().NoError(s.store.Create(s.ctx, other))

	s.Run("pending for owner, oldest first", func() {
		pending, err := s.store.ListPendingForOwner(s.ctx, "alice")
		s.Require().NoError(err)
		s.Require().Len(pending, 2)
		s.Equal(first.ID, pending[0].ID)
		s.Equal(second.ID, pending[1].ID)
	})

	s.Run("resolved requests drop out of the pending queue", func() {
		_, err := s.store.Execute(s.ctx, first.ID, nil, func(r *AccessRequest) {
			r.Status = StatusDenied
		})
		s.Require().NoError(err)

		pending, err := s.store.ListPendingForOwner(s.ctx, "alice")
		s.Require().NoError(err)
		s.Require().Len(pending, 1)
		s.Equal(second.ID, pending[0].ID)
	})

	s.Run("by requester includes resolved, oldest first", func() {
		sent, err := s.store.ListByRequester(s.ctx, "bob")
		s.Require().NoError(err)
		s.Require().Len(sent, 2)
		s.Equal(first.ID, sent[0].ID)
		s.Equal(other.ID, sent[1].ID)
	})

	s.Run("empty for an unseen principal", func() {
		pending, err := s.store.ListPendingForOwner(s.ctx, "nobody")
		s.Require().NoError(err)
		s.Empty(pending)
	})
}
