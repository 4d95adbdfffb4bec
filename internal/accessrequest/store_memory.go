package accessrequest

import (
	"context"
	"sync"

	id "healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
)

// Store persists access requests. Listing operations are linear scans; the
// request volume is owner-review-bound, so no secondary index is kept.
type Store interface {
	Create(ctx context.Context, req *AccessRequest) error
	FindByID(ctx context.Context, requestID id.AccessRequestID) (*AccessRequest, error)

	// Execute runs validate then mutate on the request under the store lock.
	Execute(ctx context.Context, requestID id.AccessRequestID,
		validate func(*AccessRequest) error,
		mutate func(*AccessRequest)) (*AccessRequest, error)

	// ListPendingForOwner returns pending requests addressed to the owner,
	// oldest first.
	ListPendingForOwner(ctx context.Context, owner id.UserID) ([]*AccessRequest, error)

	// ListByRequester returns all requests the requester has sent, oldest
	// first.
	ListByRequester(ctx context.Context, requester id.UserID) ([]*AccessRequest, error)
}

// InMemory keeps requests in process memory, in arrival order.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.AccessRequestID]*AccessRequest
	order    []id.AccessRequestID
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.AccessRequestID]*AccessRequest)}
}

func (s *InMemory) Create(_ context.Context, req *AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; ok {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = req.Clone()
	s.order = append(s.order, req.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.AccessRequestID) (*AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return req.Clone(), nil
}

func (s *InMemory) Execute(_ context.Context, requestID id.AccessRequestID,
	validate func(*AccessRequest) error,
	mutate func(*AccessRequest)) (*AccessRequest, error) {

	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(req); err != nil {
			return nil, err
		}
	}
	mutate(req)
	return req.Clone(), nil
}

func (s *InMemory) ListPendingForOwner(_ context.Context, owner id.UserID) ([]*AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*AccessRequest
	for _, requestID := range s.order {
		req := s.requests[requestID]
		if req.Owner == owner && req.Status == StatusPending {
			out = append(out, req.Clone())
		}
	}
	return out, nil
}

func (s *InMemory) ListByRequester(_ context.Context, requester id.UserID) ([]*AccessRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*AccessRequest
	for _, requestID := range s.order {
		req := s.requests[requestID]
		if req.Requester == requester {
			out = append(out, req.Clone())
		}
	}
	return out, nil
}
