package accessrequest

import (
	"time"

	id "healthchain/pkg/domain"
)

// Status is the request state machine: Pending is the only non-terminal
// state, and a request is resolved exactly once.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// AccessRequest is a non-owner's petition for access to a record. Owner,
// requester, and record name are snapshots taken at creation, not live
// references: the approval check compares against the snapshot, so an owner
// change after creation (impossible today, records never change owner) or a
// forged request fails closed.
type AccessRequest struct {
	ID            id.AccessRequestID
	RecordID      id.RecordID
	RecordName    string
	Requester     id.UserID
	RequesterName string
	Owner         id.UserID
	Status        Status
	Message       string
	RequestedAt   time.Time
	ResolvedAt    *time.Time
}

// Clone returns a copy so store internals never leak to callers.
func (r *AccessRequest) Clone() *AccessRequest {
	cp := *r
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		cp.ResolvedAt = &t
	}
	return &cp
}
