package handler

import (
	"time"

	"healthchain/internal/accessrequest"
	id "healthchain/pkg/domain"
)

// CreatedResponse carries the identifier of a newly filed request.
type CreatedResponse struct {
	ID string `json:"id"`
}

// RequestResponse is the wire shape of one access request.
type RequestResponse struct {
	ID            string               `json:"id"`
	RecordID      id.RecordID          `json:"record_id"`
	RecordName    string               `json:"record_name"`
	Requester     id.UserID            `json:"requester"`
	RequesterName string               `json:"requester_name"`
	Owner         id.UserID            `json:"owner"`
	Status        accessrequest.Status `json:"status"`
	Message       string               `json:"message,omitempty"`
	RequestedAt   time.Time            `json:"requested_at"`
	ResolvedAt    *time.Time           `json:"resolved_at,omitempty"`
}

// FromRequests converts access requests into their response shape.
func FromRequests(requests []*accessrequest.AccessRequest) []RequestResponse {
	out := make([]RequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, RequestResponse{
			ID:            req.ID.String(),
			RecordID:      req.RecordID,
			RecordName:    req.RecordName,
			Requester:     req.Requester,
			RequesterName: req.RequesterName,
			Owner:         req.Owner,
			Status:        req.Status,
			Message:       req.Message,
			RequestedAt:   req.RequestedAt,
			ResolvedAt:    req.ResolvedAt,
		})
	}
	return out
}
