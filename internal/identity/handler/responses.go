package handler

import (
	"encoding/json"
	"time"

	"healthchain/internal/audit"
	"healthchain/internal/identity"
	id "healthchain/pkg/domain"
)

// ProfileResponse is the HTTP response body for profile endpoints.
type ProfileResponse struct {
	ID           id.UserID            `json:"id"`
	Name         string               `json:"name"`
	CreatedAt    time.Time            `json:"created_at"`
	Roles        []id.Role            `json:"roles"`
	Records      []id.RecordID        `json:"records"`
	Verification VerificationResponse `json:"verification"`
	Tier         id.Tier              `json:"tier"`
	Settings     json.RawMessage      `json:"settings,omitempty"`
}

// VerificationResponse mirrors the profile's verification state.
type VerificationResponse struct {
	Status      id.VerificationStatus `json:"status"`
	EvidenceRef string                `json:"evidence_ref,omitempty"`
	SubmittedAt *time.Time            `json:"submitted_at,omitempty"`
}

// FromProfile converts a domain profile into its response shape.
func FromProfile(p *identity.UserProfile) ProfileResponse {
	resp := ProfileResponse{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		Roles:     p.Roles,
		Records:   p.Records,
		Tier:      p.Tier,
		Settings:  p.Settings,
		Verification: VerificationResponse{
			Status:      p.Verification.Status,
			EvidenceRef: p.Verification.EvidenceRef,
		},
	}
	if !p.Verification.SubmittedAt.IsZero() {
		t := p.Verification.SubmittedAt
		resp.Verification.SubmittedAt = &t
	}
	return resp
}

// AuditLogResponse is the HTTP response body for GET /audit.
type AuditLogResponse struct {
	Entries []audit.Entry `json:"entries"`
}
