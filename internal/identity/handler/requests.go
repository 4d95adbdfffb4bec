package handler

import (
	"encoding/json"
	"strings"

	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
)

// RenameRequest is the HTTP request body for PUT /profile/name.
type RenameRequest struct {
	Name string `json:"name"`
}

// Validate validates the request.
func (r *RenameRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 100 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 100 characters")
	}
	return nil
}

// AddRoleRequest is the HTTP request body for POST /profile/roles.
type AddRoleRequest struct {
	Role string `json:"role"`

	parsedRole id.Role
}

// Validate validates and parses the request.
func (r *AddRoleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	role, err := id.ParseRole(strings.TrimSpace(r.Role))
	if err != nil {
		return err
	}
	r.parsedRole = role
	return nil
}

// ParsedRole returns the validated role.
func (r *AddRoleRequest) ParsedRole() id.Role { return r.parsedRole }

// SubmitVerificationRequest is the HTTP request body for POST /profile/verification.
type SubmitVerificationRequest struct {
	EvidenceRef string `json:"evidence_ref"`
}

// Validate validates the request.
func (r *SubmitVerificationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.EvidenceRef = strings.TrimSpace(r.EvidenceRef)
	if r.EvidenceRef == "" {
		return dErrors.New(dErrors.CodeValidation, "evidence_ref is required")
	}
	return nil
}

// TargetUserRequest is the HTTP request body for the admin endpoints that
// act on another principal.
type TargetUserRequest struct {
	UserID string `json:"user_id"`

	parsedUserID id.UserID
}

// Validate validates and parses the request.
func (r *TargetUserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	userID, err := id.ParseUserID(strings.TrimSpace(r.UserID))
	if err != nil {
		return err
	}
	r.parsedUserID = userID
	return nil
}

// ParsedUserID returns the validated target principal.
func (r *TargetUserRequest) ParsedUserID() id.UserID { return r.parsedUserID }

// UpdateSettingsRequest is the HTTP request body for POST /profile.
type UpdateSettingsRequest struct {
	Settings json.RawMessage `json:"settings"`
}

// Validate validates the request.
func (r *UpdateSettingsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Settings) == 0 {
		return dErrors.New(dErrors.CodeValidation, "settings is required")
	}
	return nil
}
