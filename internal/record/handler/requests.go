package handler

import (
	"strings"
	"time"

	"healthchain/internal/record"
	id "healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
)

// UploadRequest is the HTTP request body for POST /records.
type UploadRequest struct {
	ContentRef  string   `json:"content_ref"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Size        uint64   `json:"size"`
	ParentID    string   `json:"parent_id"`
	Tags        []string `json:"tags"`
	KeyEnvelope string   `json:"key_envelope"`

	parsedParentID id.RecordID
}

// Validate validates and parses the request.
func (r *UploadRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.ContentRef = strings.TrimSpace(r.ContentRef)
	if r.ContentRef == "" {
		return dErrors.New(dErrors.CodeValidation, "content_ref is required")
	}
	if r.ParentID != "" {
		parentID, err := id.ParseRecordID(r.ParentID)
		if err != nil {
			return err
		}
		r.parsedParentID = parentID
	}
	return nil
}

// ToInput converts the request into the service input.
func (r *UploadRequest) ToInput() record.UploadInput {
	return record.UploadInput{
		ContentRef:  r.ContentRef,
		Name:        r.Name,
		Type:        r.Type,
		Size:        r.Size,
		ParentID:    r.parsedParentID,
		Tags:        r.Tags,
		KeyEnvelope: r.KeyEnvelope,
	}
}

// CreateFolderRequest is the HTTP request body for POST /records/folders.
type CreateFolderRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`

	parsedParentID id.RecordID
}

// Validate validates and parses the request.
func (r *CreateFolderRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.ParentID != "" {
		parentID, err := id.ParseRecordID(r.ParentID)
		if err != nil {
			return err
		}
		r.parsedParentID = parentID
	}
	return nil
}

// ParsedParentID returns the validated parent folder identifier.
func (r *CreateFolderRequest) ParsedParentID() id.RecordID { return r.parsedParentID }

// PermissionBody is the wire shape of a permission set.
type PermissionBody struct {
	CanView    bool       `json:"can_view"`
	CanEdit    bool       `json:"can_edit"`
	CanShare   bool       `json:"can_share"`
	Anonymized bool       `json:"anonymized"`
	Expiry     *time.Time `json:"expiry,omitempty"`
}

// ToDomain converts the body into the domain permission.
func (p PermissionBody) ToDomain() record.Permission {
	return record.Permission{
		CanView:    p.CanView,
		CanEdit:    p.CanEdit,
		CanShare:   p.CanShare,
		Anonymized: p.Anonymized,
		Expiry:     p.Expiry,
	}
}

// GrantRequest is the HTTP request body for POST /records/{recordID}/grants.
type GrantRequest struct {
	Grantee    string         `json:"grantee"`
	Permission PermissionBody `json:"permission"`

	parsedGrantee id.UserID
}

// Validate validates and parses the request.
func (r *GrantRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	grantee, err := id.ParseUserID(strings.TrimSpace(r.Grantee))
	if err != nil {
		return err
	}
	r.parsedGrantee = grantee
	return nil
}

// ParsedGrantee returns the validated grantee principal.
func (r *GrantRequest) ParsedGrantee() id.UserID { return r.parsedGrantee }
