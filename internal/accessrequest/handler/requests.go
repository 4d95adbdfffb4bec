package handler

import (
	"strings"

	dErrors "healthchain/pkg/domain-errors"
)

// CreateRequest is the HTTP request body for POST /records/{recordID}/requests.
type CreateRequest struct {
	Message string `json:"message"`
}

// Validate validates the request. The message is optional context for the
// owner.
func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Message = strings.TrimSpace(r.Message)
	if len(r.Message) > 500 {
		return dErrors.New(dErrors.CodeValidation, "message must be at most 500 characters")
	}
	return nil
}
