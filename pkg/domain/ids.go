// Package domain holds identifier types and enums shared across modules.
// Keeping them here avoids import cycles between the per-domain packages.
package domain

import (
	"github.com/google/uuid"

	dErrors "healthchain/pkg/domain-errors"
)

// UserID is the opaque authenticated principal supplied by the platform per
// call. It is stable across calls, comparable, and usable as a map key. The
// engine never inspects its structure.
type UserID string

// AnonymousUser is the synthetic principal that research submissions grant
// view-only anonymized access to. It is never issued to a real caller.
const AnonymousUser UserID = "anonymous"

// ParseUserID validates an externally supplied principal.
func ParseUserID(s string) (UserID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user id cannot be empty")
	}
	return UserID(s), nil
}

func (u UserID) String() string { return string(u) }

// IsAnonymous reports whether the principal is the research pool principal.
func (u UserID) IsAnonymous() bool { return u == AnonymousUser }

// RecordID identifies a record or folder. Derived from the content reference
// plus the creation timestamp, so it is not content-addressed: callers must
// not assume two uploads of the same content collide.
type RecordID string

func ParseRecordID(s string) (RecordID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "record id cannot be empty")
	}
	return RecordID(s), nil
}

func (r RecordID) String() string { return string(r) }

// AccessRequestID identifies an access request.
type AccessRequestID uuid.UUID

func NewAccessRequestID() AccessRequestID { return AccessRequestID(uuid.New()) }

func ParseAccessRequestID(s string) (AccessRequestID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return AccessRequestID(uuid.Nil), dErrors.New(dErrors.CodeInvalidInput, "invalid request id")
	}
	return AccessRequestID(u), nil
}

func (r AccessRequestID) String() string { return uuid.UUID(r).String() }
func (r AccessRequestID) IsNil() bool    { return uuid.UUID(r) == uuid.Nil }

// LogID is the monotonic audit entry identifier. It doubles as the logical
// timestamp of the entry: the audit store guarantees strict increase.
type LogID uint64
