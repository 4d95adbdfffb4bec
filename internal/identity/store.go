package identity

import (
	"context"

	id "healthchain/pkg/domain"
)

// Store persists user profiles and the display-name index. Implementations
// must keep the two consistent: a set name resolves back to exactly the
// profile that holds it.
type Store interface {
	// Create persists a new profile. Returns sentinel.ErrConflict when the
	// principal already has one.
	Create(ctx context.Context, profile *UserProfile) error

	// FindByID returns a copy of the profile, or sentinel.ErrNotFound.
	FindByID(ctx context.Context, userID id.UserID) (*UserProfile, error)

	// FindByName resolves a display name, or sentinel.ErrNotFound.
	FindByName(ctx context.Context, name string) (*UserProfile, error)

	// Rename atomically releases the profile's old name, claims the new one,
	// and updates the profile. Returns sentinel.ErrAlreadyUsed when another
	// profile holds the name, sentinel.ErrNotFound for an unknown principal.
	Rename(ctx context.Context, userID id.UserID, newName string) error

	// Execute runs validate then mutate on the profile under the store lock,
	// returning a copy of the mutated profile. Validation failures abort
	// without mutating.
	Execute(ctx context.Context, userID id.UserID,
		validate func(*UserProfile) error,
		mutate func(*UserProfile)) (*UserProfile, error)

	// AppendRecordID appends a record identifier to the profile's owned list.
	AppendRecordID(ctx context.Context, userID id.UserID, recordID id.RecordID) error

	// AppendAuditPointer appends a log pointer to the profile's audit list.
	AppendAuditPointer(ctx context.Context, actor id.UserID, logID id.LogID) error
}
