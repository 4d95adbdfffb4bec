package record

import (
	"context"

	id "healthchain/pkg/domain"
)

// Store persists records and their access lists.
type Store interface {
	// Create persists a new record. Returns sentinel.ErrConflict when the
	// identifier is already taken.
	Create(ctx context.Context, rec *Record) error

	// FindByID returns a copy of the record, or sentinel.ErrNotFound.
	FindByID(ctx context.Context, recordID id.RecordID) (*Record, error)

	// SetPermission inserts or overwrites the grantee's entry. A grant is a
	// full replace, never a merge with a previous permission.
	SetPermission(ctx context.Context, recordID id.RecordID, grantee id.UserID, perm Permission) error

	// RemovePermission deletes the grantee's entry. Removing an absent
	// grantee is not an error.
	RemovePermission(ctx context.Context, recordID id.RecordID, grantee id.UserID) error
}

// SharedIndex is the inverted map from grantee to the records shared with
// them. The consistency contract with access lists: a non-owner grantee is in
// a record's access list iff the record is in the grantee's index entry.
type SharedIndex interface {
	// Add appends recordID to the grantee's entry; duplicates are ignored.
	Add(ctx context.Context, grantee id.UserID, recordID id.RecordID) error

	// Remove deletes recordID from the grantee's entry; absence is not an
	// error.
	Remove(ctx context.Context, grantee id.UserID, recordID id.RecordID) error

	// List returns the grantee's record identifiers in grant order.
	List(ctx context.Context, grantee id.UserID) ([]id.RecordID, error)
}
