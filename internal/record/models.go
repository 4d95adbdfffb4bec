package record

import (
	"maps"
	"slices"
	"time"

	id "healthchain/pkg/domain"
)

// TypeFolder marks folder records. Folders are records with an empty content
// reference; children point at them through ParentID.
const TypeFolder = "folder"

// Permission is the capability set a grantee holds on one record. Expiry is
// advisory metadata for policy layers; nothing here enforces it.
type Permission struct {
	CanView    bool       `json:"can_view"`
	CanEdit    bool       `json:"can_edit"`
	CanShare   bool       `json:"can_share"`
	Anonymized bool       `json:"anonymized"`
	Expiry     *time.Time `json:"expiry,omitempty"`
}

// FullPermission is what an owner holds on their own record.
func FullPermission() Permission {
	return Permission{CanView: true, CanEdit: true, CanShare: true}
}

// ViewOnly is the conservative default granted on request approval.
func ViewOnly() Permission {
	return Permission{CanView: true}
}

// ResearchPermission is granted to the anonymous principal when a record is
// folded into the research pool.
func ResearchPermission() Permission {
	return Permission{CanView: true, Anonymized: true}
}

// Record is the shareable unit: a file or a folder. The owner never changes
// and no delete operation exists.
type Record struct {
	ID         id.RecordID
	Owner      id.UserID
	ContentRef string
	Name       string
	Type       string
	Size       uint64
	ParentID   id.RecordID // zero when the record sits at the root
	CreatedAt  time.Time

	// Access maps grantee to permission. The owner's full permission is
	// materialized at creation so permission checks are one uniform lookup.
	Access map[id.UserID]Permission

	// Tags and KeyEnvelope are stored verbatim and never interpreted: tags
	// belong to cataloguing layers, the envelope to whatever key
	// distribution scheme the client uses.
	Tags        []string
	KeyEnvelope string
}

// PermissionFor resolves the effective permission for a principal. The owner
// always holds full permission, even if the materialized entry was somehow
// lost.
func (r *Record) PermissionFor(user id.UserID) (Permission, bool) {
	if user == r.Owner {
		return FullPermission(), true
	}
	perm, ok := r.Access[user]
	return perm, ok
}

// Clone returns a deep copy so store internals never leak to callers.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Access = maps.Clone(r.Access)
	cp.Tags = slices.Clone(r.Tags)
	return &cp
}

// Info is a record enriched with directory data about its owner, as shown in
// a grantee's "shared with me" view. Enrichment is best effort: a missing
// owner profile yields an empty name and unverified status, never an error.
type Info struct {
	Record        *Record
	OwnerName     string
	OwnerVerified bool
}

// Stats is the owner dashboard aggregate.
type Stats struct {
	ActiveShareCount    uint64 `json:"active_share_count"`
	RecentActivityCount uint64 `json:"recent_activity_count"`
	TotalStorage        uint64 `json:"total_storage"`
}
