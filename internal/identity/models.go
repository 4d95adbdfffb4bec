package identity

import (
	"encoding/json"
	"slices"
	"time"

	id "healthchain/pkg/domain"
)

// UserProfile is the per-principal directory entry. Profiles are created
// lazily on first authenticated call and never deleted. Fields are additive
// only: role and verification extensions must not break stored profiles.
type UserProfile struct {
	ID        id.UserID
	Name      string
	CreatedAt time.Time
	Roles     []id.Role

	// Records and AuditLog are ordered append-only lists of identifiers
	// owned by, respectively, the record store and the audit trail.
	Records  []id.RecordID
	AuditLog []id.LogID

	Verification VerificationState
	Tier         id.Tier

	// Settings is a free-form blob the engine stores but does not interpret.
	Settings json.RawMessage
}

// VerificationState tracks identity verification. EvidenceRef is an opaque
// reference to externally stored evidence.
type VerificationState struct {
	Status      id.VerificationStatus
	EvidenceRef string
	SubmittedAt time.Time
}

// HasRole reports whether the profile carries the given role.
func (p *UserProfile) HasRole(role id.Role) bool {
	return slices.Contains(p.Roles, role)
}

// IsAdmin reports whether the profile carries the admin role.
func (p *UserProfile) IsAdmin() bool { return p.HasRole(id.RoleAdmin) }

// Clone returns a deep copy so store internals never leak to callers.
func (p *UserProfile) Clone() *UserProfile {
	cp := *p
	cp.Roles = slices.Clone(p.Roles)
	cp.Records = slices.Clone(p.Records)
	cp.AuditLog = slices.Clone(p.AuditLog)
	cp.Settings = slices.Clone(p.Settings)
	return &cp
}

// DefaultRoles is the bundle every new profile receives. Admin is reserved
// for the bootstrap principal.
func DefaultRoles() []id.Role {
	return []id.Role{id.RolePatient, id.RoleDoctor, id.RoleResearcher}
}
