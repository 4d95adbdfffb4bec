package domain

import dErrors "healthchain/pkg/domain-errors"

// Role tags a capability on a profile. A profile may hold several roles at
// once; the default bundle grants all three non-admin roles.
//
// Usage: construct via ParseRole at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Role string

const (
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RoleResearcher Role = "researcher"
	RoleAdmin      Role = "admin"
)

// validRoles is the single source of truth for valid roles.
var validRoles = map[Role]bool{
	RolePatient:    true,
	RoleDoctor:     true,
	RoleResearcher: true,
	RoleAdmin:      true,
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// VerificationStatus tracks identity verification of a profile.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
	VerificationExpired  VerificationStatus = "expired"
)

// Tier reflects how much vetting a profile has been through.
type Tier string

const (
	TierBasic    Tier = "basic"
	TierVerified Tier = "verified"
)
