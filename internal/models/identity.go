// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package models

// Valid principal roles.
//
// Role hierarchy (enforced by the Casbin policy):
//   - member: default, read access to own content
//   - organizer: event management and ticket scanning, inherits member
//   - admin: full access, inherits organizer
const (
	RoleMember    = "member"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// IsValidRole reports whether the given role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RoleMember, RoleOrganizer, RoleAdmin:
		return true
	default:
		return false
	}
}

// Principal is the persisted account record loaded by the credential
// resolver. It is the store-side counterpart of Identity.
type Principal struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Blocked   bool   `json:"blocked"`
	Confirmed bool   `json:"confirmed"`
}

// Identity represents the authenticated actor of one request.
//
// An Identity is resolved from a verified credential, attached to the request
// context, and never mutated afterwards. It is never persisted by this core.
type Identity struct {
	// ID is the unique principal identifier (the JWT 'sub' claim).
	ID string `json:"id"`

	// Username is the human-readable name, for logging and scan payloads.
	Username string `json:"username"`

	// Role is the principal's assigned role (member, organizer, admin).
	Role string `json:"role"`

	// Blocked marks accounts that are locked out. A blocked principal
	// resolves to no identity at the credential resolver; the flag is kept
	// here for guards that receive an identity from another source.
	Blocked bool `json:"blocked"`

	// Confirmed marks accounts that completed verification. Unconfirmed
	// identities pass the gate but fail the authentication guard.
	Confirmed bool `json:"confirmed"`
}

// IdentityFromPrincipal canonicalizes a stored principal into the
// request-scoped Identity.
func IdentityFromPrincipal(p *Principal) *Identity {
	if p == nil {
		return nil
	}
	return &Identity{
		ID:        p.ID,
		Username:  p.Username,
		Role:      p.Role,
		Blocked:   p.Blocked,
		Confirmed: p.Confirmed,
	}
}

// HasRole reports whether the identity carries the given role.
func (i *Identity) HasRole(role string) bool {
	return role != "" && i.Role == role
}
