// Package identity implements the tiered request-identity escalation chain:
// Basic (a valid token), RoleAware (Basic plus a fresh read of the user's
// role and profile), Admin (RoleAware narrowed to the admin role).
package identity

import (
	"context"
	"strings"
)

// Role is a user capability level.
type Role string

// Known roles.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole normalises a stored role string. Unknown values degrade to
// RoleUser, never escalate.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// Basic is proof of a valid token only.
type Basic struct {
	UserID int64
}

// RoleAware is Basic plus the user's current role and profile, read from
// the store on every request.
type RoleAware struct {
	UserID int64
	Role   Role
	Email  string
	Name   string
}

// IsAdmin reports whether the identity carries the admin role.
func (u RoleAware) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Admin is a RoleAware identity narrowed to role = admin.
type Admin struct {
	Email string
	Name  string
}

// Profile is the per-request user snapshot read by the RoleAware tier.
type Profile struct {
	Name  string
	Email string
	Role  string
}

// Directory looks up the current user profile by id. Implementations must
// read live state; the chain relies on role changes taking effect on the
// very next request.
type Directory interface {
	FindProfile(ctx context.Context, userID int64) (*Profile, error)
}
