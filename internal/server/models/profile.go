package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile is one row of the profiles table. Role and MembershipActive are
// privileged: they are never written by the owner's upserts.
type Profile struct {
	ID               string
	FullName         *string
	Username         *string
	Email            *string
	AvatarText       *string
	AvatarColor      *string
	Role             string
	MembershipActive bool
	UpdatedAt        time.Time
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
