package models

import "github.com/google/uuid"

type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleVendor, RoleAdmin:
		return true
	default:
		return false
	}
}

// Principal is the caller identity handed to every lifecycle operation. It is
// trusted as given; credential checks happen before it is built.
type Principal struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsVendor() bool {
	return p.Role == RoleVendor
}

func (p Principal) Is(id uuid.UUID) bool {
	return p.ID != uuid.Nil && p.ID == id
}
