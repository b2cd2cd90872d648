package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a row of the profiles table. Role drives every capability check.
type User struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Username    string    `db:"username" json:"username" validate:"required,min=3,max=40"`
	FullName    string    `db:"fullname" json:"fullname"`
	Email       string    `db:"email" json:"email" validate:"required,email"`
	Password    string    `db:"password" json:"password,omitempty" validate:"required,min=8"`
	Role        Role      `db:"role" json:"role"`
	Location    string    `db:"location" json:"location"`
	Bio         string    `db:"bio" json:"bio"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	AvatarURL   string    `db:"avatar_url" json:"avatar_url"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Principal returns the identity the lifecycle operations consume. An empty
// role falls back to a plain user.
func (u *User) Principal() Principal {
	role := u.Role
	if !ValidRole(role) {
		role = RoleUser
	}
	return Principal{ID: u.ID, Role: role}
}
