package helpers

import (
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/models"
)

// EnhancedClaims is the verified token plus the caller's profile. It is
// stored on the gin context by the auth middleware.
type EnhancedClaims struct {
	*CustomClaims
	Principal   models.Principal `json:"principal"`
	AccessToken string           `json:"-"`
	Username    string           `json:"username,omitempty"`
	Fullname    string           `json:"fullname,omitempty"`
	AvatarURL   string           `json:"avatar_url,omitempty"`
}

func (ec *EnhancedClaims) IsAdmin() bool {
	return ec.Principal.IsAdmin()
}

func (ec *EnhancedClaims) IsVendor() bool {
	return ec.Principal.IsVendor()
}

func (ec *EnhancedClaims) IsOwner(userID uuid.UUID) bool {
	return ec.Principal.Is(userID)
}

// TokenRole is the role a self-issued token claims, if it names one of ours.
// Supabase tokens carry "authenticated" here and yield false.
func (c *CustomClaims) TokenRole() (models.Role, bool) {
	role := models.Role(c.Role)
	return role, models.ValidRole(role)
}
