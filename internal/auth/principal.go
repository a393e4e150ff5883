package auth

import (
	"github.com/google/uuid"

	"invoicer/internal/model"
)

// Principal is the authenticated identity every domain operation acts for.
type Principal struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Roles []string  `json:"roles"`
}

// PrincipalFromUser builds the principal of a stored user.
func PrincipalFromUser(u *model.User) Principal {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)
	return Principal{ID: u.ID, Email: u.Email, Name: u.Name, Roles: roles}
}

// HasRole reports whether the principal carries the role tag.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal holds the administrative capability.
func (p Principal) IsAdmin() bool {
	return p.HasRole(model.RoleAdmin)
}
