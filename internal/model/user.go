package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role tags carried by users and principals.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an account that owns settings, clients and invoices.
type User struct {
	ID           uuid.UUID                   `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string                      `json:"name" gorm:"size:255;not null"`
	Email        string                      `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string                      `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Roles        datatypes.JSONSlice[string] `json:"roles"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasRole reports whether the user carries the given role tag.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
