package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles assigned to platform users. Self-registration always produces a
// student; the elevated roles are granted by seeding or admin tooling only.
const (
	RoleStudent    = "student"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// ValidRole reports whether the supplied role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User is the single identity record shared by the password and Google
// sign-in paths. Password is empty for accounts created purely via Google.
type User struct {
	ID    string `gorm:"primaryKey;type:uuid" json:"id"`
	Name  string `json:"name"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`

	Password string `json:"-"`
	Role     string `gorm:"not null;default:student" json:"role"`

	GoogleID string `gorm:"index" json:"-"`
	Picture  string `json:"picture"`

	EmailVerified   bool       `gorm:"default:false" json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`

	IsBlocked bool `gorm:"default:false" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleStudent
	}
	return nil
}

// HasPassword reports whether the account can authenticate with a password.
func (u *User) HasPassword() bool {
	return u.Password != ""
}
