package models

import "time"

// EmailVerificationToken and PasswordResetToken share the same shape but live
// in separate tables so the two purposes can never redeem each other's tokens.
// Tokens are keyed by email rather than user id, and are consumed by deletion;
// Used exists so a redeemed-but-not-yet-deleted row can never validate twice.

type EmailVerificationToken struct {
	BaseModel

	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	Email     string    `gorm:"index;not null" json:"email"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	Used      bool      `gorm:"default:false" json:"used"`
}

func (EmailVerificationToken) TableName() string { return "email_verification_tokens" }

type PasswordResetToken struct {
	BaseModel

	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	Email     string    `gorm:"index;not null" json:"email"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	Used      bool      `gorm:"default:false" json:"used"`
}

func (PasswordResetToken) TableName() string { return "password_reset_tokens" }
