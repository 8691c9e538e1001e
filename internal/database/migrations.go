package database

import (
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/edulend/edulend/internal/models"
	"github.com/edulend/edulend/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.EmailVerificationToken{},
		&models.PasswordResetToken{},
		&models.Student{},
		&models.University{},
		&models.LoanApplication{},
	)
}

// SeedData provisions the initial super admin account when the corresponding
// environment variables are present. Registration can never produce a
// non-student role, so elevated accounts only enter the system here.
func SeedData(db *gorm.DB) error {
	email := strings.ToLower(strings.TrimSpace(os.Getenv("EDULEND_SEED_ADMIN_EMAIL")))
	password := os.Getenv("EDULEND_SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:          "Super Admin",
		Email:         email,
		Password:      hashed,
		Role:          models.RoleSuperAdmin,
		EmailVerified: true,
	}
	return db.Create(&admin).Error
}
