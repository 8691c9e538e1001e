package database

import (
	"testing"

	"gorm.io/gorm"

	"github.com/edulend/edulend/internal/models"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)

	if err := db.Exec("SELECT 1").Error; err != nil {
		t.Fatalf("expected health query to succeed: %v", err)
	}
}

func TestAutoMigrateCreatesTokenTables(t *testing.T) {
	db := openTestDB(t)

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	for _, table := range []string{"users", "email_verification_tokens", "password_reset_tokens", "students", "universities", "loan_applications"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestSeedDataCreatesSuperAdmin(t *testing.T) {
	t.Setenv("EDULEND_SEED_ADMIN_EMAIL", "Root@EduLend.Test")
	t.Setenv("EDULEND_SEED_ADMIN_PASSWORD", "bootstrap-secret")

	db := openTestDB(t)
	if err := AutoMigrateAndSeed(db); err != nil {
		t.Fatalf("auto migrate and seed failed: %v", err)
	}

	var admin models.User
	if err := db.Where("email = ?", "root@edulend.test").Take(&admin).Error; err != nil {
		t.Fatalf("expected seeded super admin: %v", err)
	}
	if admin.Role != models.RoleSuperAdmin {
		t.Fatalf("expected super_admin role, got %s", admin.Role)
	}
	if !admin.EmailVerified {
		t.Fatal("expected seeded admin to be verified")
	}

	// Seeding twice must not duplicate the account.
	if err := SeedData(db); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one user, got %d", count)
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(Config{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}
