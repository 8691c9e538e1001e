package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testutil "github.com/edulend/edulend/internal/database/testutil"
	"github.com/edulend/edulend/internal/models"
	"github.com/edulend/edulend/internal/services"
)

func TestCleanerRunOnceSweepsExpiredTokens(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2025, 2, 10, 15, 0, 0, 0, time.UTC)

	expiredReset := models.PasswordResetToken{
		Token:     "expired-reset",
		Email:     "expired@example.com",
		ExpiresAt: now.Add(-time.Hour),
	}
	activeReset := models.PasswordResetToken{
		Token:     "active-reset",
		Email:     "active@example.com",
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, db.Create(&expiredReset).Error)
	require.NoError(t, db.Create(&activeReset).Error)

	expiredVerification := models.EmailVerificationToken{
		Token:     "expired-verify",
		Email:     "expired@example.com",
		ExpiresAt: now.Add(-time.Hour),
	}
	require.NoError(t, db.Create(&expiredVerification).Error)

	tokens, err := services.NewTokenService(db, nil, services.WithTokenClock(func() time.Time { return now }))
	require.NoError(t, err)

	cleaner := NewCleaner(db, tokens, WithNow(func() time.Time { return now }))
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var resets, verifications int64
	require.NoError(t, db.Model(&models.PasswordResetToken{}).Count(&resets).Error)
	require.NoError(t, db.Model(&models.EmailVerificationToken{}).Count(&verifications).Error)
	require.EqualValues(t, 1, resets)
	require.Zero(t, verifications)
}

func TestCleanerRemovesOrphanedApplications(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	student := models.Student{Name: "Asha", Email: "asha@example.com", PAN: "ABCDE1234F"}
	require.NoError(t, db.Create(&student).Error)

	university := models.University{Name: "Example University", Country: "US"}
	require.NoError(t, db.Create(&university).Error)

	owned := models.LoanApplication{StudentID: student.ID, UniversityID: university.ID, Amount: 10000, Status: models.ApplicationPending}
	orphan := models.LoanApplication{StudentID: "missing-student", UniversityID: university.ID, Amount: 5000, Status: models.ApplicationPending}
	require.NoError(t, db.Create(&owned).Error)
	require.NoError(t, db.Create(&orphan).Error)

	cleaner := NewCleaner(db, nil)
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var remaining []models.LoanApplication
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, owned.ID, remaining[0].ID)
}
