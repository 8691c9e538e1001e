package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edulend/edulend/internal/auth"
	"github.com/edulend/edulend/internal/auth/providers"
	"github.com/edulend/edulend/internal/models"
	apperrors "github.com/edulend/edulend/pkg/errors"
)

func TestRegisterAndVerifyLifecycle(t *testing.T) {
	svc, notifier, db := newAccountTestService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Asha Verma",
		Email:    "Asha@Example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)
	require.Equal(t, "asha@example.com", user.Email)
	require.Equal(t, models.RoleStudent, user.Role)
	require.False(t, user.EmailVerified)
	require.NotEqual(t, "s3cretpass", user.Password)

	// The verify-email gate blocks password login until the token is redeemed.
	_, _, err = svc.Login(context.Background(), "asha@example.com", "s3cretpass")
	require.ErrorIs(t, err, apperrors.ErrEmailNotVerified)

	verified, session, err := svc.VerifyEmail(context.Background(), notifier.last)
	require.NoError(t, err)
	require.True(t, verified.EmailVerified)
	require.NotNil(t, verified.EmailVerifiedAt)
	require.NotEmpty(t, session)

	loggedIn, session, err := svc.Login(context.Background(), "asha@example.com", "s3cretpass")
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)
	require.NotEmpty(t, session)

	// Consumed tokens cannot verify twice.
	_, _, err = svc.VerifyEmail(context.Background(), notifier.last)
	require.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	var count int64
	require.NoError(t, db.Model(&models.EmailVerificationToken{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAccountTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "First", Email: "dupe@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Name: "Second", Email: "DUPE@example.com", Password: "password2"})
	require.ErrorIs(t, err, apperrors.ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, notifier, _ := newAccountTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	_, _, err = svc.VerifyEmail(context.Background(), notifier.last)
	require.NoError(t, err)

	// Unknown email and wrong password are indistinguishable to the caller.
	_, _, err = svc.Login(context.Background(), "nobody@example.com", "s3cretpass")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "asha@example.com", "wrongpass")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestGoogleLoginIsIdempotent(t *testing.T) {
	svc, _, _ := newAccountTestService(t)

	identity := providers.Identity{
		Subject: "google-sub-1",
		Email:   "asha@example.com",
		Name:    "Asha Verma",
		Picture: "https://lh3.example/p.jpg",
	}

	first, session, err := svc.LoginOrLinkWithGoogle(context.Background(), identity)
	require.NoError(t, err)
	require.NotEmpty(t, session)
	require.True(t, first.EmailVerified)
	require.Equal(t, "google-sub-1", first.GoogleID)
	require.Equal(t, models.RoleStudent, first.Role)

	second, _, err := svc.LoginOrLinkWithGoogle(context.Background(), identity)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestGoogleLinksExistingPasswordAccount(t *testing.T) {
	svc, notifier, db := newAccountTestService(t)

	user, err := svc.Register(context.Background(), RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	_, _, err = svc.VerifyEmail(context.Background(), notifier.last)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("role", models.RoleAdmin).Error)

	linked, _, err := svc.LoginOrLinkWithGoogle(context.Background(), providers.Identity{
		Subject: "google-sub-1",
		Email:   "asha@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, user.ID, linked.ID)
	require.Equal(t, "google-sub-1", linked.GoogleID)
	// Linking never moves the role.
	require.Equal(t, models.RoleAdmin, linked.Role)
}

func TestGoogleNeverOverwritesForeignSubject(t *testing.T) {
	svc, _, _ := newAccountTestService(t)

	first, _, err := svc.LoginOrLinkWithGoogle(context.Background(), providers.Identity{
		Subject: "google-sub-1",
		Email:   "asha@example.com",
	})
	require.NoError(t, err)

	again, _, err := svc.LoginOrLinkWithGoogle(context.Background(), providers.Identity{
		Subject: "google-sub-2",
		Email:   "asha@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, "google-sub-1", again.GoogleID)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, notifier, _ := newAccountTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "oldpassword"})
	require.NoError(t, err)
	_, _, err = svc.VerifyEmail(context.Background(), notifier.last)
	require.NoError(t, err)

	require.ErrorIs(t, svc.ForgotPassword(context.Background(), "missing@example.com"), apperrors.ErrEmailNotFound)
	require.NoError(t, svc.ForgotPassword(context.Background(), "asha@example.com"))

	resetToken := notifier.last
	require.NoError(t, svc.ResetPassword(context.Background(), resetToken, "newpassword"))

	_, _, err = svc.Login(context.Background(), "asha@example.com", "oldpassword")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "asha@example.com", "newpassword")
	require.NoError(t, err)

	// Single use.
	err = svc.ResetPassword(context.Background(), resetToken, "anotherpass")
	require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestResendVerificationIsSilent(t *testing.T) {
	svc, notifier, _ := newAccountTestService(t)

	// Unknown accounts get the same answer as real ones.
	require.NoError(t, svc.ResendVerification(context.Background(), "missing@example.com"))
	require.Empty(t, notifier.sent)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	firstToken := notifier.last

	require.NoError(t, svc.ResendVerification(context.Background(), "asha@example.com"))
	require.NotEqual(t, firstToken, notifier.last)

	// The reissued token supersedes the first.
	_, _, err = svc.VerifyEmail(context.Background(), firstToken)
	require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	_, _, err = svc.VerifyEmail(context.Background(), notifier.last)
	require.NoError(t, err)

	// Already verified accounts are left alone.
	before := len(notifier.sent)
	require.NoError(t, svc.ResendVerification(context.Background(), "asha@example.com"))
	require.Len(t, notifier.sent, before)
}

func TestFederatedOnlyAccountCannotPasswordLogin(t *testing.T) {
	svc, _, _ := newAccountTestService(t)

	_, _, err := svc.LoginOrLinkWithGoogle(context.Background(), providers.Identity{
		Subject: "google-sub-1",
		Email:   "asha@example.com",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "asha@example.com", "anything")
	require.ErrorIs(t, err, apperrors.ErrFederatedOnly)
}

func TestDeleteAccountRequiresExactConfirmation(t *testing.T) {
	svc, notifier, db := newAccountTestService(t)

	user, err := svc.Register(context.Background(), RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	_, _, err = svc.VerifyEmail(context.Background(), notifier.last)
	require.NoError(t, err)

	err = svc.DeleteAccount(context.Background(), user.ID, "asha@example.com", "asha@example.com-DELETE")
	require.ErrorIs(t, err, apperrors.ErrConfirmationMismatch)

	err = svc.DeleteAccount(context.Background(), user.ID, "other@example.com", "asha@example.com-delete")
	require.ErrorIs(t, err, apperrors.ErrConfirmationMismatch)

	// Leave a live reset token behind to prove the purge covers both tables.
	require.NoError(t, svc.ForgotPassword(context.Background(), "asha@example.com"))

	require.NoError(t, svc.DeleteAccount(context.Background(), user.ID, "asha@example.com", "asha@example.com-delete"))

	_, err = svc.GetUser(context.Background(), user.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	var resets int64
	require.NoError(t, db.Model(&models.PasswordResetToken{}).Count(&resets).Error)
	require.Zero(t, resets)
}

func newAccountTestService(t *testing.T) (*AccountService, *captureNotifier, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.EmailVerificationToken{},
		&models.PasswordResetToken{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret-test-secret-test-1234", SessionTTL: time.Hour})
	require.NoError(t, err)

	notifier := &captureNotifier{}
	tokens, err := NewTokenService(db, notifier)
	require.NoError(t, err)

	svc, err := NewAccountService(db, jwtSvc, tokens)
	require.NoError(t, err)

	return svc, notifier, db
}

func TestLoginRejectsBlockedAccount(t *testing.T) {
	svc, notifier, db := newAccountTestService(t)

	user, err := svc.Register(context.Background(), RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	_, _, err = svc.VerifyEmail(context.Background(), notifier.last)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_blocked", true).Error)

	_, _, err = svc.Login(context.Background(), "asha@example.com", "s3cretpass")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, _, err = svc.LoginOrLinkWithGoogle(context.Background(), providers.Identity{
		Subject: "google-sub-1",
		Email:   "asha@example.com",
	})
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestResendVerificationSwallowsDeliveryFailure(t *testing.T) {
	svc, notifier, db := newAccountTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	first := notifier.last

	// Delivery failure must not change the answer; unknown emails get the
	// same 200 and no error either way.
	notifier.fail = true
	require.NoError(t, svc.ResendVerification(context.Background(), "asha@example.com"))
	require.NoError(t, svc.ResendVerification(context.Background(), "missing@example.com"))

	// The reissued token is persisted despite the failed send and stays
	// redeemable once recovered out of band.
	var row models.EmailVerificationToken
	require.NoError(t, db.Take(&row).Error)
	require.NotEqual(t, first, row.Token)

	_, _, err = svc.VerifyEmail(context.Background(), row.Token)
	require.NoError(t, err)
}

func TestRegisterMapsUniqueViolation(t *testing.T) {
	svc, _, db := newAccountTestService(t)

	// Squeeze a competing signup into the create transaction after the
	// existence pre-check has already passed.
	inserted := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("competing_signup", func(tx *gorm.DB) {
		if inserted || tx.Statement.Table != "users" {
			return
		}
		inserted = true
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO users (id, name, email, password, role) VALUES (?, ?, ?, ?, ?)",
			uuid.NewString(), "First", "dupe@example.com", "", models.RoleStudent,
		).Error)
	}))

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Second", Email: "dupe@example.com", Password: "password2"})
	require.ErrorIs(t, err, apperrors.ErrEmailTaken)
	require.True(t, inserted)
}

func TestGoogleSignupCollisionFallsToLink(t *testing.T) {
	// A named shared-memory database so a second connection can commit the
	// competing signup outside the create transaction.
	dsn := "file:google_collision?mode=memory&cache=shared&_busy_timeout=2000"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.EmailVerificationToken{},
		&models.PasswordResetToken{},
	))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	other, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	otherDB, err := other.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = otherDB.Close() })

	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret-test-secret-test-1234", SessionTTL: time.Hour})
	require.NoError(t, err)
	tokens, err := NewTokenService(db, &captureNotifier{})
	require.NoError(t, err)
	svc, err := NewAccountService(db, jwtSvc, tokens)
	require.NoError(t, err)

	var existing models.User
	raced := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("competing_signup", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "users" {
			return
		}
		raced = true
		existing = models.User{Name: "Asha", Email: "asha@example.com", Password: "hashed", EmailVerified: true}
		require.NoError(t, other.Create(&existing).Error)
	}))

	linked, session, err := svc.LoginOrLinkWithGoogle(context.Background(), providers.Identity{
		Subject: "google-sub-1",
		Email:   "asha@example.com",
	})
	require.NoError(t, err)
	require.True(t, raced)
	require.NotEmpty(t, session)
	require.Equal(t, existing.ID, linked.ID)
	require.Equal(t, "google-sub-1", linked.GoogleID)
	require.True(t, linked.HasPassword())
}
