package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/edulend/edulend/internal/auth"
	"github.com/edulend/edulend/internal/auth/providers"
	"github.com/edulend/edulend/internal/models"
	"github.com/edulend/edulend/pkg/crypto"
	apperrors "github.com/edulend/edulend/pkg/errors"
	"github.com/edulend/edulend/pkg/logger"
)

// deleteConfirmationSuffix is appended to the account email to form the exact
// confirmation string required before a hard delete.
const deleteConfirmationSuffix = "-delete"

// RegisterInput captures the details required to register a password account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AccountService reconciles the password and Google account-creation paths
// onto a single User record and owns the credential lifecycle around it.
type AccountService struct {
	db     *gorm.DB
	jwt    *auth.JWTService
	tokens *TokenService
}

// NewAccountService constructs an AccountService instance.
func NewAccountService(db *gorm.DB, jwt *auth.JWTService, tokens *TokenService) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if jwt == nil {
		return nil, errors.New("account service: jwt service is required")
	}
	if tokens == nil {
		return nil, errors.New("account service: token service is required")
	}
	return &AccountService{db: db, jwt: jwt, tokens: tokens}, nil
}

// Register creates an unverified password account and issues a verification
// token. No session is returned: verification gates the first login. A
// returned ErrNotifyFailed still carries a created user; the account and
// token exist, only the delivery failed.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	// Friendly fast path; the unique constraint below remains authoritative
	// because two concurrent registrations can both pass this check.
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("account service: pre-check email: %w", err)
	}
	if count > 0 {
		return nil, apperrors.ErrEmailTaken
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account service: hash password: %w", err)
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     models.RoleStudent,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("account service: create user: %w", err)
	}

	if _, err := s.tokens.Issue(ctx, email, PurposeVerifyEmail); err != nil {
		if errors.Is(err, apperrors.ErrNotifyFailed) {
			return user, err
		}
		return nil, fmt.Errorf("account service: issue verification token: %w", err)
	}

	return user, nil
}

// Login authenticates a password account and mints a session token.
// Invalid email and invalid password report identically; bcrypt's comparator
// keeps the hash check constant-time.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("account service: query user: %w", err)
	}

	if !user.HasPassword() {
		return nil, "", apperrors.ErrFederatedOnly
	}

	if !crypto.VerifyPassword(user.Password, password) {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	if user.IsBlocked {
		return nil, "", apperrors.ErrForbidden
	}

	if !user.EmailVerified {
		return nil, "", apperrors.ErrEmailNotVerified
	}

	token, err := s.jwt.IssueSession(&user)
	if err != nil {
		return nil, "", fmt.Errorf("account service: issue session: %w", err)
	}

	return &user, token, nil
}

// LoginOrLinkWithGoogle folds a verified Google identity into the user table
// and mints a session. Linking is idempotent: an existing foreign subject is
// never overwritten and the role is never downgraded. Federated signup skips
// the verify-email gate because Google has already proven email ownership.
func (s *AccountService) LoginOrLinkWithGoogle(ctx context.Context, identity providers.Identity) (*models.User, string, error) {
	email := normalizeEmail(identity.Email)
	if email == "" || identity.Subject == "" {
		return nil, "", apperrors.NewBadRequest("google identity is incomplete")
	}

	user, err := s.findOrCreateGoogleUser(ctx, email, identity)
	if err != nil {
		return nil, "", err
	}

	if user.IsBlocked {
		return nil, "", apperrors.ErrForbidden
	}

	token, err := s.jwt.IssueSession(user)
	if err != nil {
		return nil, "", fmt.Errorf("account service: issue session: %w", err)
	}

	return user, token, nil
}

func (s *AccountService) findOrCreateGoogleUser(ctx context.Context, email string, identity providers.Identity) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		now := s.tokens.now()
		created := &models.User{
			Name:            strings.TrimSpace(identity.Name),
			Email:           email,
			Role:            models.RoleStudent,
			GoogleID:        identity.Subject,
			Picture:         identity.Picture,
			EmailVerified:   true,
			EmailVerifiedAt: &now,
		}
		if createErr := s.db.WithContext(ctx).Create(created).Error; createErr != nil {
			if !isUniqueConstraintError(createErr) {
				return nil, fmt.Errorf("account service: create google user: %w", createErr)
			}
			// Lost a race against a concurrent signup for the same email;
			// fall through to the linking path against the surviving row.
			if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
				return nil, fmt.Errorf("account service: reload user: %w", err)
			}
		} else {
			return created, nil
		}
	} else if err != nil {
		return nil, fmt.Errorf("account service: query user: %w", err)
	}

	updates := map[string]any{}
	if user.GoogleID == "" {
		user.GoogleID = identity.Subject
		updates["google_id"] = identity.Subject
	}
	if user.Picture == "" && identity.Picture != "" {
		user.Picture = identity.Picture
		updates["picture"] = identity.Picture
	}
	if user.Role == "" {
		user.Role = models.RoleStudent
		updates["role"] = models.RoleStudent
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("account service: link google identity: %w", err)
		}
	}

	return &user, nil
}

// VerifyEmail consumes a verification token, marks the owning account
// verified, and mints a session for it.
func (s *AccountService) VerifyEmail(ctx context.Context, rawToken string) (*models.User, string, error) {
	email, err := s.tokens.Redeem(ctx, rawToken, PurposeVerifyEmail, func(tx *gorm.DB, email string) error {
		now := s.tokens.now()
		res := tx.Model(&models.User{}).
			Where("email = ?", email).
			Updates(map[string]any{"email_verified": true, "email_verified_at": now})
		if res.Error != nil {
			return fmt.Errorf("mark verified: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Token outlived its account; consuming it would verify nobody.
			return apperrors.ErrTokenInvalid
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, "", fmt.Errorf("account service: load verified user: %w", err)
	}

	token, err := s.jwt.IssueSession(&user)
	if err != nil {
		return nil, "", fmt.Errorf("account service: issue session: %w", err)
	}

	return &user, token, nil
}

// ResendVerification issues a fresh verification token when the account
// exists and is still unverified. It reports nothing about account existence
// so the endpoint cannot be used for enumeration.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("account service: query user: %w", err)
	}
	if user.EmailVerified {
		return nil
	}

	if _, err := s.tokens.Issue(ctx, email, PurposeVerifyEmail); err != nil {
		if errors.Is(err, apperrors.ErrNotifyFailed) {
			// The token row is already persisted; this endpoint must answer
			// identically whether or not the account exists.
			logger.Warn("resend verification delivery failed", zap.String("email", email), zap.Error(err))
			return nil
		}
		return err
	}
	return nil
}

// ForgotPassword issues a reset token. Unlike resend-verification this path
// deliberately discloses whether the email is registered.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperrors.ErrEmailNotFound
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("account service: query user: %w", err)
	}
	if count == 0 {
		return apperrors.ErrEmailNotFound
	}

	if _, err := s.tokens.Issue(ctx, email, PurposeResetPassword); err != nil {
		return err
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the owning account's
// password in the same transaction.
func (s *AccountService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("account service: hash password: %w", err)
	}

	_, err = s.tokens.Redeem(ctx, rawToken, PurposeResetPassword, func(tx *gorm.DB, email string) error {
		res := tx.Model(&models.User{}).Where("email = ?", email).Update("password", hashed)
		if res.Error != nil {
			return fmt.Errorf("replace password: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrTokenInvalid
		}
		return nil
	})
	return err
}

// DeleteAccount hard-deletes the caller's account after a strict textual
// re-confirmation. The identity always comes from the session claims, never
// from a client-supplied id. Tokens are purged before the user row so no
// dangling token can resurrect access to the deleted identity.
func (s *AccountService) DeleteAccount(ctx context.Context, userID, suppliedEmail, confirmation string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.ErrUnauthorized
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("account service: load user: %w", err)
	}

	// Byte-exact, case-sensitive match on "<email>-delete".
	if confirmation != user.Email+deleteConfirmationSuffix {
		return apperrors.ErrConfirmationMismatch
	}
	if !strings.EqualFold(strings.TrimSpace(suppliedEmail), user.Email) {
		return apperrors.ErrConfirmationMismatch
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", user.Email).Delete(&models.EmailVerificationToken{}).Error; err != nil {
			return fmt.Errorf("account service: delete verification tokens: %w", err)
		}
		if err := tx.Where("email = ?", user.Email).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return fmt.Errorf("account service: delete reset tokens: %w", err)
		}
		if err := tx.Where("id = ?", user.ID).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("account service: delete user: %w", err)
		}
		return nil
	})
}

// GetUser loads a user by id for authenticated profile reads.
func (s *AccountService) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account service: load user: %w", err)
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
