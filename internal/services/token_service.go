package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/edulend/edulend/internal/models"
	"github.com/edulend/edulend/internal/notify"
	"github.com/edulend/edulend/pkg/crypto"
	apperrors "github.com/edulend/edulend/pkg/errors"
	"github.com/edulend/edulend/pkg/metrics"
)

// TokenPurpose selects which token table an operation works against.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify-email"
	PurposeResetPassword TokenPurpose = "reset-password"
)

const (
	verifyEmailTTL   = 24 * time.Hour
	resetPasswordTTL = time.Hour

	// 32 random bytes gives 256 bits of entropy per token.
	defaultTokenBytes = 32
)

// TokenOption customises the TokenService.
type TokenOption func(*TokenService)

// WithTokenClock injects a custom time source.
func WithTokenClock(clock func() time.Time) TokenOption {
	return func(s *TokenService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithTokenLength adjusts the number of random bytes in generated tokens.
func WithTokenLength(n int) TokenOption {
	return func(s *TokenService) {
		if n > 0 {
			s.tokenLength = n
		}
	}
}

// TokenService issues and redeems single-use verification and reset tokens.
// A token is consumed by deleting its row inside a transaction, so two
// concurrent redemptions can never both observe it as live.
type TokenService struct {
	db          *gorm.DB
	notifier    notify.Notifier
	tokenLength int
	now         func() time.Time
}

// NewTokenService constructs a TokenService with the provided dependencies.
func NewTokenService(db *gorm.DB, notifier notify.Notifier, opts ...TokenOption) (*TokenService, error) {
	if db == nil {
		return nil, errors.New("token service: db is required")
	}

	service := &TokenService{
		db:          db,
		notifier:    notifier,
		tokenLength: defaultTokenBytes,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Issue replaces any live token for (email, purpose) with a fresh one and
// asks the notifier to deliver it. When delivery fails, the token is kept
// (the link is recoverable via resend) and ErrNotifyFailed is returned so
// the caller can surface the failure distinctly.
func (s *TokenService) Issue(ctx context.Context, email string, purpose TokenPurpose) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.New("token service: email is required")
	}

	ttl, err := purposeTTL(purpose)
	if err != nil {
		return "", err
	}

	token, err := crypto.GenerateToken(s.tokenLength)
	if err != nil {
		return "", fmt.Errorf("token service: generate token: %w", err)
	}

	expiresAt := s.now().Add(ttl)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteTokensByEmail(tx, purpose, email); err != nil {
			return fmt.Errorf("token service: purge prior tokens: %w", err)
		}
		return createToken(tx, purpose, token, email, expiresAt)
	})
	if err != nil {
		return "", fmt.Errorf("token service: persist token: %w", err)
	}

	metrics.TokensIssued.WithLabelValues(string(purpose)).Inc()

	if s.notifier != nil {
		if sendErr := s.notifier.Send(ctx, purposeKind(purpose), email, token); sendErr != nil {
			return token, apperrors.ErrNotifyFailed.WithInternal(sendErr)
		}
	}

	return token, nil
}

// Redeem validates a presented token and, when live, consumes it and applies
// the supplied effect inside the same transaction. It returns the owning
// email. Failures are reported as ErrTokenInvalid, ErrTokenUsed or
// ErrTokenExpired; an expired token is deleted on sight so the same string
// reads as invalid afterwards.
func (s *TokenService) Redeem(ctx context.Context, raw string, purpose TokenPurpose, effect func(tx *gorm.DB, email string) error) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		s.countRedemption(purpose, "invalid")
		return "", apperrors.ErrTokenInvalid
	}

	var (
		email   string
		expired bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := findToken(tx, purpose, raw)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTokenInvalid
		}
		if err != nil {
			return fmt.Errorf("token service: find token: %w", err)
		}

		if rec.Used {
			return apperrors.ErrTokenUsed
		}

		if s.now().After(rec.ExpiresAt) {
			// Delete eagerly and commit; the expired outcome is reported
			// after the transaction so the cleanup is not rolled back.
			if err := deleteToken(tx, purpose, raw); err != nil {
				return fmt.Errorf("token service: delete expired token: %w", err)
			}
			expired = true
			return nil
		}

		// Atomic find-and-consume: the conditional delete decides the winner
		// when two redemptions race on the same token.
		res := consumeToken(tx, purpose, raw)
		if res.Error != nil {
			return fmt.Errorf("token service: consume token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrTokenInvalid
		}

		email = rec.Email
		if effect != nil {
			return effect(tx, rec.Email)
		}
		return nil
	})
	if err != nil {
		s.countRedemption(purpose, redemptionOutcome(err))
		return "", err
	}
	if expired {
		s.countRedemption(purpose, "expired")
		return "", apperrors.ErrTokenExpired
	}

	s.countRedemption(purpose, "valid")
	return email, nil
}

// PurgeExpired removes tokens past their expiry for both purposes. Expiry is
// enforced lazily at redeem time; this is scheduled hygiene only.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	now := s.now()

	var removed int64
	res := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.EmailVerificationToken{})
	if res.Error != nil {
		return removed, fmt.Errorf("token service: purge verification tokens: %w", res.Error)
	}
	removed += res.RowsAffected

	res = s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.PasswordResetToken{})
	if res.Error != nil {
		return removed, fmt.Errorf("token service: purge reset tokens: %w", res.Error)
	}
	removed += res.RowsAffected

	return removed, nil
}

func (s *TokenService) countRedemption(purpose TokenPurpose, outcome string) {
	metrics.TokenRedemptions.WithLabelValues(string(purpose), outcome).Inc()
}

func redemptionOutcome(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrTokenUsed):
		return "used"
	case errors.Is(err, apperrors.ErrTokenExpired):
		return "expired"
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return "invalid"
	default:
		return "error"
	}
}

func purposeTTL(purpose TokenPurpose) (time.Duration, error) {
	switch purpose {
	case PurposeVerifyEmail:
		return verifyEmailTTL, nil
	case PurposeResetPassword:
		return resetPasswordTTL, nil
	default:
		return 0, fmt.Errorf("token service: unknown purpose %q", purpose)
	}
}

func purposeKind(purpose TokenPurpose) notify.Kind {
	if purpose == PurposeResetPassword {
		return notify.KindResetPassword
	}
	return notify.KindVerifyEmail
}

// tokenRecord is the purpose-independent view of a token row.
type tokenRecord struct {
	Email     string
	ExpiresAt time.Time
	Used      bool
}

func findToken(tx *gorm.DB, purpose TokenPurpose, raw string) (*tokenRecord, error) {
	rec := &tokenRecord{}
	if purpose == PurposeResetPassword {
		var row models.PasswordResetToken
		if err := tx.Where("token = ?", raw).Take(&row).Error; err != nil {
			return nil, err
		}
		rec.Email, rec.ExpiresAt, rec.Used = row.Email, row.ExpiresAt, row.Used
		return rec, nil
	}

	var row models.EmailVerificationToken
	if err := tx.Where("token = ?", raw).Take(&row).Error; err != nil {
		return nil, err
	}
	rec.Email, rec.ExpiresAt, rec.Used = row.Email, row.ExpiresAt, row.Used
	return rec, nil
}

func createToken(tx *gorm.DB, purpose TokenPurpose, raw, email string, expiresAt time.Time) error {
	if purpose == PurposeResetPassword {
		return tx.Create(&models.PasswordResetToken{Token: raw, Email: email, ExpiresAt: expiresAt}).Error
	}
	return tx.Create(&models.EmailVerificationToken{Token: raw, Email: email, ExpiresAt: expiresAt}).Error
}

func deleteToken(tx *gorm.DB, purpose TokenPurpose, raw string) error {
	if purpose == PurposeResetPassword {
		return tx.Where("token = ?", raw).Delete(&models.PasswordResetToken{}).Error
	}
	return tx.Where("token = ?", raw).Delete(&models.EmailVerificationToken{}).Error
}

func consumeToken(tx *gorm.DB, purpose TokenPurpose, raw string) *gorm.DB {
	if purpose == PurposeResetPassword {
		return tx.Where("token = ? AND used = ?", raw, false).Delete(&models.PasswordResetToken{})
	}
	return tx.Where("token = ? AND used = ?", raw, false).Delete(&models.EmailVerificationToken{})
}

func deleteTokensByEmail(tx *gorm.DB, purpose TokenPurpose, email string) error {
	if purpose == PurposeResetPassword {
		return tx.Where("email = ?", email).Delete(&models.PasswordResetToken{}).Error
	}
	return tx.Where("email = ?", email).Delete(&models.EmailVerificationToken{}).Error
}
