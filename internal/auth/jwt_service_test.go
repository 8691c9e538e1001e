package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edulend/edulend/internal/models"
)

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestIssueAndValidateSession(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewJWTService(JWTConfig{
		Secret:     "super-secret",
		Issuer:     "edulend",
		SessionTTL: 24 * time.Hour,
		Clock:      now,
	})
	require.NoError(t, err)

	user := &models.User{ID: "user-123", Email: "a@x.com", Role: models.RoleStudent}
	token, err := svc.IssueSession(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateSession(token)
	require.NoError(t, err)

	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, "a@x.com", claims.Email)
	require.Equal(t, models.RoleStudent, claims.Role)
	require.Equal(t, "edulend", claims.Issuer)
	require.True(t, claims.IssuedAt.Time.Equal(current))
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(24*time.Hour)))
}

func TestValidateSessionInvalidSignature(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC) }

	issuer, err := NewJWTService(JWTConfig{Secret: "issuer-secret", Clock: now})
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "other-secret", Clock: now})
	require.NoError(t, err)

	token, err := issuer.IssueSession(&models.User{ID: "user-1", Email: "u@x.com", Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = verifier.ValidateSession(token)
	require.Error(t, err)
}

func TestValidateSessionExpired(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewJWTService(JWTConfig{
		Secret:     "super-secret",
		SessionTTL: time.Hour,
		Clock:      func() time.Time { return current },
	})
	require.NoError(t, err)

	token, err := svc.IssueSession(&models.User{ID: "user-1", Email: "u@x.com", Role: models.RoleStudent})
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)

	_, err = svc.ValidateSession(token)
	require.Error(t, err)
}

func TestValidateSessionWrongIssuer(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "edulend"})
	require.NoError(t, err)

	other, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "someone-else"})
	require.NoError(t, err)

	token, err := other.IssueSession(&models.User{ID: "user-1", Email: "u@x.com"})
	require.NoError(t, err)

	_, err = svc.ValidateSession(token)
	require.Error(t, err)
}
