package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulend/edulend/internal/auth/providers"
	"github.com/edulend/edulend/internal/middleware"
	"github.com/edulend/edulend/internal/services"
	"github.com/edulend/edulend/pkg/errors"
	"github.com/edulend/edulend/pkg/metrics"
	"github.com/edulend/edulend/pkg/response"
)

// GoogleVerifier resolves a Google credential into a verified identity,
// either from a raw ID token or by exchanging a server-side authorization code.
type GoogleVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*providers.Identity, error)
	Exchange(ctx context.Context, code string) (*providers.Identity, error)
}

// AuthHandler manages the account lifecycle routes: registration, email
// verification, login (password and Google), password reset, profile reads
// and account deletion.
type AuthHandler struct {
	accounts *services.AccountService
	google   GoogleVerifier
}

// NewAuthHandler constructs an AuthHandler. google may be nil when federated
// login is not configured.
func NewAuthHandler(accounts *services.AccountService, google GoogleVerifier) *AuthHandler {
	return &AuthHandler{accounts: accounts, google: google}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.accounts.Register(requestContext(c), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// The account may exist even when delivery failed; the client is told
		// so it can offer a resend instead of a retry.
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":    user,
		"message": "verification email sent",
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, token, err := h.accounts.Login(requestContext(c), req.Email, req.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("password", "failure").Inc()
		response.Error(c, err)
		return
	}

	metrics.AuthAttempts.WithLabelValues("password", "success").Inc()
	response.Success(c, http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}

type googleLoginRequest struct {
	IDToken string `json:"id_token" validate:"required_without=Code"`
	Code    string `json:"code" validate:"required_without=IDToken"`
}

// POST /api/auth/google
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if h.google == nil {
		response.Error(c, errors.New("FEDERATION_DISABLED", "google login is not configured", http.StatusServiceUnavailable))
		return
	}

	var (
		identity *providers.Identity
		err      error
	)
	if req.Code != "" {
		identity, err = h.google.Exchange(requestContext(c), req.Code)
	} else {
		identity, err = h.google.Verify(requestContext(c), req.IDToken)
	}
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("google", "failure").Inc()
		response.Error(c, errors.ErrInvalidCredentials)
		return
	}

	user, token, err := h.accounts.LoginOrLinkWithGoogle(requestContext(c), *identity)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("google", "failure").Inc()
		response.Error(c, err)
		return
	}

	metrics.AuthAttempts.WithLabelValues("google", "success").Inc()
	response.Success(c, http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, token, err := h.accounts.VerifyEmail(requestContext(c), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/auth/resend-verification
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.ResendVerification(requestContext(c), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	// Same answer whether or not the account exists.
	response.Success(c, http.StatusOK, gin.H{
		"message": "if the account exists and is unverified, a new link has been sent",
	})
}

// POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.ForgotPassword(requestContext(c), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "password reset email sent"})
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.ResetPassword(requestContext(c), req.Token, req.Password); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "password updated"})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	user, err := h.accounts.GetUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

type deleteAccountRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Confirmation string `json:"confirmation" validate:"required"`
}

// DELETE /api/auth/account
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	var req deleteAccountRequest
	if !bindAndValidate(c, &req) {
		return
	}

	// Identity always comes from the session, never from the payload.
	userID := c.GetString(middleware.CtxUserIDKey)
	if err := h.accounts.DeleteAccount(requestContext(c), userID, req.Email, req.Confirmation); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "account deleted"})
}
