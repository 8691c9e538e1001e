package api

import (
	"github.com/gin-gonic/gin"

	"github.com/edulend/edulend/internal/handlers"
)

func registerAuthRoutes(engine *gin.Engine, api *gin.RouterGroup, h *handlers.AuthHandler, requireAuth gin.HandlerFunc) {
	auth := engine.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/google", h.GoogleLogin)
		auth.POST("/verify-email", h.VerifyEmail)
		auth.POST("/resend-verification", h.ResendVerification)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
	}

	protected := api.Group("/auth")
	protected.Use(requireAuth)
	{
		protected.GET("/me", h.Me)
		protected.DELETE("/account", h.DeleteAccount)
	}
}
