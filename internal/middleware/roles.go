package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/edulend/edulend/internal/models"
	apperrors "github.com/edulend/edulend/pkg/errors"
	"github.com/edulend/edulend/pkg/metrics"
	"github.com/edulend/edulend/pkg/response"
)

// RequireRole gates a route group to the listed roles. The role is re-read
// from the store on every request rather than trusted from the JWT claim, so
// demotions and blocks take effect before the session expires.
func RequireRole(db *gorm.DB, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		userID := c.GetString(CtxUserIDKey)
		if userID == "" {
			metrics.RoleChecks.WithLabelValues("denied").Inc()
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		var user models.User
		err := db.WithContext(c.Request.Context()).
			Select("role", "is_blocked").
			Where("id = ?", userID).
			Take(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Account deleted after the session was minted.
			metrics.RoleChecks.WithLabelValues("denied").Inc()
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if err != nil {
			metrics.RoleChecks.WithLabelValues("error").Inc()
			response.Error(c, apperrors.ErrInternalServer.WithInternal(err))
			c.Abort()
			return
		}

		if user.IsBlocked {
			metrics.RoleChecks.WithLabelValues("denied").Inc()
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}

		if _, ok := allowed[user.Role]; !ok {
			metrics.RoleChecks.WithLabelValues("denied").Inc()
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}

		metrics.RoleChecks.WithLabelValues("allowed").Inc()
		// Overwrite the claim-derived role with the fresh value.
		c.Set(CtxRoleKey, user.Role)
		c.Next()
	}
}
