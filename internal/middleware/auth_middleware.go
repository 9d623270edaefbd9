package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/velastore/velastore-backend/internal/errors"
	"github.com/velastore/velastore-backend/pkg/logger"
	"github.com/velastore/velastore-backend/pkg/redis"
	"github.com/velastore/velastore-backend/pkg/util"
)

const (
	ContextUserIDKey = "user_id"
	ContextEmailKey  = "email"
	ContextRoleKey   = "role"
	ContextTokenKey  = "token"
)

// AuthMiddleware validates the bearer token, rejects revoked tokens and puts
// the caller's identity on the gin context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apperrors.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid,
				"Authorization header must be a bearer token")
			c.Abort()
			return
		}
		token := parts[1]

		claims, err := util.ValidateToken(token, jwtSecret)
		if err != nil {
			code := apperrors.AuthTokenInvalid
			message := "Invalid token"
			if err == util.ErrExpiredToken {
				code = apperrors.AuthTokenExpired
				message = "Token has expired"
			}
			apperrors.RespondWithError(c, http.StatusUnauthorized, code, message)
			c.Abort()
			return
		}

		blacklisted, err := redis.IsTokenBlacklisted(c.Request.Context(), token)
		if err != nil {
			logger.Error("Token blacklist check failed", err, map[string]interface{}{
				"user_id": claims.UserID,
			})
		}
		if blacklisted {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked,
				"Token has been revoked")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextEmailKey, claims.Email)
		c.Set(ContextRoleKey, claims.Role)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

// RequireAdmin gates a route group to admin callers. Must run after
// AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzAdminOnly,
				"Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID reads the authenticated user id set by AuthMiddleware.
func GetUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok
}

// IsAdmin reports whether the authenticated caller holds the admin role.
func IsAdmin(c *gin.Context) bool {
	return c.GetString(ContextRoleKey) == "admin"
}
