package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"symptom-checker-server/internal/models"
	"symptom-checker-server/internal/utils"
)

const userIDKey = "userID"

// AuthMiddleware creates a middleware for JWT authentication.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}
		if !authenticate(c, authHeader, secret) {
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware authenticates the caller when a bearer token is
// sent and otherwise treats the request as coming from the local user.
// A token that is present but invalid is still rejected.
func OptionalAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Set(userIDKey, models.LocalUserID)
			c.Next()
			return
		}
		if !authenticate(c, authHeader, secret) {
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, authHeader, secret string) bool {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		utils.Unauthorized(c, "Invalid authorization header format")
		c.Abort()
		return false
	}

	claims, err := utils.ValidateToken(parts[1], secret)
	if err != nil {
		utils.Unauthorized(c, "Invalid token: "+err.Error())
		c.Abort()
		return false
	}

	c.Set(userIDKey, claims.UserID)
	return true
}

// GetUserIDFromContext returns the caller set by one of the auth middlewares.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	idStr, ok := userID.(string)
	return idStr, ok
}
