package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"users-be/internal/jwt"
)

// Context keys set for authenticated requests
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
)

// AuthMiddleware rejects requests without a valid bearer token and stores the requester in the context.
func AuthMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or invalid authorization header",
			})
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(tokenString))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Next()
	}
}

// RequesterID returns the authenticated user id set by AuthMiddleware.
func RequesterID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserID)
	return id, id != ""
}
