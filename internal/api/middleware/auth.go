package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kaushalvasoya/homeco-real-estate/internal/auth"
)

// ContextKeyAdminID holds the key for the authenticated admin ID in Gin context.
const ContextKeyAdminID = "adminID"

// AuthMiddleware creates a Gin middleware for JWT authentication. It accepts
// either an `Authorization: Bearer <token>` header or the legacy
// `x-auth-token` header the frontend sends.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("x-auth-token")
		if tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "No token"})
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Authorization header format must be Bearer {token}"})
				return
			}
			tokenString = parts[1]
		}

		claims, err := auth.ValidateJWT(tokenString, jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token invalid"})
			return
		}

		c.Set(ContextKeyAdminID, claims.AdminID)
		c.Next()
	}
}
