package handler

import (
	"net/http"
	"strings"

	"github.com/MaryRatiary/back-rise/internal/auth"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserIDKey   = "auth.userID"
	ctxUserRoleKey = "auth.userRole"
)

// AuthMiddleware validates the Bearer token on every protected route
// and stores the resolved identity in the request context.
func AuthMiddleware(tokens *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respond(c, http.StatusUnauthorized, nil, "Jeton d'authentification manquant")
			c.Abort()
			return
		}

		claims, err := tokens.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respond(c, http.StatusUnauthorized, nil, "Jeton d'authentification invalide")
			c.Abort()
			return
		}

		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxUserRoleKey, claims.Role)
		c.Next()
	}
}

// CurrentUserID returns the authenticated user set by AuthMiddleware.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ctxUserIDKey)
}
