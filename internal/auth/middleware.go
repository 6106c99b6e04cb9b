package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/claro-app/claro-server/internal/apperr"
	"github.com/claro-app/claro-server/internal/database"
	pkgauth "github.com/claro-app/claro-server/pkg/auth"
	"github.com/gin-gonic/gin"
)

// Middleware resolves the caller's identity from a bearer token. Signature
// and expiry problems reject with 401. A token that verifies but whose
// principal no longer exists in the store also rejects, with a distinct
// message: a stale token must not be treated as a forged one. Any other
// store failure is a 500; an outage is not a revoked principal.
func Middleware(db *database.Database, jwtManager *pkgauth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Access token required",
			})
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := jwtManager.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid or expired token",
			})
			c.Abort()
			return
		}

		// Verify the principal still exists; the token alone is not enough.
		user, err := db.GetUserByID(claims.UserID)
		if err != nil {
			if errors.Is(err, apperr.ErrUserNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   "User not found",
				})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "Internal server error",
				})
			}
			c.Abort()
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
