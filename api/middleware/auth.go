// api/middleware/auth.go
package middleware

import (
	"errors"
	"net/http"

	"example.com/calendariko/internal/auth"
	"example.com/calendariko/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// contextKey is a type for context keys
type contextKey string

// IdentityContextKey is where the resolved caller identity lives on the
// request context
const IdentityContextKey contextKey = "identity"

// JWTAuth middleware validates bearer tokens and resolves the caller's
// identity with its band memberships
func JWTAuth(tokens *auth.TokenManager, svc service.Service, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		token, ok := auth.ExtractBearerToken(authHeader)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid Authorization header format. Expected: 'Bearer {token}'",
			})
			c.Abort()
			return
		}

		claims, err := tokens.VerifyAccessToken(token)
		if err != nil {
			log.WithError(err).Warn("Invalid access token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		identity, err := svc.ResolveIdentity(c.Request.Context(), claims.Subject)
		if err != nil {
			log.WithError(err).Warn("Failed to resolve identity")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unknown account",
			})
			c.Abort()
			return
		}

		c.Set(string(IdentityContextKey), identity)

		c.Next()
	}
}

// GetIdentityFromContext retrieves the caller identity from the context
func GetIdentityFromContext(c *gin.Context) (*auth.Identity, error) {
	val, exists := c.Get(string(IdentityContextKey))
	if !exists {
		return nil, errors.New("identity not found in context")
	}

	identity, ok := val.(*auth.Identity)
	if !ok {
		return nil, errors.New("identity in context has incorrect type")
	}

	return identity, nil
}
