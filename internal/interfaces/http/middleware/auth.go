package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dicomdesk/internal/infrastructure/auth"
	"dicomdesk/internal/shared/constants"
	"dicomdesk/internal/shared/logger"
	"dicomdesk/internal/shared/utils"
)

// AuthMiddleware verifies bearer tokens against the identity provider and
// populates the request context with the caller's identity.
type AuthMiddleware struct {
	verifier auth.TokenVerifier
	logger   logger.Interface
}

func NewAuthMiddleware(verifier auth.TokenVerifier, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := m.verifier.Verify(c.Request.Context(), parts[1])
		if err != nil {
			m.logger.Warnw("failed to verify token", "error", err)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, claims.Subject)
		c.Set(constants.ContextKeyUserName, claims.Username)
		c.Set(constants.ContextKeyRoles, claims.Roles)

		c.Next()
	}
}

// RequireRole gates a route on one realm role. Must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasRole(c, role) {
			utils.ErrorResponse(c, http.StatusForbidden, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// HasRole reports whether the authenticated caller carries the realm role.
func HasRole(c *gin.Context, role string) bool {
	value, exists := c.Get(constants.ContextKeyRoles)
	if !exists {
		return false
	}
	roles, ok := value.([]string)
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// UserID returns the authenticated caller's identity-provider subject.
func UserID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyUserID)
}

// Username returns the authenticated caller's preferred username.
func Username(c *gin.Context) string {
	return c.GetString(constants.ContextKeyUserName)
}
