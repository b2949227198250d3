package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/bakery/internal/access"
	"github.com/mamadbah2/bakery/pkg/jwt"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "user_role"
)

// Auth validates the bearer token and stores the user id and role on the
// context. A token without a recognised role is accepted with an empty role.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "expected: Bearer <token>"})
			return
		}

		claims, err := jwt.Parse(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		role, _ := access.ParseRole(claims.Role)
		c.Set(ctxUserID, claims.UserID())
		c.Set(ctxRole, role)
		c.Next()
	}
}

// Require aborts with 403 unless the caller's role holds capability.
func Require(checker access.Checker, capability access.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !checker.Can(Role(c), capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// Role returns the authenticated user's role, or "" when none.
func Role(c *gin.Context) access.Role {
	v, ok := c.Get(ctxRole)
	if !ok {
		return ""
	}
	role, _ := v.(access.Role)
	return role
}
