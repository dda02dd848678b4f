package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clientx/internal/models"
)

// RequireRoles rejects callers whose role is not in the allowed set.
// Superusers always pass.
func RequireRoles(allowed ...models.Role) gin.HandlerFunc {
	allowedSet := map[models.Role]struct{}{}
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if su, ok := c.Get("is_superuser"); ok {
			if b, _ := su.(bool); b {
				c.Next()
				return
			}
		}
		v, exists := c.Get("role")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no role in context"})
			return
		}
		role, _ := v.(string)
		if _, ok := allowedSet[models.Role(role)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// ReadOnlyGuard blocks unsafe methods for the client role.
func ReadOnlyGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleV, _ := c.Get("role")
		role, _ := roleV.(string)
		if models.Role(role) == models.RoleClient {
			switch c.Request.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				// ok
			default:
				// clients may still mark their own notifications read
				if c.Request.URL.Path == "/notifications/read-all" {
					break
				}
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "read-only role"})
				return
			}
		}
		c.Next()
	}
}
