package middleware

import (
	"net/http"

	"vulnsphere/internal/models"

	"github.com/gin-gonic/gin"
)

func currentRole(c *gin.Context) (models.UserRole, bool) {
	v, ok := c.Get("CurrentUser")
	if !ok {
		return "", false
	}
	u, ok := v.(*models.User)
	if !ok || u == nil {
		return "", false
	}
	return u.Role, true
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentRole(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := map[models.UserRole]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, ok := currentRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if _, ok := roleSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}
